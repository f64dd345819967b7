package commands

import (
	"fmt"
	"strings"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/internal/indicators"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// todos los comandos usan el mismo formato de salida
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintHeader prints a boxed title
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

func yesNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}

// PrintBatchReport prints the measurements of one batch
func PrintBatchReport(report *indicators.BatchReport) {
	PrintHeader(fmt.Sprintf("Cálculo de indicadores: %s", report.Period))
	PrintKeyValue("Run ID", report.RunID, 10)
	PrintKeyValue("Duración", report.Duration.String(), 10)
	fmt.Println()

	widths := []int{10, 12, 10, 10, 6, 6}
	PrintTableHeader([]string{"Código", "Categoría", "Num/Den", "Valor", "Meta", "Alerta"}, widths)
	for _, res := range report.Results {
		PrintTableRow([]string{
			res.Indicator.Code,
			string(res.Indicator.Category),
			ratioCell(res.Ratio),
			res.Measurement.Value.StringFixed(2),
			yesNo(res.Measurement.MeetsGoal),
			yesNo(res.Measurement.InAlert),
		}, widths)
	}

	for _, s := range report.Skipped {
		PrintWarning(fmt.Sprintf("%s omitido: %s", s.Indicator.Code, s.Reason))
	}
}

// ratioCell renders num/den, or "sin datos" when the period had nothing to measure
func ratioCell(r contracts.Ratio) string {
	if r.IsEmpty() {
		return "sin datos"
	}
	return fmt.Sprintf("%s/%s", r.Numerator, r.Denominator)
}

// PrintIndex prints the global index with its breakdown
func PrintIndex(result *indicators.IndexResult) {
	PrintHeader(fmt.Sprintf("Índice global: %s", result.Period))

	widths := []int{12, 10, 8, 14}
	PrintTableHeader([]string{"Categoría", "Valor", "Peso", "Contribución"}, widths)
	for _, cat := range contracts.Categories() {
		d := result.Details[cat]
		PrintTableRow([]string{
			string(cat),
			d.Valor.StringFixed(2),
			d.Peso.String(),
			d.Contribucion.String(),
		}, widths)
	}
	PrintSeparator()
	PrintKeyValue("Índice global", result.Global.StringFixed(2), 14)
}
