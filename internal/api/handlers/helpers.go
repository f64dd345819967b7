package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/transmaint/backend/internal/contracts"
	"github.com/transmaint/backend/internal/indicators"
	"github.com/transmaint/backend/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps domain errors to status codes and logs server failures
func respondServiceError(w http.ResponseWriter, log *logger.Logger, err error, msg string) {
	switch {
	case errors.Is(err, contracts.ErrInvalidPeriod):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, indicators.ErrIndicatorNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		log.WithError(err).Error(msg)
		respondError(w, http.StatusInternalServerError, msg)
	}
}

// queryMonth reads ?anio=&mes=, defaulting to the month of now
func queryMonth(r *http.Request, now time.Time) (int, int, error) {
	year, month := now.Year(), int(now.Month())

	q := r.URL.Query()
	if v := q.Get("anio"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: anio must be an integer", contracts.ErrInvalidPeriod)
		}
		year = n
	}
	if v := q.Get("mes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: mes must be an integer", contracts.ErrInvalidPeriod)
		}
		month = n
	}

	if err := contracts.ValidateMonth(year, month); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return id, nil
}

// periodFromRequest builds the period of /lineas/{linea}/...?anio=&mes=
func periodFromRequest(r *http.Request, now time.Time) (contracts.Period, error) {
	lineID, err := pathID(r, "linea")
	if err != nil {
		return contracts.Period{}, fmt.Errorf("%w: %v", contracts.ErrInvalidPeriod, err)
	}

	year, month, err := queryMonth(r, now)
	if err != nil {
		return contracts.Period{}, err
	}
	return contracts.NewPeriod(lineID, year, month)
}
