package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow keeps one sorted-set member per accepted call, scored by its time in ms
var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

// Throttle limits how often a keyed action may run across every process sharing Redis.
// Keys are stored as "<prefix>:throttle:<key>".
// ⭐ SSOT: límites compartidos entre instancias solo aquí
type Throttle struct {
	client *Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewThrottle allows limit calls per key within window. limit <= 0 disables throttling.
func NewThrottle(client *Client, prefix string, limit int, window time.Duration) *Throttle {
	return &Throttle{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow records one call for key and reports whether it fits in the window,
// plus how many calls remain. A disabled client or a non-positive limit always allows.
func (t *Throttle) Allow(ctx context.Context, key string) (bool, int, error) {
	if !t.client.Enabled() || t.limit <= 0 {
		return true, t.limit, nil
	}

	now := t.now().UnixMilli()
	// el miembro lleva un sufijo para no colapsar llamadas del mismo milisegundo
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())

	res, err := slidingWindow.Run(ctx, t.client.Redis(),
		[]string{fmt.Sprintf("%s:throttle:%s", t.prefix, key)},
		now, now-t.window.Milliseconds(), t.limit, t.window.Milliseconds(), member,
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("throttle %s: %w", key, err)
	}
	return res[0] == 1, int(res[1]), nil
}

// Window returns the throttle window, used for Retry-After
func (t *Throttle) Window() time.Duration {
	return t.window
}

// RecomputeKey identifies recomputations of one line and month
func RecomputeKey(lineID int64, year, month int) string {
	return fmt.Sprintf("calcular:%d:%04d-%02d", lineID, year, month)
}
