package monitor

import "github.com/Naeaerc20/polymarket-copy-bot/internal/domain"

// maxSeenKeys bounds the per-trader seen set. The activity feed window is
// far smaller than this, so trimming the oldest keys cannot re-admit a
// trade that could still appear in a poll.
const maxSeenKeys = 5000

// SeenCursor tracks which trades have been observed for one watched
// account. It is owned exclusively by the Monitor and advances
// monotonically: keys are only ever added and the last-seen timestamp never
// moves backwards.
type SeenCursor struct {
	seen  map[string]struct{}
	order []string // insertion order, for bounded trimming
	last  int64    // unix seconds of the newest trade marked
}

// NewSeenCursor returns an empty cursor.
func NewSeenCursor() *SeenCursor {
	return &SeenCursor{
		seen: make(map[string]struct{}),
	}
}

// Seen reports whether the trade key has been marked.
func (c *SeenCursor) Seen(key string) bool {
	_, ok := c.seen[key]
	return ok
}

// Mark records a trade as seen and advances the timestamp watermark.
func (c *SeenCursor) Mark(t domain.TradeRecord) {
	key := t.Key()
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.order = append(c.order, key)
	if t.Timestamp > c.last {
		c.last = t.Timestamp
	}

	if len(c.order) > maxSeenKeys {
		evict := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, evict)
	}
}

// LastTimestamp returns the newest trade timestamp marked so far.
func (c *SeenCursor) LastTimestamp() int64 {
	return c.last
}

// Len returns the number of tracked keys.
func (c *SeenCursor) Len() int {
	return len(c.seen)
}
