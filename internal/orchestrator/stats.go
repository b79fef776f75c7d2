package orchestrator

import "log/slog"

// RunStatistics are the monotonic counters accumulated over one run of the
// copy loop. They are only touched from the loop goroutine.
type RunStatistics struct {
	TradesDetected   int64
	OrdersSubmitted  int64
	OrdersSucceeded  int64
	OrdersFailed     int64
	OrdersSuppressed int64
}

// Attrs returns the counters as structured log attributes.
func (s RunStatistics) Attrs() []slog.Attr {
	return []slog.Attr{
		slog.Int64("trades_detected", s.TradesDetected),
		slog.Int64("orders_submitted", s.OrdersSubmitted),
		slog.Int64("orders_succeeded", s.OrdersSucceeded),
		slog.Int64("orders_failed", s.OrdersFailed),
		slog.Int64("orders_suppressed", s.OrdersSuppressed),
	}
}
