package domain

// OrderKind is the time-in-force for a copy order.
type OrderKind string

const (
	OrderKindFOK OrderKind = "FOK" // Fill-Or-Kill
	OrderKindFAK OrderKind = "FAK" // Fill-And-Kill
	OrderKindGTC OrderKind = "GTC" // Good-Till-Cancelled (auto-cancelled after a timeout)
)

// CopyInstruction is the sizing engine's decision for a single observed
// trade: what to submit on the operator's account.
type CopyInstruction struct {
	SourceTrade TradeRecord
	MarketID    string
	TokenID     string
	Side        OrderSide
	SizeUSDC    float64 // order notional in USDC
	Kind        OrderKind
	LimitPrice  float64 // set for FOK and GTC; 0 for FAK (marketable)
	Reason      string  // human-readable sizing note for logs
}

// OutcomeStatus classifies the result of an order submission.
type OutcomeStatus string

const (
	// OutcomeAccepted means the exchange acknowledged the order (or dry-run
	// short-circuited it).
	OutcomeAccepted OutcomeStatus = "accepted"
	// OutcomeRejected means the exchange refused the order; retrying with
	// the same parameters cannot succeed.
	OutcomeRejected OutcomeStatus = "rejected"
	// OutcomeTransient means the submission failed for reasons unrelated to
	// the order itself (network, 5xx, rate limit) after retries were
	// exhausted.
	OutcomeTransient OutcomeStatus = "transient_failure"
)

// OrderOutcome is the terminal result of submitting one CopyInstruction.
type OrderOutcome struct {
	Status   OutcomeStatus
	OrderID  string // set when accepted
	Message  string
	Attempts int
}

// Accepted reports whether the order was acknowledged by the exchange.
func (o OrderOutcome) Accepted() bool {
	return o.Status == OutcomeAccepted
}
