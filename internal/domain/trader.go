package domain

import "strings"

// TraderProfile describes one watched account from the trader policy file.
// Profiles are immutable after load; the address is the identity.
type TraderProfile struct {
	Address         string // lower-cased 0x hex
	Nickname        string
	Enabled         bool
	CopyBuys        bool
	CopySells       bool
	MaxPositionSize float64 // per-trade USDC cap, 0 = unlimited
	Notes           string
}

// DisplayName returns the nickname when set, otherwise a shortened address.
func (t TraderProfile) DisplayName() string {
	if t.Nickname != "" {
		return t.Nickname
	}
	if len(t.Address) > 10 {
		return t.Address[:6] + ".." + t.Address[len(t.Address)-4:]
	}
	return t.Address
}

// NormalizeAddress lower-cases a wallet address for use as a map key.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
