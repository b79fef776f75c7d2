// Package traders loads the JSON trader policy file into an immutable
// snapshot of watched accounts.
package traders

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/domain"
)

// fileFormat is the on-disk JSON shape.
type fileFormat struct {
	Traders []fileTrader `json:"traders"`
}

type fileTrader struct {
	Address         string  `json:"address"`
	Nickname        string  `json:"nickname"`
	Enabled         bool    `json:"enabled"`
	CopyBuys        bool    `json:"copy_buys"`
	CopySells       bool    `json:"copy_sells"`
	MaxPositionSize float64 `json:"max_position_size"`
	Notes           string  `json:"notes"`
}

// Snapshot is an immutable view of the trader policy file. All lookups are
// by normalized (lower-case) address.
type Snapshot struct {
	profiles []domain.TraderProfile
	byAddr   map[string]domain.TraderProfile
}

// Load reads and validates the trader policy file at path. A missing file is
// a fatal configuration error; callers wanting a starter file should use
// WriteTemplate first.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("traders: reading %s: %w", path, err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("traders: parsing %s: %w", path, err)
	}
	if len(ff.Traders) == 0 {
		return nil, fmt.Errorf("traders: %w: %s lists no traders", domain.ErrTraderConfig, path)
	}

	snap := &Snapshot{
		byAddr: make(map[string]domain.TraderProfile, len(ff.Traders)),
	}

	for i, ft := range ff.Traders {
		addr := domain.NormalizeAddress(ft.Address)
		if !strings.HasPrefix(addr, "0x") || len(addr) != 42 {
			return nil, fmt.Errorf("traders: %w: entry %d has invalid address %q", domain.ErrTraderConfig, i, ft.Address)
		}
		if _, dup := snap.byAddr[addr]; dup {
			return nil, fmt.Errorf("traders: %w: duplicate address %s", domain.ErrTraderConfig, addr)
		}
		if ft.MaxPositionSize < 0 {
			return nil, fmt.Errorf("traders: %w: entry %d has negative max_position_size", domain.ErrTraderConfig, i)
		}

		p := domain.TraderProfile{
			Address:         addr,
			Nickname:        ft.Nickname,
			Enabled:         ft.Enabled,
			CopyBuys:        ft.CopyBuys,
			CopySells:       ft.CopySells,
			MaxPositionSize: ft.MaxPositionSize,
			Notes:           ft.Notes,
		}
		snap.profiles = append(snap.profiles, p)
		snap.byAddr[addr] = p
	}

	return snap, nil
}

// All returns every profile in file order. The returned slice must not be
// mutated.
func (s *Snapshot) All() []domain.TraderProfile {
	return s.profiles
}

// Enabled returns the enabled profiles in file order.
func (s *Snapshot) Enabled() []domain.TraderProfile {
	out := make([]domain.TraderProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// Lookup returns the profile for a wallet address (any casing).
func (s *Snapshot) Lookup(address string) (domain.TraderProfile, bool) {
	p, ok := s.byAddr[domain.NormalizeAddress(address)]
	return p, ok
}

// Len returns the number of profiles in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.profiles)
}

// WriteTemplate creates a starter policy file at path with one disabled
// example entry. It refuses to overwrite an existing file.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("traders: %s already exists", path)
	}

	template := fileFormat{
		Traders: []fileTrader{
			{
				Address:         "0x0000000000000000000000000000000000000000",
				Nickname:        "example-trader",
				Enabled:         false,
				CopyBuys:        true,
				CopySells:       true,
				MaxPositionSize: 100,
				Notes:           "Find traders on polymarket.com/leaderboard",
			},
		},
	}

	data, err := json.MarshalIndent(template, "", "  ")
	if err != nil {
		return fmt.Errorf("traders: encoding template: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("traders: writing template: %w", err)
	}
	return nil
}
