package collector

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/newthinker/kachi/internal/core"
)

// validSymbol matches tickers like AAPL, BRK.B, BRK-B, 7203.T
var validSymbol = regexp.MustCompile(`^[A-Z0-9]{1,10}([.-][A-Z0-9]{1,4})?$`)

// NormalizeSymbol trims and uppercases a ticker and checks its format.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", core.WrapError(core.ErrInvalidRequest, fmt.Errorf("symbol cannot be empty"))
	}
	if !validSymbol.MatchString(s) {
		return "", core.WrapError(core.ErrInvalidRequest, fmt.Errorf("invalid symbol format: %s", symbol))
	}
	return s, nil
}

// NormalizeSymbols normalizes a list, dropping invalid entries and duplicates while keeping order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, raw := range symbols {
		s, err := NormalizeSymbol(raw)
		if err != nil {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SplitSymbols splits a comma separated symbol list and normalizes it.
func SplitSymbols(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	return NormalizeSymbols(strings.Split(csv, ","))
}
