package entity

import "strings"

// Provider names a transport backend. The zero value means "not requested".
type Provider string

const (
	ProviderNone     Provider = ""
	ProviderRelay    Provider = "relay"
	ProviderExchange Provider = "exchange"
)

// ProviderFromString parses raw case-insensitively. The second result is
// false for anything other than a known provider or an empty string.
func ProviderFromString(raw string) (Provider, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return ProviderNone, true
	case "relay":
		return ProviderRelay, true
	case "exchange":
		return ProviderExchange, true
	default:
		return ProviderNone, false
	}
}

func (p Provider) String() string {
	if p == ProviderNone {
		return "none"
	}
	return string(p)
}

// IsSet reports whether a provider was named.
func (p Provider) IsSet() bool {
	return p != ProviderNone
}
