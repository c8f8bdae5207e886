// internal/token/registry.go
package token

// Metadata describes a token well enough to render a position.
type Metadata struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

// Registry resolves token mint addresses to display metadata. Lookups that
// miss the known-token table resolve to an UNKNOWN placeholder instead of
// failing, so callers never need an error path.
type Registry struct {
	known map[string]Metadata
}

// NewRegistry builds a registry preloaded with the tokens the dashboard is
// expected to encounter on mainnet.
func NewRegistry() *Registry {
	return &Registry{known: map[string]Metadata{
		"So11111111111111111111111111111111111111112": {Symbol: "SOL", Name: "Wrapped SOL", Decimals: 9},
		"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": {Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": {Symbol: "USDT", Name: "Tether USD", Decimals: 6},
		"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": {Symbol: "BONK", Name: "Bonk", Decimals: 5},
		"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  {Symbol: "JUP", Name: "Jupiter", Decimals: 6},
		"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": {Symbol: "RAY", Name: "Raydium", Decimals: 6},
		"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  {Symbol: "mSOL", Name: "Marinade staked SOL", Decimals: 9},
		"J1toso1uCk3RLmjorhTtrVwY9HJ7X8V9yYac6Y7kGCPn": {Symbol: "JitoSOL", Name: "Jito Staked SOL", Decimals: 9},
		"EKpQGSJtjMFqKZ9KQanSqYXRcF8fBopzLHYxdM65zcjm": {Symbol: "WIF", Name: "dogwifhat", Decimals: 6},
		"HZ1JovNiVvGrGNiiYvEozEVgZ58xaU3RKwX8eACQBCt3": {Symbol: "PYTH", Name: "Pyth Network", Decimals: 6},
	}}
}

// Register adds or replaces a token entry. Mostly useful for tests and for
// wiring project-specific tokens at startup.
func (r *Registry) Register(mint string, md Metadata) {
	r.known[mint] = md
}

// Resolve returns metadata for a mint address. Unmapped mints resolve to
// the UNKNOWN placeholder with 6 decimals.
func (r *Registry) Resolve(mint string) Metadata {
	if md, ok := r.known[mint]; ok {
		return md
	}
	return Metadata{Symbol: "UNKNOWN", Name: "Unknown Token", Decimals: 6}
}
