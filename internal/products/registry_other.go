//go:build !windows

package products

// HostSources returns the product sources available on this platform
func HostSources(ledger *Ledger) []Source {
	return []Source{ledger}
}
