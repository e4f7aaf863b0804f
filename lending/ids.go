package lending

import "fmt"

// OrderIDGenerator hands out zero-padded sequential order ids.
// It is not safe for concurrent use; Book calls it under its write lock.
type OrderIDGenerator struct {
	last uint64
}

// Next allocates the next id. Ids wider than four digits keep growing
// rather than wrapping, so they stay unique for the process lifetime.
func (g *OrderIDGenerator) Next() string {
	g.last++
	return fmt.Sprintf("%04d", g.last)
}

// Issued reports how many ids have been handed out.
func (g *OrderIDGenerator) Issued() uint64 { return g.last }
