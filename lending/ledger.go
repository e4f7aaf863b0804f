package lending

import "github.com/shopspring/decimal"

// Ledger aggregates the financial statistics of a set of orders.
// LiquidFunds is tracked on the global ledger only and stays zero on
// classification ledgers.
type Ledger struct {
	ValidOrders            int64
	ValidAmount            decimal.Decimal
	LiquidFunds            decimal.Decimal
	NewClients             int64
	NewClientsAmount       decimal.Decimal
	ReturningClients       int64
	ReturningClientsAmount decimal.Decimal
	Interest               decimal.Decimal
	CompletedOrders        int64
	CompletedAmount        decimal.Decimal
	BreachOrders           int64
	BreachAmount           decimal.Decimal
	BreachEndOrders        int64
	BreachEndAmount        decimal.Decimal
}

// apply adds delta field by field. LiquidFunds is added only when withLiquid is set.
func (l *Ledger) apply(delta Ledger, withLiquid bool) {
	l.ValidOrders += delta.ValidOrders
	l.ValidAmount = l.ValidAmount.Add(delta.ValidAmount)
	if withLiquid {
		l.LiquidFunds = l.LiquidFunds.Add(delta.LiquidFunds)
	}
	l.NewClients += delta.NewClients
	l.NewClientsAmount = l.NewClientsAmount.Add(delta.NewClientsAmount)
	l.ReturningClients += delta.ReturningClients
	l.ReturningClientsAmount = l.ReturningClientsAmount.Add(delta.ReturningClientsAmount)
	l.Interest = l.Interest.Add(delta.Interest)
	l.CompletedOrders += delta.CompletedOrders
	l.CompletedAmount = l.CompletedAmount.Add(delta.CompletedAmount)
	l.BreachOrders += delta.BreachOrders
	l.BreachAmount = l.BreachAmount.Add(delta.BreachAmount)
	l.BreachEndOrders += delta.BreachEndOrders
	l.BreachEndAmount = l.BreachEndAmount.Add(delta.BreachEndAmount)
}

// equalShared compares every field except LiquidFunds.
func (l Ledger) equalShared(o Ledger) bool {
	return l.ValidOrders == o.ValidOrders &&
		l.ValidAmount.Equal(o.ValidAmount) &&
		l.NewClients == o.NewClients &&
		l.NewClientsAmount.Equal(o.NewClientsAmount) &&
		l.ReturningClients == o.ReturningClients &&
		l.ReturningClientsAmount.Equal(o.ReturningClientsAmount) &&
		l.Interest.Equal(o.Interest) &&
		l.CompletedOrders == o.CompletedOrders &&
		l.CompletedAmount.Equal(o.CompletedAmount) &&
		l.BreachOrders == o.BreachOrders &&
		l.BreachAmount.Equal(o.BreachAmount) &&
		l.BreachEndOrders == o.BreachEndOrders &&
		l.BreachEndAmount.Equal(o.BreachEndAmount)
}
