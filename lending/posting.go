package lending

import "github.com/shopspring/decimal"

// PostingKind names a set of ledger deltas.
type PostingKind string

const (
	PostingOrderCreated          PostingKind = "order_created"
	PostingPrincipalReduced      PostingKind = "principal_reduced"
	PostingInterestRecorded      PostingKind = "interest_recorded"
	PostingOrderCompleted        PostingKind = "order_completed"
	PostingOrderBreached         PostingKind = "order_breached"
	PostingBreachPaymentRecorded PostingKind = "breach_payment_recorded"
	PostingBreachSettled         PostingKind = "breach_settled"
)

// Posting is an atomic set of field deltas applied to the global ledger and
// to the ledger of the order's classification.
type Posting struct {
	Kind   PostingKind
	Amount decimal.Decimal
	Delta  Ledger
}

// OrderCreated books a new loan of a to a customer of kind k.
func OrderCreated(a decimal.Decimal, k CustomerKind) Posting {
	d := Ledger{
		ValidOrders: 1,
		ValidAmount: a,
		LiquidFunds: a.Neg(),
	}
	if k == KindNew {
		d.NewClients = 1
		d.NewClientsAmount = a
	} else {
		d.ReturningClients = 1
		d.ReturningClientsAmount = a
	}
	return Posting{Kind: PostingOrderCreated, Amount: a, Delta: d}
}

// PrincipalReduced books a partial repayment of principal.
func PrincipalReduced(a decimal.Decimal) Posting {
	return Posting{Kind: PostingPrincipalReduced, Amount: a, Delta: Ledger{
		ValidAmount:     a.Neg(),
		CompletedAmount: a,
		LiquidFunds:     a,
	}}
}

// InterestRecorded books a flat manual interest inflow.
func InterestRecorded(a decimal.Decimal) Posting {
	return Posting{Kind: PostingInterestRecorded, Amount: a, Delta: Ledger{
		Interest:    a,
		LiquidFunds: a,
	}}
}

// OrderCompleted books the repayment of the remaining principal a.
func OrderCompleted(a decimal.Decimal) Posting {
	return Posting{Kind: PostingOrderCompleted, Amount: a, Delta: Ledger{
		ValidOrders:     -1,
		ValidAmount:     a.Neg(),
		CompletedOrders: 1,
		CompletedAmount: a,
		LiquidFunds:     a,
	}}
}

// OrderBreached moves the remaining principal a from valid to breach.
func OrderBreached(a decimal.Decimal) Posting {
	return Posting{Kind: PostingOrderBreached, Amount: a, Delta: Ledger{
		ValidOrders:  -1,
		ValidAmount:  a.Neg(),
		BreachOrders: 1,
		BreachAmount: a,
	}}
}

// BreachPaymentRecorded books a negotiated payment on a breached order.
func BreachPaymentRecorded(a decimal.Decimal) Posting {
	return Posting{Kind: PostingBreachPaymentRecorded, Amount: a, Delta: Ledger{
		BreachEndAmount: a,
		LiquidFunds:     a,
	}}
}

// BreachSettled closes a breached order.
func BreachSettled() Posting {
	return Posting{Kind: PostingBreachSettled, Delta: Ledger{
		BreachEndOrders: 1,
	}}
}
