// Package report renders ledger snapshots and orders into reply text.
package report

import (
	"fmt"
	"strings"

	"github.com/m3rciful/lendbot/lending"
	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04:05"

func money(d decimal.Decimal) string { return d.StringFixed(2) }

type line struct {
	label string
	value string
}

func render(title string, lines []line) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", title)
	for _, l := range lines {
		fmt.Fprintf(&b, "%s: %s\n", l.label, l.value)
	}
	return b.String()
}

func ledgerLines(l lending.Ledger, withLiquid bool) []line {
	lines := []line{
		{"Valid orders", fmt.Sprint(l.ValidOrders)},
		{"Valid amount", money(l.ValidAmount)},
	}
	if withLiquid {
		lines = append(lines, line{"Liquid funds", money(l.LiquidFunds)})
	}
	return append(lines,
		line{"New clients", fmt.Sprint(l.NewClients)},
		line{"New clients amount", money(l.NewClientsAmount)},
		line{"Returning clients", fmt.Sprint(l.ReturningClients)},
		line{"Returning clients amount", money(l.ReturningClientsAmount)},
		line{"Interest", money(l.Interest)},
		line{"Completed orders", fmt.Sprint(l.CompletedOrders)},
		line{"Completed amount", money(l.CompletedAmount)},
		line{"Breach orders", fmt.Sprint(l.BreachOrders)},
		line{"Breach amount", money(l.BreachAmount)},
		line{"Breach settled orders", fmt.Sprint(l.BreachEndOrders)},
		line{"Breach settled amount", money(l.BreachEndAmount)},
	)
}

// Global renders the global ledger, liquid funds included.
func Global(l lending.Ledger) string {
	return render("Global report", ledgerLines(l, true))
}

// Classification renders the ledger of one classification. Liquid funds are
// tracked globally only and are omitted.
func Classification(id lending.ClassificationID, l lending.Ledger) string {
	return render(fmt.Sprintf("Report for %s", id), ledgerLines(l, false))
}

// Order renders the card of an order.
func Order(o lending.Order) string {
	lines := []line{
		{"Order ID", o.ID},
		{"Classification", o.Classification.String()},
		{"Created", o.CreatedAt.Format(timeLayout)},
		{"Group", o.Weekday},
		{"Customer", o.Kind.Code()},
		{"Principal", money(o.Principal)},
	}
	if !o.Recovered.IsZero() {
		lines = append(lines, line{"Recovered", money(o.Recovered)})
	}
	lines = append(lines, line{"State", string(o.State)})
	return render("Order", lines)
}

// Created confirms a new order.
func Created(o lending.Order) string {
	return "Order created\n" + Order(o)
}

// StateChanged confirms a transition without ledger effect.
func StateChanged(o lending.Order) string {
	return fmt.Sprintf("Order %s is now %s", o.ID, o.State)
}

// Ended confirms a completed order.
func Ended(o lending.Order) string {
	return fmt.Sprintf("Order %s completed\nCompleted amount: %s", o.ID, money(o.Principal))
}

// Breached confirms an order marked as breach.
func Breached(o lending.Order) string {
	return fmt.Sprintf("Order %s marked as breach\nBreach amount: %s", o.ID, money(o.Principal))
}

// BreachEnded confirms a settled breach.
func BreachEnded(o lending.Order) string {
	return fmt.Sprintf("Breached order %s settled\nState: %s", o.ID, o.State)
}

// PrincipalReduced confirms a principal reduction.
func PrincipalReduced(o lending.Order, amount decimal.Decimal) string {
	return fmt.Sprintf("Principal reduced\nOrder ID: %s\nAmount: %s\nRemaining: %s",
		o.ID, money(amount), money(o.Principal))
}

// BreachPayment confirms a negotiated breach payment.
func BreachPayment(o lending.Order, amount decimal.Decimal) string {
	return fmt.Sprintf("Breach payment recorded\nOrder ID: %s\nAmount: %s\nOutstanding: %s",
		o.ID, money(amount), money(o.Outstanding()))
}

// Interest confirms an interest entry together with the global interest total.
func Interest(amount, total decimal.Decimal) string {
	return fmt.Sprintf("Interest recorded\nAmount: %s\nTotal interest: %s", money(amount), money(total))
}
