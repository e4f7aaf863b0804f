package bot

import "strings"

// EntryKind classifies a quick amount entry typed into a group chat.
type EntryKind int

const (
	// EntryInterest is "+N".
	EntryInterest EntryKind = iota + 1
	// EntryPrincipal is "+Nb".
	EntryPrincipal
	// EntryBreachPayment is "+Nc".
	EntryBreachPayment
)

// String returns the handler name used in logs.
func (k EntryKind) String() string {
	switch k {
	case EntryInterest:
		return "interest"
	case EntryPrincipal:
		return "principal_reduction"
	case EntryBreachPayment:
		return "breach_payment"
	}
	return "unknown"
}

// ParseQuickEntry splits a "+<amount>[b|c]" message into its kind and amount text.
// ok is false for text that is not a quick entry; such text is ignored by the bot.
// The amount text is returned unvalidated so the book reports amount errors in its
// usual order.
func ParseQuickEntry(text string) (kind EntryKind, amountText string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "+") {
		return 0, "", false
	}
	body := strings.TrimSpace(text[1:])
	switch {
	case strings.HasSuffix(body, "b"), strings.HasSuffix(body, "B"):
		return EntryPrincipal, strings.TrimSpace(body[:len(body)-1]), true
	case strings.HasSuffix(body, "c"), strings.HasSuffix(body, "C"):
		return EntryBreachPayment, strings.TrimSpace(body[:len(body)-1]), true
	}
	return EntryInterest, body, true
}
