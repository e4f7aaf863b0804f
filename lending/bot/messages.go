package bot

import (
	"errors"

	"github.com/m3rciful/lendbot/lending"
)

const (
	msgHelp = "Lending bot\n\n" +
		"/create <id> <A|B> <amount> - open an order in this chat\n" +
		"/order - show the current order\n" +
		"/normal, /overdue - toggle overdue state\n" +
		"/end - complete the order\n" +
		"/breach, /breach_end - mark and settle a breach\n" +
		"/history - recent journal entries of this chat\n" +
		"/report [id] - global or classification report (private chat)\n\n" +
		"Quick entries: +N interest, +Nb principal reduction, +Nc breach payment"
	msgCreateUsage    = "Usage: /create <id> <A|B> <amount>"
	msgAdminOnly      = "⚠️ This command requires admin rights"
	msgPrivateOnly    = "⚠️ This command is only available in a private chat"
	msgNoOrder        = "There is no order in this chat"
	msgJournalOff     = "Journal is not configured"
	msgJournalEmpty   = "No journal entries for this chat"
	msgJournalFailure = "Journal is unavailable, try again later"
	msgUnexpected     = "Something went wrong, try again later"
)

// userMessage maps a book error to the reply shown in chat.
func userMessage(op lending.Operation, err error) string {
	switch {
	case errors.Is(err, lending.ErrSlotOccupied):
		return "This chat already has an order; complete or breach it before creating a new one"
	case errors.Is(err, lending.ErrInvalidClassificationID):
		return "Invalid classification id, expected one letter and two digits (e.g. S01)"
	case errors.Is(err, lending.ErrInvalidCustomerKind):
		return "Invalid customer kind, expected A or B"
	case errors.Is(err, lending.ErrUnknownSlot):
		return msgNoOrder
	case errors.Is(err, lending.ErrUnknownClassification):
		return "No data for this classification"
	case errors.Is(err, lending.ErrInvalidAmount):
		if op == lending.OpPrincipalReduction {
			return "Invalid amount, it must be positive and not exceed the principal"
		}
		return "Invalid amount, it must be a positive number"
	case errors.Is(err, lending.ErrInvalidStateTransition):
		return transitionMessage(op)
	}
	return msgUnexpected
}

func transitionMessage(op lending.Operation) string {
	switch op {
	case lending.OpMarkOverdue:
		return "Only a normal order can become overdue"
	case lending.OpMarkNormal:
		return "Only an overdue order can return to normal"
	case lending.OpMarkEnded:
		return "Only a normal or overdue order can be completed"
	case lending.OpMarkBreach:
		return "Only an overdue order can be marked as breach"
	case lending.OpMarkBreachEnded:
		return "Only a breached order can be settled"
	case lending.OpPrincipalReduction:
		return "The current order state does not allow a principal reduction"
	case lending.OpInterest:
		return "The current order state does not allow interest entries"
	case lending.OpBreachPayment:
		return "Only a breached order accepts negotiated payments"
	}
	return "The current order state does not allow this operation"
}
