// Package keyboard builds inline keyboards from plain button descriptions.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is an inline button routed by Unique with an optional payload.
type Button struct {
	Text   string
	Unique string
	Data   string
}

// Grid lays buttons out left to right, perRow per line; perRow < 1 means one per line.
func Grid(buttons []Button, perRow int) *tele.ReplyMarkup {
	perRow = max(perRow, 1)
	markup := &tele.ReplyMarkup{}
	for len(buttons) > 0 {
		n := min(perRow, len(buttons))
		row := make([]tele.InlineButton, n)
		for i, b := range buttons[:n] {
			row[i] = *markup.Data(b.Text, b.Unique, b.Data).Inline()
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, row)
		buttons = buttons[n:]
	}
	return markup
}
