package helpers

import (
	"log/slog"

	"github.com/m3rciful/lendbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// SendText sends raw text (no parse mode) to the current chat.
// Sends are synchronous so replies in one chat keep the order of the commands
// that produced them. Transport retries live in the bot's HTTP client.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var err error
	if len(opts) > 0 && opts[0] != nil {
		err = c.Send(text, opts[0])
	} else {
		err = c.Send(text)
	}
	if err != nil {
		logger.Warn(BuildContext(c), "tg.sender", "send.text",
			slog.String("status", "fail"),
			slog.String("endpoint", "sendMessage"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	return err
}
