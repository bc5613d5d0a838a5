package bot

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptsbot/core/telegram/format"
	"github.com/m3rciful/scriptsbot/internal/domain"
)

// Notifier pushes delivery messages to users outside of any update cycle,
// on behalf of the HTTP verification endpoint.
type Notifier struct {
	bot *tele.Bot
}

// NewNotifier wraps the running bot.
func NewNotifier(bot *tele.Bot) *Notifier {
	return &Notifier{bot: bot}
}

// SendScriptLink sends exactly one message carrying the final link.
func (n *Notifier) SendScriptLink(_ context.Context, userID int64, s domain.Script) error {
	esc := func(v string) string {
		out, err := format.EscapeMarkdown(v, format.MarkdownV1, "")
		if err != nil {
			return v
		}
		return out
	}
	text := "✅ *Script activated*\n\n" +
		fmt.Sprintf("📌 *%s*\n\n", esc(s.Name)) +
		fmt.Sprintf("🔗 Your download link:\n%s", s.FinalLink)
	_, err := n.bot.Send(&tele.User{ID: userID}, text, &tele.SendOptions{
		ParseMode: tele.ModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("send script link: %w", err)
	}
	return nil
}
