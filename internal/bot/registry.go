package bot

import (
	tg "github.com/m3rciful/scriptsbot/core/telegram"
	"github.com/m3rciful/scriptsbot/core/telegram/commands"
	"github.com/m3rciful/scriptsbot/core/telegram/helpers"
	"github.com/m3rciful/scriptsbot/internal/conversation"

	tele "gopkg.in/telebot.v4"
)

// BuildRegistry registers every command and callback of the catalog bot.
func BuildRegistry(h *Handlers) *tg.Registry {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.start,
		Description: "Welcome and command overview",
	})
	reg.RegisterCommand("/scripts", commands.Command{
		Handler:     h.scripts,
		Description: "Browse available scripts",
	})
	reg.RegisterCommand("/search", commands.Command{
		Handler:     h.search,
		Description: "Search scripts by name or description",
	})
	reg.RegisterCommand("/add", commands.Command{
		Handler:     h.add,
		Description: "Add a new script",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/edit", commands.Command{
		Handler:     h.edit,
		Description: "Edit scripts by name",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/delete", commands.Command{
		Handler:     h.delete,
		Description: "Delete scripts by name",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     h.stats,
		Description: "Catalog statistics",
		AdminOnly:   true,
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     h.cancel,
		Description: "Abort the current add",
	})

	_ = reg.RegisterCallback(conversation.CBScript, h.scriptDetails)
	_ = reg.RegisterCallback(conversation.CBPageNext, h.paginate)
	_ = reg.RegisterCallback(conversation.CBPagePrev, h.paginate)
	_ = reg.RegisterCallback(conversation.CBEdit, h.editHint)
	_ = reg.RegisterCallback(conversation.CBDelete, h.requestDelete)
	_ = reg.RegisterCallback(conversation.CBConfirmDelete, h.confirmDelete)
	_ = reg.RegisterCallback(conversation.CBCancelDelete, h.cancelDelete)
	_ = reg.RegisterCallback(conversation.CBConfirmAdd, h.confirmAdd)
	_ = reg.RegisterCallback(conversation.CBCancelAdd, h.cancelAdd)

	reg.SetTextFallback(func(c tele.Context) error {
		return helpers.SendText(c, "🤔 I did not get that, try /start.")
	})

	return reg
}
