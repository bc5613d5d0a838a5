// Package bot wires the conversation controller to telebot: command and
// callback handlers, the free-text workflow adapter, and the outbound
// notifier used by the delivery gate.
package bot

import (
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/scriptsbot/core/config"
	"github.com/m3rciful/scriptsbot/core/telegram/callbacks"
	"github.com/m3rciful/scriptsbot/core/telegram/helpers"
	"github.com/m3rciful/scriptsbot/internal/conversation"
	"github.com/m3rciful/scriptsbot/internal/session"
)

// Handlers binds the controller to incoming updates.
type Handlers struct {
	ctrl *conversation.Controller
	tg   coreconfig.TelegramConfig
}

// NewHandlers builds the handler set.
func NewHandlers(ctrl *conversation.Controller, tg coreconfig.TelegramConfig) *Handlers {
	return &Handlers{ctrl: ctrl, tg: tg}
}

func (h *Handlers) send(c tele.Context, rep conversation.Reply) error {
	return helpers.SendMD(c, rep.Text, rep.Markup)
}

func (h *Handlers) start(c tele.Context) error {
	return h.send(c, h.ctrl.Start(h.tg.IsAdmin(c.Sender().ID)))
}

// scripts sends the listing synchronously so the message id is known before
// the pagination session is bound to it.
func (h *Handlers) scripts(c tele.Context) error {
	_ = c.Notify(tele.Typing)

	ctx := helpers.BuildContext(c)
	snapshot, err := h.ctrl.Browse(ctx)
	if err != nil {
		_ = helpers.SendText(c, "❌ Something went wrong while fetching scripts, try again.")
		return err
	}

	rep := h.ctrl.ListingReply(snapshot)
	if rep.Markup == nil {
		return h.send(c, rep)
	}
	msg, err := c.Bot().Send(c.Chat(), rep.Text, &tele.SendOptions{
		ParseMode:   tele.ModeMarkdown,
		ReplyMarkup: rep.Markup,
	})
	if err != nil {
		return err
	}
	h.ctrl.BindListing(c.Chat().ID, msg.ID, snapshot)
	return nil
}

func (h *Handlers) search(c tele.Context) error {
	rep, err := h.ctrl.Search(helpers.BuildContext(c), c.Message().Payload)
	if sendErr := h.send(c, rep); sendErr != nil {
		return sendErr
	}
	return err
}

func (h *Handlers) add(c tele.Context) error {
	return h.send(c, h.ctrl.StartAdd(c.Sender().ID, c.Chat().ID))
}

func (h *Handlers) edit(c tele.Context) error {
	rep, err := h.ctrl.EditByName(helpers.BuildContext(c), c.Message().Payload)
	if sendErr := h.send(c, rep); sendErr != nil {
		return sendErr
	}
	return err
}

func (h *Handlers) delete(c tele.Context) error {
	rep, err := h.ctrl.DeleteByName(helpers.BuildContext(c), c.Message().Payload)
	if sendErr := h.send(c, rep); sendErr != nil {
		return sendErr
	}
	return err
}

func (h *Handlers) stats(c tele.Context) error {
	rep, err := h.ctrl.StatsReply(helpers.BuildContext(c))
	if sendErr := h.send(c, rep); sendErr != nil {
		return sendErr
	}
	return err
}

func (h *Handlers) cancel(c tele.Context) error {
	return h.send(c, h.ctrl.Cancel(c.Sender().ID))
}

func (h *Handlers) scriptDetails(c tele.Context) error {
	id := callbacks.CallbackPayload(c)
	viewer := c.Sender().ID
	rep, found, err := h.ctrl.ScriptDetails(helpers.BuildContext(c), id, viewer, h.tg.IsAdmin(viewer))
	if !found {
		return c.Respond(&tele.CallbackResponse{Text: conversation.NoticeScriptMissing})
	}
	_ = c.Respond()
	if sendErr := h.send(c, rep); sendErr != nil {
		return sendErr
	}
	return err
}

// paginate re-renders only the inline keyboard of the listing the button
// belongs to; the session is keyed by that exact message.
func (h *Handlers) paginate(c tele.Context) error {
	target, err := callbacks.PayloadInt(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: conversation.NoticeExpired})
	}
	key := session.PageKey{ChatID: c.Chat().ID, MessageID: c.Message().ID}
	upd := h.ctrl.Paginate(key, target)
	if upd.Notice != "" {
		return c.Respond(&tele.CallbackResponse{Text: upd.Notice})
	}
	_ = c.Respond()
	return c.Edit(upd.Markup)
}

func (h *Handlers) editHint(c tele.Context) error {
	if !h.tg.IsAdmin(c.Sender().ID) {
		return c.Respond(&tele.CallbackResponse{Text: "Not allowed"})
	}
	rep, found, err := h.ctrl.EditHint(helpers.BuildContext(c), callbacks.CallbackPayload(c))
	if !found {
		return c.Respond(&tele.CallbackResponse{Text: conversation.NoticeScriptMissing})
	}
	_ = c.Respond()
	if sendErr := h.send(c, rep); sendErr != nil {
		return sendErr
	}
	return err
}

func (h *Handlers) requestDelete(c tele.Context) error {
	if !h.tg.IsAdmin(c.Sender().ID) {
		return c.Respond(&tele.CallbackResponse{Text: "Not allowed"})
	}
	rep, found, err := h.ctrl.RequestDelete(helpers.BuildContext(c), callbacks.CallbackPayload(c))
	if !found {
		return c.Respond(&tele.CallbackResponse{Text: conversation.NoticeScriptMissing})
	}
	_ = c.Respond()
	if sendErr := h.send(c, rep); sendErr != nil {
		return sendErr
	}
	return err
}

func (h *Handlers) confirmDelete(c tele.Context) error {
	if !h.tg.IsAdmin(c.Sender().ID) {
		return c.Respond(&tele.CallbackResponse{Text: "Not allowed"})
	}
	rep, err := h.ctrl.ConfirmDelete(helpers.BuildContext(c), callbacks.CallbackPayload(c))
	_ = c.Respond()
	if sendErr := h.send(c, rep); sendErr != nil {
		return sendErr
	}
	return err
}

func (h *Handlers) cancelDelete(c tele.Context) error {
	_ = c.Delete()
	return c.Respond(&tele.CallbackResponse{Text: conversation.NoticeCancelled})
}

// ownsAddSession checks that the pressing user is the one the confirmation
// keyboard was rendered for.
func ownsAddSession(c tele.Context) bool {
	owner, err := callbacks.PayloadInt64(c)
	return err == nil && owner == c.Sender().ID
}

func (h *Handlers) confirmAdd(c tele.Context) error {
	if !ownsAddSession(c) {
		return c.Respond(&tele.CallbackResponse{Text: "This is not your session"})
	}
	rep, err := h.ctrl.ConfirmAdd(helpers.BuildContext(c), c.Sender().ID)
	_ = c.Respond()
	if sendErr := h.send(c, rep); sendErr != nil {
		return sendErr
	}
	return err
}

func (h *Handlers) cancelAdd(c tele.Context) error {
	if !ownsAddSession(c) {
		return c.Respond(&tele.CallbackResponse{Text: "This is not your session"})
	}
	_ = c.Respond()
	return h.send(c, h.ctrl.CancelAdd(c.Sender().ID))
}

func (h *Handlers) rejectNonAdmin(c tele.Context) error {
	return helpers.SendText(c, "❌ You are not allowed to do that.")
}

// AdminIDs exposes the allow-list for router options.
func (h *Handlers) AdminIDs() []int64 {
	return h.tg.Admins
}

// OnAdminReject is the denial handler used by the command router.
func (h *Handlers) OnAdminReject() tele.HandlerFunc {
	return h.rejectNonAdmin
}
