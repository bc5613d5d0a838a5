package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptsbot/core/telegram/helpers"
	"github.com/m3rciful/scriptsbot/core/telegram/router"
	"github.com/m3rciful/scriptsbot/internal/conversation"
)

// workflowFSM adapts the conversation controller to the text router's
// workflow interface.
type workflowFSM struct {
	ctrl *conversation.Controller
}

// NewFSM returns the free-text adapter for the add workflow.
func NewFSM(ctrl *conversation.Controller) router.FSM {
	return workflowFSM{ctrl: ctrl}
}

func (f workflowFSM) InProgress(userID int64) bool {
	return f.ctrl.InProgress(userID)
}

func (f workflowFSM) HandleText(c tele.Context) error {
	rep, handled := f.ctrl.HandleText(helpers.BuildContext(c), c.Sender().ID, c.Text())
	if !handled {
		return nil
	}
	return helpers.SendMD(c, rep.Text, rep.Markup)
}
