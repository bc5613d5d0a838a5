package httpserver

import (
	"context"

	"github.com/m3rciful/scriptsbot/internal/domain"
)

// ScriptSource resolves catalog entries by id.
type ScriptSource interface {
	GetByID(ctx context.Context, id string) (domain.Script, error)
}

// DownloadRecorder appends one delivery-log record per verified download.
type DownloadRecorder interface {
	RecordDownload(ctx context.Context, s domain.Script, userID int64) error
}

// LinkSender delivers the final link to the user over chat.
type LinkSender interface {
	SendScriptLink(ctx context.Context, userID int64, s domain.Script) error
}

// Deps bundles everything the HTTP handlers need.
type Deps struct {
	Scripts   ScriptSource
	Downloads DownloadRecorder
	Sender    LinkSender
}
