package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/m3rciful/scriptsbot/core/logger"
	"github.com/m3rciful/scriptsbot/internal/storage"
)

// flexID accepts a Telegram user id sent either as a JSON number or as a
// string; the download page is not consistent about it.
type flexID int64

func (f *flexID) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return err
	}
	*f = flexID(v)
	return nil
}

type verifyRequest struct {
	ScriptID string `json:"scriptId"`
	TgID     flexID `json:"tgId"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleVerify gates script delivery: it resolves the entry, pushes exactly
// one chat message with the final link, and appends one download record.
func handleVerify(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required fields"})
			return
		}
		if req.ScriptID == "" || req.TgID == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing required fields"})
			return
		}

		script, err := d.Scripts.GetByID(ctx, req.ScriptID)
		if errors.Is(err, storage.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "Script not found"})
			return
		}
		if err != nil {
			logger.Error(ctx, "http", "verify",
				slog.String("status", "fail"),
				slog.String("script_id", req.ScriptID),
				slog.String("err", err.Error()),
			)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
			return
		}

		userID := int64(req.TgID)
		if err := d.Sender.SendScriptLink(ctx, userID, script); err != nil {
			logger.Error(ctx, "http", "verify",
				slog.String("status", "fail"),
				slog.String("script_id", script.ID),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
			return
		}

		if err := d.Downloads.RecordDownload(ctx, script, userID); err != nil {
			// The link is already out; the lost record is logged, not retried.
			logger.Error(ctx, "http", "verify",
				slog.String("status", "fail"),
				slog.String("script_id", script.ID),
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()),
			)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
			return
		}

		logger.Info(ctx, "http", "verify",
			slog.String("status", "ok"),
			slog.String("script_id", script.ID),
			slog.Int64("user_id", userID),
		)
		writeJSON(w, http.StatusOK, verifyResponse{
			Success: true,
			Message: "Link sent to the user",
		})
	}
}
