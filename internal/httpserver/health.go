package httpserver

import (
	"net/http"
	"time"

	"github.com/m3rciful/scriptsbot/core/buildinfo"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Commit:    buildinfo.Commit,
		BuildTime: buildinfo.Date,
	})
}
