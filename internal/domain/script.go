package domain

import (
	"net/url"
	"strings"
	"time"
)

// Script is a catalog entry delivered through the download page.
type Script struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	FinalLink   string    `db:"final_link" json:"finalLink"`
	Created     time.Time `db:"created" json:"created"`
	AddedBy     int64     `db:"added_by" json:"addedBy"`
}

// Draft accumulates add-workflow input before the entry is persisted.
type Draft struct {
	Name        string
	Description string
	FinalLink   string
}

// ScriptUpdate describes a partial update applied to name-matched entries.
// Nil fields are left untouched.
type ScriptUpdate struct {
	Name        *string
	Description *string
	FinalLink   *string
}

// Download is an append-only delivery-log record.
type Download struct {
	ID           string    `db:"id"`
	ScriptID     string    `db:"script_id"`
	ScriptName   string    `db:"script_name"`
	UserID       int64     `db:"user_id"`
	DownloadedAt time.Time `db:"downloaded_at"`
}

// Stats summarizes the catalog for the admin /stats view.
type Stats struct {
	TotalScripts   int64
	TotalDownloads int64
	Recent         []Script
}

// IsValidLink reports whether s is a syntactically well-formed absolute
// http or https URL.
func IsValidLink(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// MatchesQuery reports whether the script's name or description contains
// term, case-insensitively.
func (s Script) MatchesQuery(term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(s.Name), term) ||
		strings.Contains(strings.ToLower(s.Description), term)
}
