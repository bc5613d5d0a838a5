// Package conversation implements the chat-side logic of the catalog bot:
// the multi-step add workflow, paginated browsing, and the admin maintenance
// operations. It speaks in Reply values and never touches the transport, so
// every path is testable against a fake catalog.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scriptsbot/core/telegram/format"
	"github.com/m3rciful/scriptsbot/core/telegram/keyboard"
	"github.com/m3rciful/scriptsbot/internal/domain"
	"github.com/m3rciful/scriptsbot/internal/session"
	"github.com/m3rciful/scriptsbot/internal/storage"
)

// Callback uniques shared between markup rendering and handler registration.
const (
	CBScript        = "script"
	CBPageNext      = "page_next"
	CBPagePrev      = "page_prev"
	CBEdit          = "edit"
	CBDelete        = "delete"
	CBConfirmDelete = "confirm_delete"
	CBCancelDelete  = "cancel_delete"
	CBConfirmAdd    = "confirm_add"
	CBCancelAdd     = "cancel_add"
)

// Transient callback notices, shown via answerCallbackQuery-style responses.
const (
	NoticeScriptMissing = "Script not found"
	NoticeExpired       = "This list has expired, run /scripts again"
	NoticeNoMorePages   = "No more pages"
	NoticeCancelled     = "Cancelled"
)

// Catalog is the slice of the catalog service the controller depends on.
type Catalog interface {
	ListRecent(ctx context.Context) ([]domain.Script, error)
	GetByID(ctx context.Context, id string) (domain.Script, error)
	Add(ctx context.Context, draft domain.Draft, addedBy int64) (domain.Script, error)
	UpdateByName(ctx context.Context, name string, upd domain.ScriptUpdate) (int64, error)
	DeleteByName(ctx context.Context, name string) (int64, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	Search(ctx context.Context, term string) ([]domain.Script, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// Options tunes workflow validation and rendering.
type Options struct {
	PageSize         int
	MinNameLen       int
	MinDescLen       int
	SkipConfirmation bool
	WebURL           string
	AdminCount       int
}

// Reply is one outbound chat message: text plus optional inline controls.
type Reply struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// PageUpdate is the outcome of a pagination press: either a re-rendered
// keyboard or a transient notice, never both.
type PageUpdate struct {
	Markup *tele.ReplyMarkup
	Notice string
}

// Controller drives all chat workflows over the session store and catalog.
type Controller struct {
	catalog  Catalog
	sessions *session.Store
	opts     Options
}

// NewController applies option defaults and builds the controller.
func NewController(catalog Catalog, sessions *session.Store, opts Options) *Controller {
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}
	if opts.MinNameLen <= 0 {
		opts.MinNameLen = 2
	}
	if opts.MinDescLen <= 0 {
		opts.MinDescLen = 10
	}
	return &Controller{catalog: catalog, sessions: sessions, opts: opts}
}

func md(s string) string {
	out, err := format.EscapeMarkdown(s, format.MarkdownV1, "")
	if err != nil {
		return s
	}
	return out
}

// Start renders the welcome message. Admins see the maintenance commands.
func (c *Controller) Start(admin bool) Reply {
	var b strings.Builder
	b.WriteString("👋 *Welcome to the script catalog*\n\n")
	b.WriteString("📚 /scripts - browse available scripts\n")
	b.WriteString("🔍 /search <term> - search the catalog\n")
	if admin {
		b.WriteString("\n*Admin commands:*\n")
		b.WriteString("➕ /add - add a script\n")
		b.WriteString("✏️ /edit <name>|<new name>|<new value> - edit by name\n")
		b.WriteString("🗑️ /delete <name> - delete by name\n")
		b.WriteString("📊 /stats - catalog statistics\n")
		b.WriteString("❌ /cancel - abort the current add\n")
	}
	return Reply{Text: b.String()}
}

// InProgress reports whether the user has a live add session. Used by the
// text router to decide whether free text belongs to the workflow.
func (c *Controller) InProgress(userID int64) bool {
	_, ok := c.sessions.GetAdd(userID)
	return ok
}

// StartAdd opens a fresh add session for the user, replacing any stale one.
func (c *Controller) StartAdd(userID, chatID int64) Reply {
	c.sessions.SetAdd(userID, session.AddSession{
		State:  session.StateName,
		ChatID: chatID,
	})
	return Reply{Text: "📝 *Adding a new script*\n\n" +
		"Step 1/3: send the script name.\n\n" +
		"❌ Send /cancel to abort."}
}

// HandleText feeds one free-text message into the user's add session and
// returns the next prompt. It reports false when the text is not part of a
// workflow: no session, or command-prefixed input.
func (c *Controller) HandleText(ctx context.Context, userID int64, text string) (Reply, bool) {
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return Reply{}, false
	}
	sess, ok := c.sessions.GetAdd(userID)
	if !ok {
		return Reply{}, false
	}
	text = strings.TrimSpace(text)

	switch sess.State {
	case session.StateName:
		if utf8.RuneCountInString(text) < c.opts.MinNameLen {
			return Reply{Text: "❌ That name is too short, send a proper name."}, true
		}
		sess.Draft.Name = text
		sess.State = session.StateDescription
		c.sessions.SetAdd(userID, sess)
		return Reply{Text: "✅ *Name saved*\n\n" +
			"Step 2/3: send the script description.\n\n" +
			"❌ Send /cancel to abort."}, true

	case session.StateDescription:
		if utf8.RuneCountInString(text) < c.opts.MinDescLen {
			return Reply{Text: "❌ That description is too short, send a more detailed one."}, true
		}
		sess.Draft.Description = text
		sess.State = session.StateLink
		c.sessions.SetAdd(userID, sess)
		return Reply{Text: "✅ *Description saved*\n\n" +
			"Step 3/3: send the download link (http:// or https://).\n\n" +
			"❌ Send /cancel to abort."}, true

	case session.StateLink:
		if !domain.IsValidLink(text) {
			return Reply{Text: "❌ That link is not valid, send a full http(s) URL."}, true
		}
		sess.Draft.FinalLink = text
		if c.opts.SkipConfirmation {
			return c.persistDraft(ctx, userID, sess.Draft), true
		}
		sess.State = session.StateConfirm
		c.sessions.SetAdd(userID, sess)
		return Reply{
			Text:   c.draftSummary(sess.Draft),
			Markup: c.confirmAddMarkup(userID),
		}, true

	case session.StateConfirm:
		return Reply{Text: "⚠️ Use the buttons above to confirm or cancel."}, true
	}

	// Unknown state means the session is corrupt; drop it.
	c.sessions.DeleteAdd(userID)
	return Reply{}, false
}

func (c *Controller) draftSummary(d domain.Draft) string {
	return "📋 *Review the new script*\n\n" +
		fmt.Sprintf("📌 *Name:* %s\n", md(d.Name)) +
		fmt.Sprintf("📝 *Description:* %s\n", md(d.Description)) +
		fmt.Sprintf("🔗 *Link:* %s\n\n", md(d.FinalLink)) +
		"Save it?"
}

func (c *Controller) confirmAddMarkup(userID int64) *tele.ReplyMarkup {
	data := strconv.FormatInt(userID, 10)
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Yes, add it", Unique: CBConfirmAdd, Data: data},
		{Text: "❌ Cancel", Unique: CBCancelAdd, Data: data},
	})
}

// ConfirmAdd persists the pending draft. Any backend failure still removes
// the session, so the admin restarts the workflow rather than re-confirming
// against unknown state.
func (c *Controller) ConfirmAdd(ctx context.Context, userID int64) (Reply, error) {
	sess, ok := c.sessions.GetAdd(userID)
	if !ok || sess.State != session.StateConfirm {
		return Reply{Text: "⚠️ There is nothing waiting for confirmation."}, nil
	}
	rep := c.persistDraft(ctx, userID, sess.Draft)
	return rep, nil
}

func (c *Controller) persistDraft(ctx context.Context, userID int64, draft domain.Draft) Reply {
	c.sessions.DeleteAdd(userID)
	s, err := c.catalog.Add(ctx, draft, userID)
	if err != nil {
		return Reply{Text: "❌ Something went wrong while saving the script."}
	}
	return Reply{Text: "✅ *Script added*\n\n" +
		fmt.Sprintf("📌 *Name:* %s\n", md(s.Name)) +
		fmt.Sprintf("🆔 *ID:* %s", shortID(s.ID))}
}

// CancelAdd aborts the workflow from the inline cancel button.
func (c *Controller) CancelAdd(userID int64) Reply {
	c.sessions.DeleteAdd(userID)
	return Reply{Text: "❌ Add cancelled."}
}

// Cancel handles /cancel: drops the add session and reports whether one
// existed.
func (c *Controller) Cancel(userID int64) Reply {
	if c.sessions.DeleteAdd(userID) {
		return Reply{Text: "❌ Add cancelled."}
	}
	return Reply{Text: "⚠️ There is no active operation to cancel."}
}

// Browse fetches the snapshot backing a fresh listing.
func (c *Controller) Browse(ctx context.Context) ([]domain.Script, error) {
	return c.catalog.ListRecent(ctx)
}

// ListingReply renders the first page of a listing over the given snapshot.
func (c *Controller) ListingReply(scripts []domain.Script) Reply {
	if len(scripts) == 0 {
		return Reply{Text: "📭 No scripts are available yet."}
	}
	return Reply{
		Text:   "📚 *Available scripts*\n\nPick one to see the details:",
		Markup: c.pageMarkup(scripts, 1),
	}
}

// BindListing attaches the snapshot to the rendered message so pagination
// presses can find it later.
func (c *Controller) BindListing(chatID int64, messageID int, scripts []domain.Script) {
	c.sessions.SetPage(session.PageKey{ChatID: chatID, MessageID: messageID}, session.PageSession{
		Scripts:  scripts,
		Page:     1,
		PageSize: c.opts.PageSize,
	})
}

// Paginate re-renders a listing's keyboard for the target page. A missing
// session (restart, old message) yields only a transient notice.
func (c *Controller) Paginate(key session.PageKey, target int) PageUpdate {
	sess, ok := c.sessions.GetPage(key)
	if !ok {
		return PageUpdate{Notice: NoticeExpired}
	}
	start := (target - 1) * sess.PageSize
	if target < 1 || start >= len(sess.Scripts) {
		return PageUpdate{Notice: NoticeNoMorePages}
	}
	sess.Page = target
	c.sessions.SetPage(key, sess)
	return PageUpdate{Markup: c.pageMarkup(sess.Scripts, target)}
}

func (c *Controller) pageMarkup(scripts []domain.Script, page int) *tele.ReplyMarkup {
	size := c.opts.PageSize
	start := (page - 1) * size
	end := start + size
	if end > len(scripts) {
		end = len(scripts)
	}

	var rows [][]keyboard.InlineBtn
	for _, s := range scripts[start:end] {
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "📄 " + s.Name, Unique: CBScript, Data: s.ID},
		})
	}

	var nav []keyboard.InlineBtn
	if page > 1 {
		nav = append(nav, keyboard.InlineBtn{
			Text: "⏪ Previous page", Unique: CBPagePrev, Data: strconv.Itoa(page - 1),
		})
	}
	if end < len(scripts) {
		nav = append(nav, keyboard.InlineBtn{
			Text: "⏩ Next page", Unique: CBPageNext, Data: strconv.Itoa(page + 1),
		})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return keyboard.InlineButtonsRows(rows...)
}

// ScriptDetails renders the detail card for one catalog entry. found is
// false when the id no longer resolves.
func (c *Controller) ScriptDetails(ctx context.Context, id string, viewerID int64, admin bool) (Reply, bool, error) {
	s, err := c.catalog.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return Reply{}, false, nil
	}
	if err != nil {
		return Reply{Text: "❌ Something went wrong, try again."}, true, err
	}

	text := fmt.Sprintf("📌 *%s*\n\n", md(s.Name)) +
		fmt.Sprintf("📝 *Description:*\n%s\n\n", md(s.Description)) +
		fmt.Sprintf("📅 *Added:* %s\n", s.Created.Format("2006-01-02")) +
		fmt.Sprintf("🆔 *ID:* %s", shortID(s.ID))

	markup := &tele.ReplyMarkup{}
	download := markup.URL("⬇️ Download", c.downloadURL(s.ID, viewerID))
	rows := []tele.Row{markup.Row(download)}
	if admin {
		rows = append(rows, markup.Row(
			markup.Data("✏️ Edit", CBEdit, s.ID),
			markup.Data("🗑️ Delete", CBDelete, s.ID),
		))
	}
	markup.Inline(rows...)
	return Reply{Text: text, Markup: markup}, true, nil
}

func (c *Controller) downloadURL(scriptID string, userID int64) string {
	base := strings.TrimRight(c.opts.WebURL, "/")
	return fmt.Sprintf("%s/download.html?id=%s&tg=%d", base, scriptID, userID)
}

// RequestDelete renders the confirm/cancel prompt for deleting one entry.
func (c *Controller) RequestDelete(ctx context.Context, id string) (Reply, bool, error) {
	s, err := c.catalog.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return Reply{}, false, nil
	}
	if err != nil {
		return Reply{Text: "❌ Something went wrong, try again."}, true, err
	}
	markup := keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Yes, delete it", Unique: CBConfirmDelete, Data: id},
		{Text: "❌ Cancel", Unique: CBCancelDelete, Data: "cancel"},
	})
	return Reply{
		Text:   fmt.Sprintf("⚠️ *Confirm deletion*\n\nDelete the script:\n\"%s\"?", md(s.Name)),
		Markup: markup,
	}, true, nil
}

// ConfirmDelete removes one entry by id.
func (c *Controller) ConfirmDelete(ctx context.Context, id string) (Reply, error) {
	ok, err := c.catalog.DeleteByID(ctx, id)
	if err != nil {
		return Reply{Text: "❌ Something went wrong while deleting."}, err
	}
	if !ok {
		return Reply{Text: "⚠️ That script is already gone."}, nil
	}
	return Reply{Text: "✅ Script deleted."}, nil
}

// EditHint explains the /edit syntax for one entry; the detail card's edit
// button points admins here instead of opening another multi-step workflow.
func (c *Controller) EditHint(ctx context.Context, id string) (Reply, bool, error) {
	s, err := c.catalog.GetByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return Reply{}, false, nil
	}
	if err != nil {
		return Reply{Text: "❌ Something went wrong, try again."}, true, err
	}
	return Reply{Text: "✏️ To edit, send:\n" +
		fmt.Sprintf("`/edit %s|<new name>|<new value>`\n\n", md(s.Name)) +
		"Use `-` to keep the name. A value that is a URL replaces the link, anything else replaces the description."}, true, nil
}

// Search runs a catalog search and renders the hits.
func (c *Controller) Search(ctx context.Context, term string) (Reply, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return Reply{Text: "🔍 Usage: /search <term>"}, nil
	}
	results, err := c.catalog.Search(ctx, term)
	if err != nil {
		return Reply{Text: "❌ Something went wrong while searching."}, err
	}
	if len(results) == 0 {
		return Reply{Text: "🔍 No results found."}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 *Results for \"%s\"*\n\n", md(term))
	for i, s := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, md(s.Name))
	}
	fmt.Fprintf(&b, "\n📊 Total: %d", len(results))
	return Reply{Text: b.String()}, nil
}

// EditByName applies "/edit <name>|<new name>|<new value>" to every entry
// with that exact name. A value parsing as an absolute URL replaces the
// link; anything else replaces the description; "-" keeps a field.
func (c *Controller) EditByName(ctx context.Context, raw string) (Reply, error) {
	parts := strings.Split(raw, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return Reply{Text: "✏️ Usage: /edit <name>|<new name>|<new value>"}, nil
	}
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return Reply{Text: "✏️ Usage: /edit <name>|<new name>|<new value>"}, nil
	}

	var upd domain.ScriptUpdate
	if newName := strings.TrimSpace(parts[1]); newName != "" && newName != "-" {
		upd.Name = &newName
	}
	if len(parts) == 3 {
		if value := strings.TrimSpace(parts[2]); value != "" && value != "-" {
			if domain.IsValidLink(value) {
				upd.FinalLink = &value
			} else {
				upd.Description = &value
			}
		}
	}
	if upd.Name == nil && upd.Description == nil && upd.FinalLink == nil {
		return Reply{Text: "⚠️ Nothing to change."}, nil
	}

	n, err := c.catalog.UpdateByName(ctx, name, upd)
	if err != nil {
		return Reply{Text: "❌ Something went wrong while editing."}, err
	}
	if n == 0 {
		return Reply{Text: fmt.Sprintf("🔍 No script named \"%s\".", md(name))}, nil
	}
	return Reply{Text: fmt.Sprintf("✅ Updated %d script(s) named \"%s\".", n, md(name))}, nil
}

// DeleteByName removes every entry with the exact name and reports the count.
func (c *Controller) DeleteByName(ctx context.Context, name string) (Reply, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Reply{Text: "🗑️ Usage: /delete <name>"}, nil
	}
	n, err := c.catalog.DeleteByName(ctx, name)
	if err != nil {
		return Reply{Text: "❌ Something went wrong while deleting."}, err
	}
	if n == 0 {
		return Reply{Text: fmt.Sprintf("🔍 No script named \"%s\".", md(name))}, nil
	}
	return Reply{Text: fmt.Sprintf("✅ Deleted %d script(s) named \"%s\".", n, md(name))}, nil
}

// StatsReply renders catalog statistics for admins.
func (c *Controller) StatsReply(ctx context.Context) (Reply, error) {
	st, err := c.catalog.Stats(ctx)
	if err != nil {
		return Reply{Text: "❌ Something went wrong while fetching statistics."}, err
	}
	var b strings.Builder
	b.WriteString("📊 *Catalog statistics*\n\n")
	fmt.Fprintf(&b, "📚 Total scripts: *%d*\n", st.TotalScripts)
	fmt.Fprintf(&b, "⬇️ Total downloads: *%d*\n", st.TotalDownloads)
	fmt.Fprintf(&b, "👑 Admins: *%d*\n", c.opts.AdminCount)
	if len(st.Recent) > 0 {
		b.WriteString("\n🆕 *Latest scripts:*\n")
		for i, s := range st.Recent {
			fmt.Fprintf(&b, "%d. %s\n", i+1, md(s.Name))
		}
	}
	return Reply{Text: b.String()}, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8] + "…"
	}
	return id
}
