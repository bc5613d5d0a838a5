package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/scriptsbot/internal/domain"
	"github.com/m3rciful/scriptsbot/internal/session"
	"github.com/m3rciful/scriptsbot/internal/storage"
)

type fakeCatalog struct {
	scripts  []domain.Script
	failAdd  bool
	failList bool
	added    []domain.Draft
}

func (f *fakeCatalog) ListRecent(context.Context) ([]domain.Script, error) {
	if f.failList {
		return nil, errors.New("backend down")
	}
	return f.scripts, nil
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (domain.Script, error) {
	for _, s := range f.scripts {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Script{}, storage.ErrNotFound
}

func (f *fakeCatalog) Add(_ context.Context, draft domain.Draft, addedBy int64) (domain.Script, error) {
	if f.failAdd {
		return domain.Script{}, errors.New("backend down")
	}
	f.added = append(f.added, draft)
	s := domain.Script{
		ID:          fmt.Sprintf("id-%d", len(f.added)),
		Name:        draft.Name,
		Description: draft.Description,
		FinalLink:   draft.FinalLink,
		Created:     time.Now(),
		AddedBy:     addedBy,
	}
	f.scripts = append(f.scripts, s)
	return s, nil
}

func (f *fakeCatalog) UpdateByName(_ context.Context, name string, upd domain.ScriptUpdate) (int64, error) {
	var n int64
	for i := range f.scripts {
		if f.scripts[i].Name != name {
			continue
		}
		if upd.Name != nil {
			f.scripts[i].Name = *upd.Name
		}
		if upd.Description != nil {
			f.scripts[i].Description = *upd.Description
		}
		if upd.FinalLink != nil {
			f.scripts[i].FinalLink = *upd.FinalLink
		}
		n++
	}
	return n, nil
}

func (f *fakeCatalog) DeleteByName(_ context.Context, name string) (int64, error) {
	var kept []domain.Script
	var n int64
	for _, s := range f.scripts {
		if s.Name == name {
			n++
			continue
		}
		kept = append(kept, s)
	}
	f.scripts = kept
	return n, nil
}

func (f *fakeCatalog) DeleteByID(_ context.Context, id string) (bool, error) {
	for i, s := range f.scripts {
		if s.ID == id {
			f.scripts = append(f.scripts[:i], f.scripts[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCatalog) Search(_ context.Context, term string) ([]domain.Script, error) {
	var out []domain.Script
	for _, s := range f.scripts {
		if s.MatchesQuery(term) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Stats(context.Context) (domain.Stats, error) {
	return domain.Stats{TotalScripts: int64(len(f.scripts))}, nil
}

func newTestController(cat *fakeCatalog) (*Controller, *session.Store) {
	store := session.NewStore()
	ctrl := NewController(cat, store, Options{WebURL: "https://dl.example.com"})
	return ctrl, store
}

func scriptsN(n int) []domain.Script {
	out := make([]domain.Script, n)
	for i := range out {
		out[i] = domain.Script{ID: fmt.Sprintf("s%02d", i), Name: fmt.Sprintf("script %02d", i)}
	}
	return out
}

func TestAddFlowHappyPath(t *testing.T) {
	ctx := context.Background()
	cat := &fakeCatalog{}
	ctrl, store := newTestController(cat)

	const userID, chatID = int64(42), int64(7)
	ctrl.StartAdd(userID, chatID)
	assert.True(t, ctrl.InProgress(userID))

	rep, handled := ctrl.HandleText(ctx, userID, "usergen")
	require.True(t, handled)
	assert.Contains(t, rep.Text, "Name saved")

	rep, handled = ctrl.HandleText(ctx, userID, "registers accounts in bulk")
	require.True(t, handled)
	assert.Contains(t, rep.Text, "Description saved")

	rep, handled = ctrl.HandleText(ctx, userID, "https://example.com/usergen.lua")
	require.True(t, handled)
	assert.Contains(t, rep.Text, "Review")
	require.NotNil(t, rep.Markup, "confirmation step shows buttons")

	rep, err := ctrl.ConfirmAdd(ctx, userID)
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "Script added")

	require.Len(t, cat.added, 1, "exactly one entry persisted")
	assert.Equal(t, "usergen", cat.added[0].Name)
	assert.False(t, ctrl.InProgress(userID), "session removed after persist")
	adds, _ := store.Counts()
	assert.Equal(t, 0, adds)
}

func TestAddFlowValidationKeepsStep(t *testing.T) {
	ctx := context.Background()
	cat := &fakeCatalog{}
	ctrl, _ := newTestController(cat)

	ctrl.StartAdd(1, 1)

	rep, handled := ctrl.HandleText(ctx, 1, "x")
	require.True(t, handled)
	assert.Contains(t, rep.Text, "too short")

	// Still on the name step: a valid name advances now.
	rep, _ = ctrl.HandleText(ctx, 1, "valid name")
	assert.Contains(t, rep.Text, "Name saved")

	rep, _ = ctrl.HandleText(ctx, 1, "short")
	assert.Contains(t, rep.Text, "too short")

	rep, _ = ctrl.HandleText(ctx, 1, "a sufficiently detailed description")
	assert.Contains(t, rep.Text, "Description saved")

	for _, bad := range []string{"not a url", "ftp://example.com/x", "example.com/no-scheme"} {
		rep, _ = ctrl.HandleText(ctx, 1, bad)
		assert.Contains(t, rep.Text, "not valid", "link %q rejected", bad)
	}
	assert.Empty(t, cat.added, "nothing persisted before confirmation")
}

func TestAddFlowIgnoresCommands(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newTestController(&fakeCatalog{})
	ctrl.StartAdd(1, 1)

	_, handled := ctrl.HandleText(ctx, 1, "/scripts")
	assert.False(t, handled, "command text never feeds the workflow")
	assert.True(t, ctrl.InProgress(1), "session untouched")
}

func TestAddFlowBackendFailureDropsSession(t *testing.T) {
	ctx := context.Background()
	cat := &fakeCatalog{failAdd: true}
	ctrl, _ := newTestController(cat)

	ctrl.StartAdd(1, 1)
	ctrl.HandleText(ctx, 1, "usergen")
	ctrl.HandleText(ctx, 1, "registers accounts in bulk")
	ctrl.HandleText(ctx, 1, "https://example.com/x")

	rep, err := ctrl.ConfirmAdd(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "went wrong")
	assert.False(t, ctrl.InProgress(1), "failed persist removes the session")

	rep, err = ctrl.ConfirmAdd(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "nothing waiting", "second confirm finds no session")
}

func TestCancelReportsSessionExistence(t *testing.T) {
	ctrl, _ := newTestController(&fakeCatalog{})

	rep := ctrl.Cancel(1)
	assert.Contains(t, rep.Text, "no active operation")

	ctrl.StartAdd(1, 1)
	rep = ctrl.Cancel(1)
	assert.Contains(t, rep.Text, "cancelled")
	assert.False(t, ctrl.InProgress(1))
}

func TestListingFirstPageControls(t *testing.T) {
	ctrl, _ := newTestController(&fakeCatalog{})

	rep := ctrl.ListingReply(scriptsN(12))
	require.NotNil(t, rep.Markup)
	rows := rep.Markup.InlineKeyboard
	require.Len(t, rows, 6, "5 scripts + nav row")
	for i := 0; i < 5; i++ {
		assert.Contains(t, rows[i][0].Data, fmt.Sprintf("s%02d", i))
	}
	nav := rows[5]
	require.Len(t, nav, 1, "page 1 shows only next")
	assert.Contains(t, nav[0].Text, "Next")

	rep = ctrl.ListingReply(nil)
	assert.Nil(t, rep.Markup)
	assert.Contains(t, rep.Text, "No scripts")
}

func TestPaginationSliceAndControls(t *testing.T) {
	ctrl, _ := newTestController(&fakeCatalog{})
	key := session.PageKey{ChatID: 5, MessageID: 99}
	ctrl.BindListing(key.ChatID, key.MessageID, scriptsN(12))

	upd := ctrl.Paginate(key, 3)
	require.NotNil(t, upd.Markup)
	assert.Empty(t, upd.Notice)
	rows := upd.Markup.InlineKeyboard
	require.Len(t, rows, 3, "2 scripts on the last page + nav row")
	assert.Contains(t, rows[0][0].Data, "s10")
	assert.Contains(t, rows[1][0].Data, "s11")
	nav := rows[2]
	require.Len(t, nav, 1, "last page shows only previous")
	assert.Contains(t, nav[0].Text, "Previous")

	upd = ctrl.Paginate(key, 2)
	require.NotNil(t, upd.Markup)
	nav = upd.Markup.InlineKeyboard[5]
	require.Len(t, nav, 2, "middle page shows both controls")

	upd = ctrl.Paginate(key, 4)
	assert.Nil(t, upd.Markup)
	assert.Equal(t, NoticeNoMorePages, upd.Notice)
}

func TestPaginateExpiredSessionNoticeOnly(t *testing.T) {
	ctrl, store := newTestController(&fakeCatalog{})

	upd := ctrl.Paginate(session.PageKey{ChatID: 1, MessageID: 2}, 2)
	assert.Nil(t, upd.Markup)
	assert.Equal(t, NoticeExpired, upd.Notice)

	_, pages := store.Counts()
	assert.Equal(t, 0, pages, "no session materialized")
}

func TestPaginationSessionsIndependentPerMessage(t *testing.T) {
	ctrl, _ := newTestController(&fakeCatalog{})
	ctrl.BindListing(5, 100, scriptsN(12))
	ctrl.BindListing(5, 101, scriptsN(7))

	upd := ctrl.Paginate(session.PageKey{ChatID: 5, MessageID: 100}, 3)
	require.NotNil(t, upd.Markup)

	upd = ctrl.Paginate(session.PageKey{ChatID: 5, MessageID: 101}, 3)
	assert.Equal(t, NoticeNoMorePages, upd.Notice, "second listing has its own snapshot")
}

func TestScriptDetails(t *testing.T) {
	ctx := context.Background()
	cat := &fakeCatalog{scripts: []domain.Script{{
		ID: "abcdef123456", Name: "usergen", Description: "bulk accounts",
		Created: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}}}
	ctrl, _ := newTestController(cat)

	rep, found, err := ctrl.ScriptDetails(ctx, "abcdef123456", 42, true)
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, rep.Text, "usergen")
	assert.Contains(t, rep.Text, "2025-05-01")

	rows := rep.Markup.InlineKeyboard
	require.Len(t, rows, 2, "download row + admin row")
	assert.Equal(t, "https://dl.example.com/download.html?id=abcdef123456&tg=42", rows[0][0].URL)
	assert.Len(t, rows[1], 2)

	rep, found, err = ctrl.ScriptDetails(ctx, "abcdef123456", 42, false)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, rep.Markup.InlineKeyboard, 1, "non-admin sees no edit/delete row")

	_, found, err = ctrl.ScriptDetails(ctx, "missing", 42, false)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteByNameMatchesZeroOrMany(t *testing.T) {
	ctx := context.Background()
	cat := &fakeCatalog{scripts: []domain.Script{
		{ID: "a", Name: "dup"},
		{ID: "b", Name: "dup"},
		{ID: "c", Name: "keeper"},
	}}
	ctrl, _ := newTestController(cat)

	rep, err := ctrl.DeleteByName(ctx, "nothere")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "No script named")
	assert.Len(t, cat.scripts, 3)

	rep, err = ctrl.DeleteByName(ctx, "dup")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "Deleted 2")
	require.Len(t, cat.scripts, 1)
	assert.Equal(t, "keeper", cat.scripts[0].Name)
}

func TestEditByName(t *testing.T) {
	ctx := context.Background()
	cat := &fakeCatalog{scripts: []domain.Script{
		{ID: "a", Name: "dup", Description: "old", FinalLink: "https://old.example.com"},
		{ID: "b", Name: "dup", Description: "old", FinalLink: "https://old.example.com"},
	}}
	ctrl, _ := newTestController(cat)

	rep, err := ctrl.EditByName(ctx, "dup|renamed")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "Updated 2")
	assert.Equal(t, "renamed", cat.scripts[0].Name)
	assert.Equal(t, "renamed", cat.scripts[1].Name)

	// "-" keeps the name; a URL value replaces the link.
	rep, err = ctrl.EditByName(ctx, "renamed|-|https://new.example.com/x")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "Updated 2")
	assert.Equal(t, "renamed", cat.scripts[0].Name)
	assert.Equal(t, "https://new.example.com/x", cat.scripts[0].FinalLink)
	assert.Equal(t, "old", cat.scripts[0].Description)

	// Non-URL value replaces the description.
	rep, err = ctrl.EditByName(ctx, "renamed|-|a brand new description")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "Updated 2")
	assert.Equal(t, "a brand new description", cat.scripts[1].Description)

	rep, err = ctrl.EditByName(ctx, "ghost|-|whatever")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "No script named")

	rep, err = ctrl.EditByName(ctx, "justonename")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "Usage")
}

func TestConfirmDelete(t *testing.T) {
	ctx := context.Background()
	cat := &fakeCatalog{scripts: []domain.Script{{ID: "a", Name: "target"}}}
	ctrl, _ := newTestController(cat)

	rep, found, err := ctrl.RequestDelete(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, rep.Text, "target")
	require.NotNil(t, rep.Markup)

	rep, err = ctrl.ConfirmDelete(ctx, "a")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "deleted")
	assert.Empty(t, cat.scripts)

	rep, err = ctrl.ConfirmDelete(ctx, "a")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "already gone")
}

func TestSearchRendering(t *testing.T) {
	ctx := context.Background()
	cat := &fakeCatalog{scripts: []domain.Script{
		{ID: "a", Name: "Login Helper", Description: "signs in"},
		{ID: "b", Name: "other", Description: "helps with login too"},
		{ID: "c", Name: "unrelated", Description: "nothing"},
	}}
	ctrl, _ := newTestController(cat)

	rep, err := ctrl.Search(ctx, "login")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "Login Helper")
	assert.Contains(t, rep.Text, "other")
	assert.NotContains(t, rep.Text, "unrelated")
	assert.Contains(t, rep.Text, "Total: 2")

	rep, err = ctrl.Search(ctx, "zzz")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "No results")

	rep, err = ctrl.Search(ctx, "   ")
	require.NoError(t, err)
	assert.Contains(t, rep.Text, "Usage")
}

func TestSkipConfirmationVariant(t *testing.T) {
	ctx := context.Background()
	cat := &fakeCatalog{}
	store := session.NewStore()
	ctrl := NewController(cat, store, Options{SkipConfirmation: true})

	ctrl.StartAdd(1, 1)
	ctrl.HandleText(ctx, 1, "usergen")
	ctrl.HandleText(ctx, 1, "registers accounts in bulk")
	rep, handled := ctrl.HandleText(ctx, 1, "https://example.com/x")
	require.True(t, handled)
	assert.Contains(t, rep.Text, "Script added", "valid link persists immediately")
	assert.Len(t, cat.added, 1)
	assert.False(t, ctrl.InProgress(1))
}

func TestStartListsAdminCommandsOnlyForAdmins(t *testing.T) {
	ctrl, _ := newTestController(&fakeCatalog{})

	rep := ctrl.Start(false)
	assert.False(t, strings.Contains(rep.Text, "/add"))

	rep = ctrl.Start(true)
	assert.Contains(t, rep.Text, "/add")
	assert.Contains(t, rep.Text, "/stats")
}
