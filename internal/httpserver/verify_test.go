package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/scriptsbot/internal/domain"
	"github.com/m3rciful/scriptsbot/internal/storage"
)

type fakeScripts struct {
	byID map[string]domain.Script
}

func (f *fakeScripts) GetByID(_ context.Context, id string) (domain.Script, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return domain.Script{}, storage.ErrNotFound
}

type fakeRecorder struct {
	records []int64
	fail    bool
}

func (f *fakeRecorder) RecordDownload(_ context.Context, _ domain.Script, userID int64) error {
	if f.fail {
		return errors.New("db down")
	}
	f.records = append(f.records, userID)
	return nil
}

type fakeSender struct {
	sent []int64
	fail bool
}

func (f *fakeSender) SendScriptLink(_ context.Context, userID int64, _ domain.Script) error {
	if f.fail {
		return errors.New("telegram down")
	}
	f.sent = append(f.sent, userID)
	return nil
}

func testDeps() (Deps, *fakeRecorder, *fakeSender) {
	rec := &fakeRecorder{}
	snd := &fakeSender{}
	d := Deps{
		Scripts: &fakeScripts{byID: map[string]domain.Script{
			"abc": {ID: "abc", Name: "usergen", FinalLink: "https://example.com/x"},
		}},
		Downloads: rec,
		Sender:    snd,
	}
	return d, rec, snd
}

func postVerify(t *testing.T, d Deps, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handleVerify(d)(rr, req)
	return rr
}

func TestVerifySuccess(t *testing.T) {
	d, rec, snd := testDeps()

	rr := postVerify(t, d, `{"scriptId":"abc","tgId":42}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp verifyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Message)

	assert.Equal(t, []int64{42}, snd.sent, "exactly one message sent")
	assert.Equal(t, []int64{42}, rec.records, "exactly one download recorded")
}

func TestVerifyAcceptsStringTgID(t *testing.T) {
	d, rec, snd := testDeps()

	rr := postVerify(t, d, `{"scriptId":"abc","tgId":"42"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []int64{42}, snd.sent)
	assert.Equal(t, []int64{42}, rec.records)
}

func TestVerifyMissingFields(t *testing.T) {
	d, rec, snd := testDeps()

	for _, body := range []string{
		`{}`,
		`{"scriptId":"abc"}`,
		`{"tgId":42}`,
		`not json`,
	} {
		rr := postVerify(t, d, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "body %s", body)
	}
	assert.Empty(t, snd.sent)
	assert.Empty(t, rec.records)
}

func TestVerifyUnknownScript(t *testing.T) {
	d, rec, snd := testDeps()

	rr := postVerify(t, d, `{"scriptId":"nope","tgId":42}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Script not found", resp.Error)

	assert.Empty(t, snd.sent, "nothing sent for unknown id")
	assert.Empty(t, rec.records, "nothing recorded for unknown id")
}

func TestVerifySendFailure(t *testing.T) {
	d, rec, snd := testDeps()
	snd.fail = true

	rr := postVerify(t, d, `{"scriptId":"abc","tgId":42}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, rec.records, "no record when the message never went out")
}

func TestVerifyRecordFailure(t *testing.T) {
	d, rec, snd := testDeps()
	rec.fail = true

	rr := postVerify(t, d, `{"scriptId":"abc","tgId":42}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, []int64{42}, snd.sent, "message already delivered")
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handleHealth(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestRouterWiring(t *testing.T) {
	d, _, _ := testDeps()
	srv := New(0, d)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/verify", strings.NewReader(`{"scriptId":"abc","tgId":1}`))
	rr = httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
