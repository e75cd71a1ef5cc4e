package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iudp/ledger/internal/common"
	"github.com/iudp/ledger/internal/logging"
	"github.com/iudp/ledger/internal/server/access"
	"github.com/iudp/ledger/internal/server/auth"
	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/config"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/services"
	"github.com/iudp/ledger/internal/server/slots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "secret"

var testCaller = models.Caller{UserID: "u1", Name: "Ana", Role: models.RolePastor, Scope: models.ScopeChurch, ChurchID: "c1"}

type testEnv struct {
	router   *gin.Engine
	clock    *clock.Fixed
	entries  *fakeEntries
	unlocks  *fakeUnlocks
	periods  *fakePeriods
	receipts *fakeReceipts
	users    *fakeUsers
	obs      *fakeObservations
}

func newTestEnv(t *testing.T, store LimitStore) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = testSecret
	cfg.RateLimit = 2
	cfg.RateLimitWindow = time.Minute

	env := &testEnv{
		clock:    clock.NewFixed(clock.Civil(2024, 3, 10, 11, 0, 0)),
		entries:  &fakeEntries{},
		unlocks:  &fakeUnlocks{},
		periods:  &fakePeriods{},
		receipts: &fakeReceipts{},
		users:    &fakeUsers{},
		obs:      &fakeObservations{},
	}
	router, err := NewRouter(cfg, Services{
		Users:        env.users,
		Entries:      env.entries,
		Unlocks:      env.unlocks,
		Periods:      env.periods,
		Receipts:     env.receipts,
		Dashboard:    fakeDashboard{},
		Observations: env.obs,
	}, store, env.clock, slots.Default(), logging.Nop())
	require.NoError(t, err)
	env.router = router
	return env
}

func token(t *testing.T, c models.Caller, validity time.Duration) string {
	t.Helper()
	tok, err := auth.GenerateToken(c, []byte(testSecret), validity)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path string, body any, tok string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+tok)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestCurrentTime(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/api/time/current", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "10/03/2024 11:00:00", body["formatted"])
	assert.Equal(t, "2024-03-10T11:00:00.000-03:00", body["time"])
	assert.Equal(t, clock.Zone.String(), body["timezone"])
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, nil)
	slot := map[string]any{"day": 10, "month": 3, "year": 2024, "timeSlot": "08:00"}

	rec := env.do(t, http.MethodPost, "/api/entries/check", slot, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing token", decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/entries/check", slot, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, common.ErrInvalidToken.Error(), decode(t, rec)["error"])

	rec = env.do(t, http.MethodPost, "/api/entries/check", slot, token(t, testCaller, -time.Minute))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, common.ErrTokenExpired.Error(), decode(t, rec)["error"])
}

func TestCheckEntry(t *testing.T) {
	env := newTestEnv(t, nil)
	env.entries.verdict = access.Verdict{Allowed: true, Reason: access.ReasonInWindow, Message: "ok"}

	rec := env.do(t, http.MethodPost, "/api/entries/check",
		map[string]any{"day": 10, "month": 3, "year": 2024, "timeSlot": "08:00"}, token(t, testCaller, time.Hour))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["allowed"])
	assert.Equal(t, "u1", env.entries.caller.UserID)
	assert.Equal(t, services.SlotRef{Year: 2024, Month: 3, Day: 10, TimeSlot: "08:00"}, env.entries.lastCheck)
}

func TestSaveEntry(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := token(t, testCaller, time.Hour)
	env.entries.saveRes = services.SaveResult{
		Verdict: access.Verdict{Allowed: true, Reason: access.ReasonInWindow},
		Entry:   &models.Entry{EntryID: "e1"},
	}

	rec := env.do(t, http.MethodPost, "/api/entries/save", map[string]any{
		"day": 10, "month": 3, "year": 2024, "timeSlot": "08:00",
		"dinheiro": 60, "pix": "40.50", "notes": "ok",
	}, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["success"])

	in := env.entries.lastSave
	require.NotNil(t, in.Cash)
	require.NotNil(t, in.Pix)
	assert.Equal(t, "60", in.Cash.String())
	assert.Equal(t, "40.5", in.Pix.String())
	assert.Nil(t, in.Value)
	assert.Nil(t, in.Card)
}

func TestSaveEntry_DeniedVerdict(t *testing.T) {
	env := newTestEnv(t, nil)
	env.entries.saveRes = services.SaveResult{Verdict: access.Verdict{
		Allowed: false, Reason: access.ReasonWindowClosed, Message: access.ReasonWindowClosed.Message(), WindowEnd: "10:00",
	}}

	rec := env.do(t, http.MethodPost, "/api/entries/save",
		map[string]any{"day": 10, "month": 3, "year": 2024, "timeSlot": "08:00", "value": 1}, token(t, testCaller, time.Hour))
	require.Equal(t, http.StatusForbidden, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, "WINDOW_CLOSED", body["reason"])
	assert.Equal(t, "10:00", body["windowEnd"])
	assert.NotEmpty(t, body["message"])
}

func TestSaveEntry_ValidationFields(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/entries/save",
		map[string]any{"day": 10, "month": 13, "year": 2024, "timeSlot": "07:00"}, token(t, testCaller, time.Hour))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "validation failed", body["error"])
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "timeslot", fields["TimeSlot"])
	assert.Equal(t, "max", fields["Month"])
}

func TestBadJSON(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", decode(t, rec)["error"])
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.ErrValidation, http.StatusBadRequest},
		{common.ErrFileTooLarge, http.StatusBadRequest},
		{common.ErrUnsupportedFileType, http.StatusBadRequest},
		{common.ErrorUnauthorized, http.StatusUnauthorized},
		{common.ErrForbidden, http.StatusForbidden},
		{common.ErrInactiveUser, http.StatusForbidden},
		{common.ErrMonthClosed, http.StatusForbidden},
		{common.ErrorNotFound, http.StatusNotFound},
		{common.ErrInvalidTransition, http.StatusConflict},
		{common.ErrorAlreadyExists, http.StatusConflict},
		{errors.New("db error: boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

func TestDeleteEntry(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := token(t, testCaller, time.Hour)

	rec := env.do(t, http.MethodDelete, "/api/entries/e1", nil, tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "e1", env.entries.deleted)

	env.entries.err = common.ErrForbidden
	rec = env.do(t, http.MethodDelete, "/api/entries/e1", nil, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode(t, rec)["error"])
}

func TestInternalErrorHidesDetails(t *testing.T) {
	env := newTestEnv(t, nil)
	env.entries.err = errors.New("db error: connection refused")

	rec := env.do(t, http.MethodPost, "/api/entries/month", map[string]any{"month": 3, "year": 2024}, token(t, testCaller, time.Hour))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, common.ErrorInternal.Error(), decode(t, rec)["error"])
}

func TestListMonth(t *testing.T) {
	env := newTestEnv(t, nil)
	env.entries.view = &services.MonthView{Month: 3, Year: 2024, PeriodClosed: true, Entries: []services.EntryView{}}

	rec := env.do(t, http.MethodPost, "/api/entries/month", map[string]any{"month": 3, "year": 2024}, token(t, testCaller, time.Hour))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["monthClosed"])
}

func TestUnlockRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := token(t, testCaller, time.Hour)
	env.unlocks.req = &models.UnlockRequest{RequestID: "r1", Status: models.UnlockPending}

	rec := env.do(t, http.MethodPost, "/api/unlock/request", map[string]any{
		"day": 10, "month": 3, "year": 2024, "timeSlot": "19:30", "entryId": "e1", "reason": "esqueci",
	}, tok)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, env.unlocks.lastInput.EntryID)
	assert.Equal(t, "e1", *env.unlocks.lastInput.EntryID)

	rec = env.do(t, http.MethodPost, "/api/unlock/request", map[string]any{
		"day": 10, "month": 3, "year": 2024, "timeSlot": "19:30",
	}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/unlock/approve", map[string]any{"requestId": "r1", "durationMinutes": 120}, tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 120, env.unlocks.duration)

	rec = env.do(t, http.MethodPost, "/api/unlock/approve", map[string]any{"requestId": "r1", "durationMinutes": 20000}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/unlock/requests?status=approved", nil, tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.UnlockApproved, env.unlocks.lastStatus)

	rec = env.do(t, http.MethodGet, "/api/unlock/requests?status=bogus", nil, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.unlocks.err = common.ErrInvalidTransition
	rec = env.do(t, http.MethodPost, "/api/unlock/reject", map[string]any{"requestId": "r1", "reason": "no"}, tok)
	assert.Equal(t, http.StatusConflict, rec.Code)

	env.unlocks.err = common.ErrMonthClosed
	rec = env.do(t, http.MethodPost, "/api/unlock/request", map[string]any{
		"day": 10, "month": 3, "year": 2024, "timeSlot": "19:30", "reason": "x",
	}, tok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	env.unlocks.err = common.ErrorNotFound
	rec = env.do(t, http.MethodDelete, "/api/unlock/requests/r9", nil, tok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMonthRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := token(t, testCaller, time.Hour)
	month := map[string]any{"month": 3, "year": 2024}

	rec := env.do(t, http.MethodPost, "/api/month/close", month, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["closed"])

	rec = env.do(t, http.MethodPost, "/api/month/reopen", month, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", decode(t, rec)["reopenedBy"])

	rec = env.do(t, http.MethodPost, "/api/month/status", month, tok)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/dashboard/data", month, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decode(t, rec)["month"])

	rec = env.do(t, http.MethodPost, "/api/observations/month", map[string]any{"month": 3, "year": 2024, "observation": "nota"}, tok)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/observations/month?month=3&year=2024", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "nota", body["observation"])
	assert.Equal(t, "2024-03-01", body["obsId"])

	rec = env.do(t, http.MethodGet, "/api/observations/month?month=0&year=2024", nil, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceiptRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	tok := token(t, testCaller, time.Hour)

	rec := env.do(t, http.MethodPost, "/api/receipts/upload-url", map[string]any{
		"entryId": "e1", "filename": "a.pdf", "contentType": "application/pdf", "size": 100,
	}, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://s3.local/put", decode(t, rec)["uploadUrl"])

	rec = env.do(t, http.MethodGet, "/api/receipts/e1/r1", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://s3.local/e1/r1", decode(t, rec)["url"])

	env.receipts.err = common.ErrFileTooLarge
	rec = env.do(t, http.MethodPost, "/api/receipts/upload-url", map[string]any{
		"entryId": "e1", "filename": "a.pdf", "contentType": "application/pdf", "size": 100,
	}, tok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name": "Ana", "email": "ana@igreja.org", "password": "secret1", "church": "Sede",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "t", decode(t, rec)["token"])

	rec = env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name": "Ana", "email": "not-an-email", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", decode(t, rec)["fields"].(map[string]any)["Email"])

	env.users.err = common.ErrorUnauthorized
	rec = env.do(t, http.MethodPost, "/api/auth/login", map[string]any{"email": "ana@igreja.org", "password": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.users.err = common.ErrorAlreadyExists
	rec = env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"name": "Ana", "email": "ana@igreja.org", "password": "secret1",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}
