package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/storage/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(store, store, store, store, store, nil, store, "USD", logger)
	return srv, store
}

// stubAdviser satisfies Adviser with canned responses.
type stubAdviser struct {
	advice string
	uri    string
}

func (a stubAdviser) Advise(_ context.Context, _ string, _ []ledger.Entry) (string, error) {
	return a.advice, nil
}

func (a stubAdviser) AnimateImage(_ context.Context, _, _, _ string) (string, error) {
	return a.uri, nil
}

func newTestServerWithAdviser(t *testing.T, adviser Adviser) *Server {
	t.Helper()
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, store, store, store, store, adviser, store, "USD", logger)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func register(t *testing.T, h http.Handler, username, password string) sessionResponse {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/v1/auth/register", credentialsRequest{Username: username, Password: password}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, rec.Code, rec.Body.String())
	}
	return decode[sessionResponse](t, rec)
}

func addEntry(t *testing.T, h http.Handler, userID uuid.UUID, date, kind, category string, amountMinor int64) entryResponse {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/v1/entries", map[string]any{
		"user_id":      userID,
		"date":         date,
		"kind":         kind,
		"category":     category,
		"amount_minor": amountMinor,
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add entry: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decode[entryResponse](t, rec)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	register(t, h, "alice", "pw1")

	rec := doJSON(t, h, http.MethodPost, "/v1/auth/register", credentialsRequest{Username: "ALICE", Password: "pw2"}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	register(t, h, "bob", "correct")

	rec := doJSON(t, h, http.MethodPost, "/v1/auth/login", credentialsRequest{Username: "bob", Password: "wrong"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	// unknown user fails with the same generic message
	rec2 := doJSON(t, h, http.MethodPost, "/v1/auth/login", credentialsRequest{Username: "nobody", Password: "x"}, nil)
	if rec2.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", rec2.Code)
	}
	if rec.Body.String() != rec2.Body.String() {
		t.Errorf("wrong-password and unknown-user responses should be indistinguishable: %q vs %q", rec.Body.String(), rec2.Body.String())
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	sess := register(t, h, "carol", "pw")
	bearer := map[string]string{"Authorization": "Bearer " + sess.Token}

	rec := doJSON(t, h, http.MethodGet, "/v1/auth/session", nil, bearer)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user := decode[userResponse](t, rec)
	if user.Username != "carol" {
		t.Errorf("expected carol, got %s", user.Username)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/auth/logout", nil, bearer)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/auth/session", nil, bearer)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestEntriesRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	sess := register(t, h, "dave", "pw")
	userID := sess.User.ID

	first := addEntry(t, h, userID, "2025-06-01", "income", "salary", 100000)
	second := addEntry(t, h, userID, "2025-06-02", "expense", "groceries", 2500)

	rec := doJSON(t, h, http.MethodGet, "/v1/entries?user_id="+userID.String(), nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	list := decode[listEntriesResponse](t, rec)
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list.Items))
	}
	// newest first
	if list.Items[0].ID != second.ID || list.Items[1].ID != first.ID {
		t.Errorf("expected newest-first order, got %v then %v", list.Items[0].ID, list.Items[1].ID)
	}

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/v1/entries/%s?user_id=%s", second.ID, userID), nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/entries?user_id="+userID.String(), nil, nil)
	list = decode[listEntriesResponse](t, rec)
	if len(list.Items) != 1 || list.Items[0].ID != first.ID {
		t.Fatalf("expected only the first entry to remain, got %+v", list.Items)
	}
}

func TestDeleteMissingEntryIsNoOp(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	sess := register(t, h, "erin", "pw")
	addEntry(t, h, sess.User.ID, "2025-06-01", "expense", "bills", 500)

	rec := doJSON(t, h, http.MethodDelete, fmt.Sprintf("/v1/entries/%s?user_id=%s", uuid.New(), sess.User.ID), nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for missing id, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/entries?user_id="+sess.User.ID.String(), nil, nil)
	list := decode[listEntriesResponse](t, rec)
	if len(list.Items) != 1 {
		t.Fatalf("missing-id delete must not touch other entries, got %d", len(list.Items))
	}
}

func TestOwnerIsolation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	a := register(t, h, "frank", "pw")
	b := register(t, h, "grace", "pw")

	mine := addEntry(t, h, a.User.ID, "2025-06-01", "expense", "travel", 9900)
	addEntry(t, h, b.User.ID, "2025-06-01", "expense", "travel", 100)

	// grace cannot delete frank's entry through her own scope
	rec := doJSON(t, h, http.MethodDelete, fmt.Sprintf("/v1/entries/%s?user_id=%s", mine.ID, b.User.ID), nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("cross-owner delete should be a silent no-op, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/v1/entries?user_id="+a.User.ID.String(), nil, nil)
	list := decode[listEntriesResponse](t, rec)
	if len(list.Items) != 1 || list.Items[0].ID != mine.ID {
		t.Fatalf("frank's entry must survive grace's delete, got %+v", list.Items)
	}
	// listings never leak across owners
	rec = doJSON(t, h, http.MethodGet, "/v1/entries?user_id="+b.User.ID.String(), nil, nil)
	list = decode[listEntriesResponse](t, rec)
	if len(list.Items) != 1 || list.Items[0].AmountMinor != 100 {
		t.Fatalf("grace should only see her own entry, got %+v", list.Items)
	}
}

func TestRegisterBlankCredentials(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	// whitespace-only usernames pass the JSON-level check but are rejected
	// by the service after trimming; that must surface as a 400, not a 500
	rec := doJSON(t, h, http.MethodPost, "/v1/auth/register", credentialsRequest{Username: "   ", Password: "pw"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for whitespace username, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[errorResponse](t, rec)
	if resp.Error != "username is required" {
		t.Errorf("unexpected error message: %q", resp.Error)
	}
}

func TestEntryRejectsForeignCurrency(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	sess := register(t, h, "leo", "pw")
	userID := sess.User.ID

	addEntry(t, h, userID, "2025-06-15", "income", "salary", 1000)

	rec := doJSON(t, h, http.MethodPost, "/v1/entries", map[string]any{
		"user_id":      userID,
		"date":         "2025-06-15",
		"kind":         "income",
		"category":     "salary",
		"amount_minor": 1000,
		"currency":     "JPY",
	}, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a non-base currency, got %d: %s", rec.Code, rec.Body.String())
	}

	// the rejected entry must not leak into the totals
	rec = doJSON(t, h, http.MethodGet, "/v1/summary?user_id="+userID.String()+"&today=2025-06-15", nil, nil)
	sum := decode[summaryResponse](t, rec)
	if sum.TotalIncomeMinor != 1000 {
		t.Errorf("expected total income 1000, got %d", sum.TotalIncomeMinor)
	}
	if sum.Currency != "USD" {
		t.Errorf("expected summary in USD, got %s", sum.Currency)
	}
}

func TestEntryValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	sess := register(t, h, "heidi", "pw")

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"zero amount", map[string]any{"user_id": sess.User.ID, "date": "2025-06-01", "kind": "expense", "amount_minor": 0}, http.StatusUnprocessableEntity},
		{"negative amount", map[string]any{"user_id": sess.User.ID, "date": "2025-06-01", "kind": "income", "amount_minor": -5}, http.StatusUnprocessableEntity},
		{"bad kind", map[string]any{"user_id": sess.User.ID, "date": "2025-06-01", "kind": "transfer", "amount_minor": 100}, http.StatusUnprocessableEntity},
		{"bad date", map[string]any{"user_id": sess.User.ID, "date": "June 1st", "kind": "expense", "amount_minor": 100}, http.StatusUnprocessableEntity},
		{"unknown category", map[string]any{"user_id": sess.User.ID, "date": "2025-06-01", "kind": "expense", "category": "yachts", "amount_minor": 100}, http.StatusUnprocessableEntity},
		{"missing user", map[string]any{"date": "2025-06-01", "kind": "expense", "amount_minor": 100}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/v1/entries", tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestSummary(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	sess := register(t, h, "ivan", "pw")
	userID := sess.User.ID

	addEntry(t, h, userID, "2025-06-15", "income", "salary", 1000)
	addEntry(t, h, userID, "2025-06-15", "expense", "groceries", 250)

	rec := doJSON(t, h, http.MethodGet, "/v1/summary?user_id="+userID.String()+"&today=2025-06-15", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	sum := decode[summaryResponse](t, rec)
	if sum.TotalIncomeMinor != 1000 || sum.TotalExpenseMinor != 250 || sum.NetBalanceMinor != 750 {
		t.Errorf("unexpected totals: %+v", sum)
	}
	if sum.TodayExpenseMinor != 250 {
		t.Errorf("expected today expense 250, got %d", sum.TodayExpenseMinor)
	}
}

func TestSummaryMonthBuckets(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	sess := register(t, h, "judy", "pw")
	userID := sess.User.ID

	addEntry(t, h, userID, "2025-06-01", "expense", "bills", 100)
	addEntry(t, h, userID, "2025-06-20", "expense", "bills", 200)
	addEntry(t, h, userID, "2025-05-31", "expense", "bills", 400)

	rec := doJSON(t, h, http.MethodGet, "/v1/summary?user_id="+userID.String()+"&today=2025-06-20", nil, nil)
	sum := decode[summaryResponse](t, rec)
	if sum.MonthExpenseMinor != 300 {
		t.Errorf("expected month expense 300, got %d", sum.MonthExpenseMinor)
	}
	if sum.TodayExpenseMinor != 200 {
		t.Errorf("expected today expense 200, got %d", sum.TodayExpenseMinor)
	}
	if sum.TotalExpenseMinor != 700 {
		t.Errorf("expected total expense 700, got %d", sum.TotalExpenseMinor)
	}
}

func TestAdviceUnconfigured(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()
	sess := register(t, h, "kim", "pw")

	rec := doJSON(t, h, http.MethodPost, "/v1/advice", adviceRequest{UserID: sess.User.ID}, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an adviser, got %d", rec.Code)
	}
}

func TestAdviceConfigured(t *testing.T) {
	srv := newTestServerWithAdviser(t, stubAdviser{advice: "Save more."})
	h := srv.Handler()
	sess := register(t, h, "lisa", "pw")

	rec := doJSON(t, h, http.MethodPost, "/v1/advice", adviceRequest{UserID: sess.User.ID}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[adviceResponse](t, rec)
	if resp.Advice != "Save more." {
		t.Errorf("unexpected advice: %q", resp.Advice)
	}
}

func TestAnimate(t *testing.T) {
	srv := newTestServerWithAdviser(t, stubAdviser{uri: "https://example.com/out.mp4"})
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/v1/animate", animateRequest{Prompt: "make my receipts dance"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[animateResponse](t, rec)
	if resp.VideoURI != "https://example.com/out.mp4" {
		t.Errorf("unexpected uri: %q", resp.VideoURI)
	}

	rec = doJSON(t, h, http.MethodPost, "/v1/animate", animateRequest{}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a prompt, got %d", rec.Code)
	}
}

func TestAnimateUnconfigured(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/v1/animate", animateRequest{Prompt: "p"}, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an adviser, got %d", rec.Code)
	}
}

func TestCategories(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/v1/categories", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	out := decode[struct {
		Items []struct {
			Code  string `json:"code"`
			Label string `json:"label"`
		} `json:"items"`
	}](t, rec)
	if len(out.Items) == 0 {
		t.Fatal("expected a non-empty category list")
	}

	rec = doJSON(t, h, http.MethodGet, "/v1/categories?kind=income", nil, nil)
	filtered := decode[struct {
		Items []struct {
			Code string `json:"code"`
		} `json:"items"`
	}](t, rec)
	if len(filtered.Items) == 0 || len(filtered.Items) >= len(out.Items) {
		t.Errorf("kind filter should narrow the list: %d vs %d", len(filtered.Items), len(out.Items))
	}
}

func TestContentTypeEnforced(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", bytes.NewReader([]byte(`{"username":"x","password":"y"}`)))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, h, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
