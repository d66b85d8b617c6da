package advisor

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/money"

	"github.com/tallyhq/tally/internal/ledger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBaseURL(url)}, opts...)
	c, err := New(context.Background(), "test-key", "gemini-2.0-flash", discardLogger(), opts...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func sampleEntries(t *testing.T) []ledger.Entry {
	t.Helper()
	amt, err := money.NewAmountFromMinorUnits("USD", 1234)
	if err != nil {
		t.Fatalf("amount: %v", err)
	}
	return []ledger.Entry{{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		OccurredOn: ledger.Date("2025-01-02"),
		Kind:       ledger.KindExpense,
		Category:   ledger.CategoryGroceries,
		Amount:     amt,
		CreatedAt:  time.Now(),
	}}
}

func TestAdvise(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Contents []struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": "  Save more.\nSpend less.\nInvest.  "}},
				},
			}},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	advice, err := c.Advise(context.Background(), "alice", sampleEntries(t))
	if err != nil {
		t.Fatalf("advise: %v", err)
	}
	if advice != "Save more.\nSpend less.\nInvest." {
		t.Errorf("unexpected advice: %q", advice)
	}
	if !strings.HasSuffix(gotPath, "/models/gemini-2.0-flash:generateContent") {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if len(gotBody.Contents) == 0 || len(gotBody.Contents[0].Parts) == 0 {
		t.Fatalf("request carried no prompt: %+v", gotBody)
	}
	prompt := gotBody.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "alice") {
		t.Errorf("prompt missing username: %q", prompt)
	}
	if !strings.Contains(prompt, "2025-01-02") || !strings.Contains(prompt, "groceries") {
		t.Errorf("prompt missing entry details: %q", prompt)
	}
}

func TestAdviseEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.Advise(context.Background(), "bob", nil); err != ErrNoAdvice {
		t.Fatalf("expected ErrNoAdvice, got %v", err)
	}
}

func TestAdviseServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.Advise(context.Background(), "bob", nil); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestAnimateImagePollsUntilDone(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, ":predictLongRunning") {
			_, _ = w.Write([]byte(`{"name":"operations/op-1","done":false}`))
			return
		}
		polls++
		if polls < 2 {
			_, _ = w.Write([]byte(`{"name":"operations/op-1","done":false}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"name": "operations/op-1",
			"done": true,
			"response": {"generateVideoResponse": {"generatedSamples": [{"video": {"uri": "https://example.com/out.mp4"}}]}}
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithPollInterval(time.Millisecond))
	uri, err := c.AnimateImage(context.Background(), "make it rain", "", "")
	if err != nil {
		t.Fatalf("animate: %v", err)
	}
	if uri != "https://example.com/out.mp4" {
		t.Errorf("unexpected uri: %s", uri)
	}
	if polls < 2 {
		t.Errorf("expected at least 2 polls, got %d", polls)
	}
}

func TestAnimateImageCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"operations/op-2","done":false}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	c := newTestClient(t, srv.URL, WithPollInterval(time.Hour))
	if _, err := c.AnimateImage(ctx, "p", "", ""); err != context.DeadlineExceeded {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}
