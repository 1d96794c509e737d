package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jpollari/goassistant/internal/chat"
	"github.com/jpollari/goassistant/internal/classify"
)

// assistantStub streams the given answer one frame per word.
func assistantStub(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		words := strings.SplitAfter(answer, " ")
		for _, word := range words {
			payload, _ := json.Marshal(map[string]string{"type": "content", "content": word})
			_, _ = w.Write(append(append([]byte("data: "), payload...), '\n', '\n'))
			if fl, ok := w.(http.Flusher); ok {
				fl.Flush()
			}
		}
	}))
}

func TestRunExchange_EmailAnswer(t *testing.T) {
	answer := "Here you go:\n1. **From**: a@x.com - **Date**: Mon - **Subject**: Hi - **Content**: <p>hello <b>there</b></p>"
	srv := assistantStub(t, answer)
	defer srv.Close()

	a, err := New(Config{
		BaseURL:     srv.URL,
		HistoryPath: filepath.Join(t.TempDir(), "h.db"),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	var snapshots int
	a.Snapshot = func(string) { snapshots++ }

	res, err := a.RunExchange(context.Background(), "show my emails", "c1")
	if err != nil {
		t.Fatalf("run exchange: %v", err)
	}
	if res.Kind != classify.EmailList {
		t.Fatalf("kind = %v, want EmailList", res.Kind)
	}
	if len(res.Emails) != 1 {
		t.Fatalf("emails = %+v, want one", res.Emails)
	}
	if res.Emails[0].Content != "hello there" {
		t.Fatalf("html not flattened: %q", res.Emails[0].Content)
	}
	if snapshots == 0 {
		t.Fatal("observer never invoked")
	}

	saved, err := a.Recent(context.Background(), "c1")
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(saved) != 1 || saved[0].Kind != "emails" {
		t.Fatalf("exchange not persisted: %+v", saved)
	}
}

func TestRunExchange_PlainAnswerSkipsExtraction(t *testing.T) {
	srv := assistantStub(t, "The weather looks fine tomorrow.")
	defer srv.Close()

	a, err := New(Config{BaseURL: srv.URL, NoHistory: true})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	res, err := a.RunExchange(context.Background(), "weather?", "")
	if err != nil {
		t.Fatalf("run exchange: %v", err)
	}
	if res.Kind != classify.PlainText || len(res.Emails) != 0 || len(res.Events) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestRunExchange_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a, err := New(Config{BaseURL: srv.URL, NoHistory: true})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	_, err = a.RunExchange(context.Background(), "hi", "")
	var te *chat.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestRunExchange_PDFExport(t *testing.T) {
	srv := assistantStub(t, "1. **Event**: Standup - **Location**: Room 2 - **Time**: 9:00")
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "exchange.pdf")
	a, err := New(Config{BaseURL: srv.URL, NoHistory: true, PDFPath: out})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	res, err := a.RunExchange(context.Background(), "calendar?", "")
	if err != nil {
		t.Fatalf("run exchange: %v", err)
	}
	if res.Kind != classify.CalendarList || len(res.Events) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if fi, err := os.Stat(out); err != nil || fi.Size() == 0 {
		t.Fatalf("missing or empty pdf: %v", err)
	}
}
