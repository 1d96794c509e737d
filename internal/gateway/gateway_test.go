package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jpollari/goassistant/internal/chat"
	"github.com/jpollari/goassistant/internal/stream"
)

// scriptedClient replays fixed deltas and records the prompt it was given.
type scriptedClient struct {
	deltas   []string
	err      error
	messages []openai.ChatCompletionMessage
}

func (s *scriptedClient) StreamChat(ctx context.Context, model string, messages []openai.ChatCompletionMessage, fn func(delta string) error) error {
	s.messages = messages
	for _, d := range s.deltas {
		if err := fn(d); err != nil {
			return err
		}
	}
	return s.err
}

func TestGateway_EndToEndDecode(t *testing.T) {
	sc := &scriptedClient{deltas: []string{"1. **From**: a@x.com - ", "**Date**: Mon - **Subject**: Hi - ", "**Content**: test"}}
	h := &Handler{Client: sc, Model: "test-model"}
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	c := &chat.Client{BaseURL: srv.URL, MaxAttempts: 1}
	body, err := c.Open(context.Background(), chat.Message{Text: "show my emails", ConversationID: "c9"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer body.Close()

	d := &stream.Decoder{ConversationID: "c9"}
	res, err := d.Decode(context.Background(), body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := "1. **From**: a@x.com - **Date**: Mon - **Subject**: Hi - **Content**: test"
	if res.Text != want {
		t.Fatalf("got %q, want %q", res.Text, want)
	}
	if len(sc.messages) != 2 || sc.messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("unexpected prompt shape: %+v", sc.messages)
	}
	if sc.messages[1].Content != "show my emails" {
		t.Fatalf("user message lost: %+v", sc.messages[1])
	}
}

func TestGateway_RejectsBadRequests(t *testing.T) {
	h := &Handler{Client: &scriptedClient{}, Model: "m"}
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/chat")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET status = %d, want 405", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/chat", "application/json", strings.NewReader(`{"message":""}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty message status = %d, want 400", resp.StatusCode)
	}
}

func TestGateway_BrokenModelStreamKeepsPartial(t *testing.T) {
	sc := &scriptedClient{deltas: []string{"partial "}, err: errors.New("upstream hiccup")}
	h := &Handler{Client: sc, Model: "m"}
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	c := &chat.Client{BaseURL: srv.URL, MaxAttempts: 1}
	body, err := c.Open(context.Background(), chat.Message{Text: "hi"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer body.Close()

	d := &stream.Decoder{}
	res, err := d.Decode(context.Background(), body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Text != "partial " {
		t.Fatalf("got %q, want %q", res.Text, "partial ")
	}
}

func TestGateway_Health(t *testing.T) {
	h := &Handler{Client: &scriptedClient{}, Model: "m"}
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	c := &chat.Client{BaseURL: srv.URL}
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}
