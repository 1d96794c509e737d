// Package app wires the transport, decoder, classifier, and extractors into
// one exchange pipeline.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jpollari/goassistant/internal/chat"
	"github.com/jpollari/goassistant/internal/classify"
	"github.com/jpollari/goassistant/internal/history"
	"github.com/jpollari/goassistant/internal/htmltext"
	"github.com/jpollari/goassistant/internal/records"
	"github.com/jpollari/goassistant/internal/stream"
	"github.com/jpollari/goassistant/internal/transcript"
)

// ExchangeResult is what one finished exchange yields: the final text, its
// classification, and any records extracted for the structured kinds.
type ExchangeResult struct {
	Text           string
	Kind           classify.Kind
	Emails         []records.Email
	Events         []records.Event
	ConversationID string
}

// App runs exchanges against one assistant endpoint.
type App struct {
	cfg    Config
	client *chat.Client
	store  *history.Store

	// Snapshot, when non-nil, receives the full accumulated text after
	// every content frame. Callers replace their display with each call.
	Snapshot func(text string)
}

// New builds the app, opening the history store unless disabled.
func New(cfg Config) (*App, error) {
	a := &App{
		cfg: cfg,
		client: &chat.Client{
			BaseURL:       cfg.BaseURL,
			UserAgent:     cfg.UserAgent,
			MaxAttempts:   cfg.MaxAttempts,
			HeaderTimeout: cfg.HeaderTimeout,
		},
	}
	if !cfg.NoHistory && cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.store = store
	}
	return a, nil
}

// Close releases the history store.
func (a *App) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

// RunExchange sends one message, decodes the streamed answer, classifies it,
// and extracts records. The exchange is persisted and optionally exported;
// both are best-effort and never fail the exchange itself.
func (a *App) RunExchange(ctx context.Context, text, conversationID string) (*ExchangeResult, error) {
	body, err := a.client.Open(ctx, chat.Message{Text: text, ConversationID: conversationID})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	dec := &stream.Decoder{Observer: a.Snapshot, ConversationID: conversationID}
	res, err := dec.Decode(ctx, body)
	if err != nil {
		// Transport broke mid-stream. The caller keeps what was observed.
		return nil, fmt.Errorf("exchange stream: %w", err)
	}

	out := &ExchangeResult{Text: res.Text, ConversationID: res.ConversationID}
	out.Kind = classify.Classify(res.Text)
	switch out.Kind {
	case classify.EmailList:
		out.Emails = records.ParseEmails(res.Text)
		for i := range out.Emails {
			out.Emails[i].Content = htmltext.Flatten(out.Emails[i].Content)
		}
	case classify.CalendarList:
		out.Events = records.ParseEvents(res.Text)
	}
	log.Debug().
		Stringer("kind", out.Kind).
		Int("emails", len(out.Emails)).
		Int("events", len(out.Events)).
		Int("text_len", len(out.Text)).
		Msg("exchange decoded")

	if a.store != nil {
		_, err := a.store.Save(ctx, history.Exchange{
			ConversationID: out.ConversationID,
			Question:       text,
			Answer:         out.Text,
			Kind:           out.Kind.String(),
		})
		if err != nil {
			log.Warn().Err(err).Msg("history save failed; continuing")
		}
	}

	if a.cfg.PDFPath != "" {
		err := transcript.Write(transcript.Exchange{
			Question: text,
			Answer:   out.Text,
			Emails:   out.Emails,
			Events:   out.Events,
		}, a.cfg.PDFPath)
		if err != nil {
			log.Warn().Err(err).Str("out", a.cfg.PDFPath).Msg("pdf export failed; continuing")
		} else {
			log.Info().Str("out", a.cfg.PDFPath).Msg("wrote transcript")
		}
	}

	return out, nil
}

// Recent surfaces persisted exchanges for a conversation, oldest first.
func (a *App) Recent(ctx context.Context, conversationID string) ([]history.Exchange, error) {
	if a.store == nil {
		return nil, nil
	}
	return a.store.Recent(ctx, conversationID, a.cfg.HistoryLimit)
}

// Health probes the assistant endpoint.
func (a *App) Health(ctx context.Context) error {
	return a.client.Health(ctx)
}
