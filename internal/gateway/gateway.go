// Package gateway serves the assistant chat API: it bridges an
// OpenAI-compatible model backend to the line-oriented `data: {json}` wire
// convention the client decoder consumes.
package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jpollari/goassistant/internal/llm"
)

// DefaultSystemPrompt steers the model toward the structured output the
// extractors understand: numbered lists with bold field labels for emails and
// calendar entries, [EMAIL] markers preserved from tool output.
const DefaultSystemPrompt = `You are a personal assistant that helps with email and calendar questions.
Be concise. When listing emails, format each as a numbered item:
"1. **From**: sender - **Date**: date - **Subject**: subject - **Content**: summary".
When listing calendar entries, format each as a numbered item:
"1. **Event**: title - **Location**: place - **Time**: time".
When showing a single raw email, keep its [EMAIL] marker and field labels unchanged.`

// Handler serves POST /api/chat as a frame stream and GET /api/health.
type Handler struct {
	Client llm.StreamClient
	Model  string
	// SystemPrompt overrides DefaultSystemPrompt when non-empty.
	SystemPrompt string
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

type frame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Routes returns a mux with the gateway endpoints mounted.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", h.handleChat)
	mux.HandleFunc("/api/health", h.handleHealth)
	return mux
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "empty message", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	system := h.SystemPrompt
	if system == "" {
		system = DefaultSystemPrompt
	}
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: req.Message},
	}

	writeFrame := func(f frame) error {
		payload, err := json.Marshal(f)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(append([]byte("data: "), payload...), '\n', '\n')); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	err := h.Client.StreamChat(r.Context(), h.Model, messages, func(delta string) error {
		return writeFrame(frame{Type: "content", Content: delta})
	})
	if err != nil {
		// Headers are long gone, so surface the failure as a control frame
		// for anyone watching the raw wire. Decoders skip non-content types,
		// so clients keep whatever text already streamed.
		_ = writeFrame(frame{Type: "tool_error", Content: err.Error()})
		log.Warn().Err(err).Str("conversation_id", req.ConversationID).Msg("model stream broke")
		return
	}
	log.Debug().Str("conversation_id", req.ConversationID).Msg("exchange streamed")
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
