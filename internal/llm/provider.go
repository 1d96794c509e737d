package llm

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// StreamClient is the minimal interface the gateway needs to stream a chat
// answer from a model. Deltas arrive in order through fn; returning an error
// from fn aborts the stream. Any OpenAI-compatible or local backend can be
// adapted.
type StreamClient interface {
	StreamChat(ctx context.Context, model string, messages []openai.ChatCompletionMessage, fn func(delta string) error) error
}

// OpenAIProvider adapts *openai.Client to StreamClient.
type OpenAIProvider struct {
	Inner *openai.Client
}

func (p *OpenAIProvider) StreamChat(ctx context.Context, model string, messages []openai.ChatCompletionMessage, fn func(delta string) error) error {
	s, err := p.Inner.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return err
	}
	defer s.Close()
	for {
		resp, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if delta := resp.Choices[0].Delta.Content; delta != "" {
			if err := fn(delta); err != nil {
				return err
			}
		}
	}
}
