package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jpollari/goassistant/internal/gateway"
	"github.com/jpollari/goassistant/internal/llm"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		addr         string
		model        string
		llmBaseURL   string
		systemPrompt string
		verbose      bool
	)

	flag.StringVar(&addr, "addr", envOr("ADDR", ":8000"), "Listen address")
	flag.StringVar(&model, "model", envOr("MODEL_ID", "gpt-4o-mini"), "Model id sent to the backend")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible backend base URL (empty for api.openai.com)")
	flag.StringVar(&systemPrompt, "prompt", "", "System prompt override")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	transportCfg := openai.DefaultConfig(os.Getenv("LLM_API_KEY"))
	if llmBaseURL != "" {
		transportCfg.BaseURL = llmBaseURL
	}
	client := openai.NewClientWithConfig(transportCfg)

	h := &gateway.Handler{
		Client:       &llm.OpenAIProvider{Inner: client},
		Model:        model,
		SystemPrompt: systemPrompt,
	}

	log.Info().Str("addr", addr).Str("model", model).Msg("assistant gateway listening")
	if err := http.ListenAndServe(addr, h.Routes()); err != nil {
		log.Error().Err(err).Msg("gateway stopped")
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
