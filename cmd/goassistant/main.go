package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jpollari/goassistant/internal/app"
	"github.com/jpollari/goassistant/internal/chat"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		serverBase    string
		serverUA      string
		message       string
		conversation  string
		configPath    string
		historyPath   string
		historyLimit  int
		historyOff    bool
		showHistory   bool
		pdfPath       string
		maxAttempts   int
		headerTimeout time.Duration
		verbose       bool
	)

	flag.StringVar(&serverBase, "server.base", os.Getenv("ASSISTANT_URL"), "Assistant API base URL")
	flag.StringVar(&serverUA, "server.ua", "goassistant/1.0 (+https://github.com/jpollari/goassistant)", "Custom User-Agent for assistant requests")
	flag.StringVar(&message, "m", "", "One-shot message; omit for interactive mode")
	flag.StringVar(&conversation, "conv", "", "Conversation id to continue")
	flag.StringVar(&configPath, "config", os.Getenv("ASSISTANT_CONFIG"), "Path to optional YAML config file")
	flag.StringVar(&historyPath, "history.path", ".goassistant/history.db", "Path to the exchange history database")
	flag.IntVar(&historyLimit, "history.limit", 20, "Maximum exchanges shown by -history")
	flag.BoolVar(&historyOff, "history.off", false, "Disable exchange persistence")
	flag.BoolVar(&showHistory, "history", false, "Print stored exchanges for -conv and exit")
	flag.StringVar(&pdfPath, "export.pdf", "", "Write each finished exchange to this PDF path")
	flag.IntVar(&maxAttempts, "transport.attempts", 2, "Transport attempts per exchange, including the first")
	flag.DurationVar(&headerTimeout, "transport.headerTimeout", 10*time.Second, "Bound on connection and response-header receipt")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		BaseURL:       serverBase,
		UserAgent:     serverUA,
		MaxAttempts:   maxAttempts,
		HeaderTimeout: headerTimeout,
		HistoryPath:   historyPath,
		HistoryLimit:  historyLimit,
		NoHistory:     historyOff,
		PDFPath:       pdfPath,
		Verbose:       verbose,
	}
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("config file unusable")
			os.Exit(1)
		}
		cfg = app.Merge(cfg, fc)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		log.Error().Msg("no assistant endpoint: set -server.base or ASSISTANT_URL")
		os.Exit(1)
	}

	if err := run(cfg, message, conversation, showHistory); err != nil {
		var te *chat.TransportError
		if errors.As(err, &te) {
			log.Error().Err(err).Msg("assistant unreachable")
			os.Exit(2)
		}
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(cfg app.Config, message, conversation string, showHistory bool) error {
	ctx := context.Background()

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if showHistory {
		return printHistory(ctx, a, conversation)
	}

	if strings.TrimSpace(message) != "" {
		_, err := exchange(ctx, a, message, conversation)
		return err
	}
	return interact(ctx, a, conversation)
}

// interact reads messages from stdin until EOF, carrying the conversation id
// across turns.
func interact(ctx context.Context, a *app.App, conversation string) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			return nil
		}
		conv, err := exchange(ctx, a, text, conversation)
		if err != nil {
			var te *chat.TransportError
			if errors.As(err, &te) {
				fmt.Fprintln(os.Stderr, "assistant unavailable; try again")
				continue
			}
			return err
		}
		conversation = conv
	}
}

// exchange runs one exchange, printing the answer incrementally and any
// extracted records afterwards. Returns the conversation id to continue with.
func exchange(ctx context.Context, a *app.App, text, conversation string) (string, error) {
	// Snapshots carry the full text each time; print only the unseen
	// suffix so duplicate snapshots render nothing twice.
	printed := 0
	a.Snapshot = func(full string) {
		if len(full) <= printed {
			return
		}
		fmt.Print(full[printed:])
		printed = len(full)
	}

	res, err := a.RunExchange(ctx, text, conversation)
	if err != nil {
		return conversation, err
	}
	fmt.Println()
	renderRecords(res)
	if res.ConversationID != "" {
		return res.ConversationID, nil
	}
	return conversation, nil
}

func renderRecords(res *app.ExchangeResult) {
	if len(res.Emails) > 0 {
		fmt.Printf("\n%d email(s):\n", len(res.Emails))
		for i, e := range res.Emails {
			fmt.Printf("  %d. %s (%s)\n     %s\n     %s\n", i+1, e.From, e.Date, e.Subject, firstLine(e.Content))
		}
	}
	if len(res.Events) > 0 {
		fmt.Printf("\n%d event(s):\n", len(res.Events))
		for i, ev := range res.Events {
			fmt.Printf("  %d. %s @ %s (%s)\n", i+1, ev.Event, ev.Location, ev.Time)
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func printHistory(ctx context.Context, a *app.App, conversation string) error {
	exchanges, err := a.Recent(ctx, conversation)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	for _, ex := range exchanges {
		fmt.Printf("[%s] (%s) %s\n", ex.CreatedAt.Format(time.RFC3339), ex.Kind, ex.Question)
		fmt.Println(indent(ex.Answer, "    "))
	}
	return nil
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
