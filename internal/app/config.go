package app

import "time"

// Config holds runtime configuration for the client.
type Config struct {
	// Server
	BaseURL   string
	UserAgent string

	// Transport
	MaxAttempts   int
	HeaderTimeout time.Duration

	// History
	HistoryPath  string
	HistoryLimit int
	NoHistory    bool

	// Export
	PDFPath string

	// Behavior
	Verbose bool
}
