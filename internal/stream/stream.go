// Package stream decodes the assistant's line-oriented response stream into a
// growing plain-text answer. One Decoder owns exactly one exchange.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
)

// FramePrefix marks the wire lines that carry a JSON frame payload. Lines
// without it are ignored.
const FramePrefix = "data: "

// Frame is one parsed line of the wire payload. Only the "content" variant
// carries answer text; other types are control signals the decoder skips.
type Frame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

const frameContent = "content"

// Observer receives the full accumulated text after every frame that advances
// it, not the delta. Consumers replace their displayed text with each
// snapshot, so duplicate emissions are harmless.
type Observer func(text string)

// Result is the terminal value of one decoded exchange.
type Result struct {
	Text           string
	ConversationID string
}

// Decoder reassembles an arbitrary-granularity chunk stream into a single
// answer. Chunk boundaries carry no meaning: a chunk may split a line, a JSON
// payload, or a multi-byte character, and empty chunks are legal.
type Decoder struct {
	// Observer, when non-nil, runs synchronously on the decode goroutine.
	// Slow observers delay this stream only.
	Observer Observer
	// ConversationID is an opaque correlation value passed through untouched
	// to the Result.
	ConversationID string

	buf  []byte
	text strings.Builder
}

// Decode consumes r until EOF and returns the final accumulated text. A
// residual unterminated line at EOF is processed best-effort. Cancelling ctx
// stops decoding without error and without further observer calls; a read
// failure mid-stream returns the text captured so far alongside the error.
func (d *Decoder) Decode(ctx context.Context, r io.Reader) (Result, error) {
	chunk := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return d.finish(false), nil
		default:
		}
		n, err := r.Read(chunk)
		if n > 0 {
			d.feed(ctx, chunk[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return d.finish(true), nil
			}
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return d.finish(false), nil
			}
			return d.finish(false), fmt.Errorf("read stream: %w", err)
		}
	}
}

// feed appends a chunk to the line buffer and processes every complete line.
// The trailing partial line stays buffered until the next chunk or EOF.
// Cancellation is honored between lines so the observer never fires after the
// caller stops the exchange.
func (d *Decoder) feed(ctx context.Context, p []byte) {
	d.buf = append(d.buf, p...)
	for {
		if ctx.Err() != nil {
			return
		}
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return
		}
		line := string(d.buf[:i])
		d.buf = d.buf[i+1:]
		d.processLine(line)
	}
}

func (d *Decoder) processLine(line string) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, FramePrefix) {
		return
	}
	payload := line[len(FramePrefix):]
	if strings.TrimSpace(payload) == "" {
		return
	}
	var f Frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		// One malformed frame must never abort the stream.
		log.Debug().Err(err).Int("payload_len", len(payload)).Msg("dropping malformed frame")
		return
	}
	if f.Type != frameContent || f.Content == "" {
		return
	}
	d.text.WriteString(f.Content)
	if d.Observer != nil {
		d.Observer(d.text.String())
	}
}

func (d *Decoder) finish(flushResidual bool) Result {
	if flushResidual && len(d.buf) > 0 {
		d.processLine(string(d.buf))
	}
	d.buf = nil
	return Result{
		Text:           norm.NFC.String(d.text.String()),
		ConversationID: d.ConversationID,
	}
}
