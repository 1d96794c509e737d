// Package records extracts typed records from the semi-structured answers the
// assistant produces for email and calendar queries. Extraction is
// pattern-based: a small grammar of ordered field labels where each value
// extends to the next label or to the end of its segment.
package records

import (
	"regexp"
	"strings"
)

// Email is one extracted email record. Every field is non-empty after
// trimming; a candidate block missing any field yields no record.
type Email struct {
	From    string
	Date    string
	Subject string
	Content string
}

// Event is one extracted calendar record, same presence invariant.
type Event struct {
	Event    string
	Location string
	Time     string
}

// numberedItemRe matches the numbered-list delimiters ("1.", "2.", ...) the
// assistant uses between records.
var numberedItemRe = regexp.MustCompile(`\d+\.`)

// emailBlockMarker delimits single-email style answers where the assistant
// preserved the raw tool output instead of a numbered list.
const emailBlockMarker = "[EMAIL]"

// Field labels per record kind, in fixed order. A field's value is the text
// between its own label and the next label in the table; the last field runs
// to the end of the segment. Adding a field or a record kind is a table edit.
var (
	emailLabels = []string{"**From**", "**Date**", "**Subject**", "**Content**"}
	eventLabels = []string{"**Event**", "**Location**", "**Time**"}
)

// signoffPhrases identify segments that are assistant commentary rather than
// records. Matching is case-insensitive substring.
var signoffPhrases = []string{
	"let me know if you need",
	"let me know if you'd like",
	"let me know if there's anything",
	"is there anything else",
	"feel free to ask",
	"hope this helps",
}

// ParseEmails extracts email records from a numbered-list answer. The text
// before the first numbered item is preamble and is discarded, as is any
// segment carrying a conversational sign-off. Ordering follows the text; an
// input with no items yields an empty slice, never an error.
func ParseEmails(text string) []Email {
	segments := numberedItemRe.Split(text, -1)
	if len(segments) <= 1 {
		return nil
	}
	out := make([]Email, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		if isSignoff(seg) {
			continue
		}
		fields, ok := extractFields(seg, emailLabels)
		if !ok {
			continue
		}
		out = append(out, Email{From: fields[0], Date: fields[1], Subject: fields[2], Content: fields[3]})
	}
	return out
}

// ParseEmailBlocks extracts email records from text delimited by [EMAIL]
// block markers instead of a numbered list. Everything after each marker is
// one candidate block. Block-marker input is pure tool output, so no sign-off
// filter applies here; the two entry points stay separate on purpose.
func ParseEmailBlocks(text string) []Email {
	segments := strings.Split(text, emailBlockMarker)
	if len(segments) <= 1 {
		return nil
	}
	out := make([]Email, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		fields, ok := extractFields(seg, emailLabels)
		if !ok {
			continue
		}
		out = append(out, Email{From: fields[0], Date: fields[1], Subject: fields[2], Content: fields[3]})
	}
	return out
}

// ParseEvents extracts calendar records from a numbered-list answer.
// Malformed or partial segments are skipped; the function is total and a
// structureless input simply yields an empty slice.
func ParseEvents(text string) []Event {
	segments := numberedItemRe.Split(text, -1)
	if len(segments) <= 1 {
		return nil
	}
	out := make([]Event, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		fields, ok := extractFields(seg, eventLabels)
		if !ok {
			continue
		}
		out = append(out, Event{Event: fields[0], Location: fields[1], Time: fields[2]})
	}
	return out
}

// extractFields applies the label table to one segment. All labels must be
// present with non-empty values, in any byte positions as long as each value
// boundary (the next label) follows its own label.
func extractFields(segment string, labels []string) ([]string, bool) {
	values := make([]string, len(labels))
	for i, label := range labels {
		start := strings.Index(segment, label)
		if start < 0 {
			return nil, false
		}
		rest := segment[start+len(label):]
		end := len(rest)
		if i+1 < len(labels) {
			next := strings.Index(rest, labels[i+1])
			if next < 0 {
				return nil, false
			}
			end = next
		}
		v := cleanValue(rest[:end])
		if v == "" {
			return nil, false
		}
		values[i] = v
	}
	return values, true
}

// cleanValue strips the label's colon and the " - " separator the assistant
// places between fields.
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, ":")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "-")
	return strings.TrimSpace(s)
}

func isSignoff(segment string) bool {
	lower := strings.ToLower(segment)
	for _, phrase := range signoffPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
