// Package classify decides the structural kind of a completed answer.
package classify

import "strings"

// Kind is the classification of a finished exchange's text. Every text maps
// to exactly one kind; there is no confidence score.
type Kind int

const (
	PlainText Kind = iota
	EmailList
	CalendarList
)

func (k Kind) String() string {
	switch k {
	case EmailList:
		return "emails"
	case CalendarList:
		return "calendar"
	default:
		return "text"
	}
}

// Marker literals the assistant uses when formatting structured answers.
const (
	emailMarker    = "**From**"
	eventMarker    = "**Event**"
	locationMarker = "**Location**"
)

// Classify runs three ordered checks with short-circuit evaluation. The email
// marker is checked first: a calendar-looking text can contain incidental
// date or location substrings, while the email marker is the stronger signal
// and always wins.
func Classify(text string) Kind {
	if strings.Contains(text, emailMarker) {
		return EmailList
	}
	if strings.Contains(text, eventMarker) && strings.Contains(text, locationMarker) {
		return CalendarList
	}
	return PlainText
}
