package courrier

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Status is the processing state of a record as persisted. Older data may
// carry alternate spellings; use Canonical for display and counting.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusProcessed  Status = "PROCESSED"
	StatusArchived   Status = "ARCHIVED"

	// StatusUnknown is display-only and never written by the store
	StatusUnknown Status = "UNKNOWN"
)

// CanonicalStatuses lists the four states a record can be moved to
func CanonicalStatuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusProcessed, StatusArchived}
}

var statusSynonyms = map[string]Status{
	"pending":     StatusPending,
	"en attente":  StatusPending,
	"in progress": StatusInProgress,
	"en cours":    StatusInProgress,
	"processed":   StatusProcessed,
	"completed":   StatusProcessed,
	"traite":      StatusProcessed,
	"archived":    StatusArchived,
	"archive":     StatusArchived,
}

// NormalizeStatus maps any known spelling onto the canonical set. Separators
// (underscore, dash, space), case and accents are ignored. Anything else is
// StatusUnknown; no guess is made for unrecognized values.
func NormalizeStatus(raw string) Status {
	key := foldStatus(raw)
	if key == "" {
		return StatusUnknown
	}
	if s, ok := statusSynonyms[key]; ok {
		return s
	}
	return StatusUnknown
}

// Canonical returns the normalized form of s
func (s Status) Canonical() Status {
	return NormalizeStatus(string(s))
}

// IsCanonical reports whether s is already spelled canonically
func (s Status) IsCanonical() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusProcessed, StatusArchived:
		return true
	}
	return false
}

// Label returns the display label; unrecognized values show their raw text
func (s Status) Label() string {
	switch s.Canonical() {
	case StatusPending:
		return "En attente"
	case StatusInProgress:
		return "En cours"
	case StatusProcessed:
		return "Traité"
	case StatusArchived:
		return "Archivé"
	}
	if strings.TrimSpace(string(s)) == "" {
		return "Inconnu"
	}
	return string(s)
}

func foldStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
