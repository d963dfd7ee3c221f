package courrier

import (
	"sort"
	"strings"
)

// SortField names a sortable column
type SortField string

const (
	SortNone      SortField = ""
	SortSequence  SortField = "sequence"
	SortSubject   SortField = "subject"
	SortSender    SortField = "sender"
	SortRecipient SortField = "recipient"
	SortStatus    SortField = "status"
	SortReceived  SortField = "received"
	SortCreatedAt SortField = "created"
	SortUpdatedAt SortField = "updated"
)

// SortFields lists the sortable columns in the order the UI cycles them
func SortFields() []SortField {
	return []SortField{SortNone, SortSequence, SortSubject, SortSender, SortRecipient, SortStatus, SortReceived, SortCreatedAt, SortUpdatedAt}
}

// Filter narrows and orders a collection for display
type Filter struct {
	// Search matches case-insensitively against the text fields
	Search string
	// Status keeps only records whose canonical status matches
	Status Status
	SortBy SortField
	Desc   bool
}

// Matches reports whether r passes the search and status criteria
func (f Filter) Matches(r Record) bool {
	if f.Status != "" && r.Status.Canonical() != f.Status.Canonical() {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	for _, v := range []string{r.Subject, r.Sender, r.Recipient, r.Reference, r.SequenceNumber, r.Notes, r.Channel} {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

// ApplyFilter returns the matching records, sorted when SortBy is set.
// Without a sort key the stored newest-first order is kept.
func ApplyFilter(records []Record, f Filter) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	if f.SortBy == SortNone {
		return out
	}
	less := lessFunc(f.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		if f.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(field SortField) func(a, b Record) bool {
	fold := func(s string) string { return strings.ToLower(s) }
	switch field {
	case SortSequence:
		return func(a, b Record) bool { return a.SequenceNumber < b.SequenceNumber }
	case SortSubject:
		return func(a, b Record) bool { return fold(a.Subject) < fold(b.Subject) }
	case SortSender:
		return func(a, b Record) bool { return fold(a.Sender) < fold(b.Sender) }
	case SortRecipient:
		return func(a, b Record) bool { return fold(a.Recipient) < fold(b.Recipient) }
	case SortStatus:
		return func(a, b Record) bool { return a.Status.Canonical() < b.Status.Canonical() }
	case SortReceived:
		return func(a, b Record) bool { return a.ReceptionDate().Before(b.ReceptionDate()) }
	case SortUpdatedAt:
		return func(a, b Record) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	default:
		return func(a, b Record) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}

// ParseSortField accepts a column name; unknown names mean no sorting
func ParseSortField(s string) SortField {
	want := SortField(strings.ToLower(strings.TrimSpace(s)))
	for _, f := range SortFields() {
		if f == want {
			return f
		}
	}
	return SortNone
}
