package courrier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// JSON field names of a persisted record
const (
	FieldID             = "id"
	FieldDirection      = "direction"
	FieldSequenceNumber = "sequenceNumber"
	FieldStatus         = "status"
	FieldSubject        = "subject"
	FieldSender         = "sender"
	FieldRecipient      = "recipient"
	FieldChannel        = "channel"
	FieldReference      = "reference"
	FieldNotes          = "notes"
	FieldAttachments    = "attachments"
	FieldReceivedAt     = "receivedAt"
	FieldCreatedAt      = "createdAt"
	FieldUpdatedAt      = "updatedAt"
)

// legacyFields lists the names older versions used for the same data, in
// order of preference. They are read only when the canonical name is
// absent, and never written back.
var legacyFields = map[string][]string{
	FieldDirection:      {"type"},
	FieldSequenceNumber: {"numero"},
	FieldStatus:         {"statut"},
	FieldSubject:        {"objet"},
	FieldSender:         {"expediteur"},
	FieldRecipient:      {"destinataire"},
	FieldChannel:        {"canal"},
	FieldNotes:          {"observations"},
	FieldAttachments:    {"files", "fichiers"},
	FieldReceivedAt:     {"dateReception", "date"},
	FieldCreatedAt:      {"dateCreation"},
}

// legacyNames is the reverse of legacyFields
var legacyNames = func() map[string]bool {
	out := make(map[string]bool)
	for _, alts := range legacyFields {
		for _, alt := range alts {
			out[alt] = true
		}
	}
	return out
}()

// DateLayout is how a date without a time of day is written
const DateLayout = "2006-01-02"

// Record is one correspondence entry. Fields the registry does not know
// about are kept in Extra and written back untouched.
type Record struct {
	ID             string
	Direction      Direction
	SequenceNumber string
	Status         Status
	Subject        string
	Sender         string
	Recipient      string
	Channel        string
	Reference      string
	Notes          string
	Attachments    Attachments
	// ReceivedAt is when the letter arrived or left; zero when unknown
	ReceivedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Extra map[string]json.RawMessage
}

// Clone returns a deep copy of r
func (r Record) Clone() Record {
	out := r
	if r.Attachments != nil {
		out.Attachments = append(Attachments(nil), r.Attachments...)
	}
	if r.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// ReceptionDate is ReceivedAt, or CreatedAt for records that never had one
func (r Record) ReceptionDate() time.Time {
	if !r.ReceivedAt.IsZero() {
		return r.ReceivedAt
	}
	return r.CreatedAt
}

// CloneRecords deep-copies a list
func CloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// MarshalJSON writes the typed fields over the preserved extras. Legacy
// names of typed fields are dropped so a stale value cannot outlive the
// canonical one.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Extra)+14)
	for k, v := range r.Extra {
		if legacyNames[k] {
			continue
		}
		out[k] = v
	}
	put := func(key string, v interface{}) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", key, err)
		}
		out[key] = b
		return nil
	}
	texts := []struct {
		key string
		val string
	}{
		{FieldID, r.ID},
		{FieldDirection, string(r.Direction)},
		{FieldSequenceNumber, r.SequenceNumber},
		{FieldStatus, string(r.Status)},
		{FieldSubject, r.Subject},
		{FieldSender, r.Sender},
		{FieldRecipient, r.Recipient},
		{FieldChannel, r.Channel},
		{FieldReference, r.Reference},
		{FieldNotes, r.Notes},
	}
	for _, t := range texts {
		if t.val == "" {
			continue
		}
		if err := put(t.key, t.val); err != nil {
			return nil, err
		}
	}
	if len(r.Attachments) > 0 {
		if err := put(FieldAttachments, []Attachment(r.Attachments)); err != nil {
			return nil, err
		}
	}
	if !r.ReceivedAt.IsZero() {
		if err := put(FieldReceivedAt, FormatReceived(r.ReceivedAt)); err != nil {
			return nil, err
		}
	}
	if !r.CreatedAt.IsZero() {
		if err := put(FieldCreatedAt, r.CreatedAt); err != nil {
			return nil, err
		}
	}
	if !r.UpdatedAt.IsZero() {
		if err := put(FieldUpdatedAt, r.UpdatedAt); err != nil {
			return nil, err
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits an object into typed fields and extras. Values of the
// wrong shape for a typed field stay in Extra instead of failing the decode.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("record is not a JSON object")
	}
	*r = Record{}

	// take removes key and all its legacy names, returning the preferred
	// value present
	take := func(key string) (json.RawMessage, bool) {
		v, found := raw[key]
		delete(raw, key)
		for _, alt := range legacyFields[key] {
			if av, ok := raw[alt]; ok && !found {
				v, found = av, true
			}
			delete(raw, alt)
		}
		return v, found
	}
	text := func(key string, dst *string) {
		v, ok := take(key)
		if !ok {
			return
		}
		s, ok := decodeText(v)
		if !ok {
			raw[key] = v
			return
		}
		*dst = s
	}
	stamp := func(key string, dst *time.Time, layouts ...string) {
		v, ok := take(key)
		if !ok {
			return
		}
		s, ok := decodeText(v)
		if !ok || s == "" {
			if !ok {
				raw[key] = v
			}
			return
		}
		t, err := parseStamp(s, layouts...)
		if err != nil {
			raw[key] = v
			return
		}
		*dst = t
	}

	var direction, status string
	text(FieldID, &r.ID)
	text(FieldDirection, &direction)
	text(FieldSequenceNumber, &r.SequenceNumber)
	text(FieldStatus, &status)
	text(FieldSubject, &r.Subject)
	text(FieldSender, &r.Sender)
	text(FieldRecipient, &r.Recipient)
	text(FieldChannel, &r.Channel)
	text(FieldReference, &r.Reference)
	text(FieldNotes, &r.Notes)
	stamp(FieldReceivedAt, &r.ReceivedAt, DateLayout)
	stamp(FieldCreatedAt, &r.CreatedAt)
	stamp(FieldUpdatedAt, &r.UpdatedAt)
	if v, ok := take(FieldAttachments); ok {
		r.Attachments = decodeAttachments(v)
	}
	if direction != "" {
		r.Direction = legacyDirection(direction)
	}
	r.Status = Status(status)

	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

// parseStamp reads an RFC 3339 timestamp, then each extra layout in turn
func parseStamp(s string, layouts ...string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	for _, l := range layouts {
		if lt, lerr := time.Parse(l, s); lerr == nil {
			return lt, nil
		}
	}
	return time.Time{}, err
}

// FormatReceived writes a reception time as a plain date when it carries no
// time of day
func FormatReceived(t time.Time) string {
	if t.Equal(t.Truncate(24*time.Hour)) && t.Location() == time.UTC {
		return t.Format(DateLayout)
	}
	return t.Format(time.RFC3339Nano)
}

// ParseReceived reads a reception date typed by a user: a plain date or a
// full timestamp. Blank input yields the zero time.
func ParseReceived(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := parseStamp(s, DateLayout, "02/01/2006")
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reception date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// decodeText reads a JSON scalar as text. Objects and arrays are rejected.
func decodeText(v json.RawMessage) (string, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return "", true
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	}
	if bytes.Equal(v, []byte("true")) || bytes.Equal(v, []byte("false")) {
		return string(v), true
	}
	if _, err := strconv.ParseFloat(string(v), 64); err == nil {
		return string(v), true
	}
	return "", false
}

// DecodeRecords parses a persisted JSON array
func DecodeRecords(data []byte) ([]Record, error) {
	var list []Record
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// EncodeRecords serializes a list as a JSON array; nil encodes as []
func EncodeRecords(list []Record) ([]byte, error) {
	if list == nil {
		list = []Record{}
	}
	return json.Marshal(list)
}
