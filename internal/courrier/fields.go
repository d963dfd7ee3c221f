package courrier

import (
	"encoding/json"
	"time"
)

// Fields is a partial record used by add and update. Nil pointers leave the
// corresponding field untouched.
type Fields struct {
	SequenceNumber *string
	Status         *Status
	Subject        *string
	Sender         *string
	Recipient      *string
	Channel        *string
	Reference      *string
	Notes          *string
	Attachments    *Attachments
	// ReceivedAt set to the zero time clears the reception date
	ReceivedAt *time.Time

	// Extra sets fields outside the typed core. Keys that name a typed
	// field, or a legacy name of one, are ignored.
	Extra map[string]json.RawMessage
}

// String returns a pointer to s, for building Fields literals
func String(s string) *string {
	return &s
}

// Time returns a pointer to t
func Time(t time.Time) *time.Time {
	return &t
}

// StatusPtr returns a pointer to s
func StatusPtr(s Status) *Status {
	return &s
}

// StatusFields is the patch used by a status change
func StatusFields(s Status) Fields {
	return Fields{Status: &s}
}

// IsEmpty reports whether the patch changes nothing
func (f Fields) IsEmpty() bool {
	return f.SequenceNumber == nil && f.Status == nil && f.Subject == nil &&
		f.Sender == nil && f.Recipient == nil && f.Channel == nil &&
		f.Reference == nil && f.Notes == nil && f.Attachments == nil &&
		f.ReceivedAt == nil && len(f.Extra) == 0
}

// Apply merges the patch into r. Identity fields (id, direction, createdAt)
// are never changed and updatedAt is left to the caller.
func (f Fields) Apply(r *Record) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&r.SequenceNumber, f.SequenceNumber)
	set(&r.Subject, f.Subject)
	set(&r.Sender, f.Sender)
	set(&r.Recipient, f.Recipient)
	set(&r.Channel, f.Channel)
	set(&r.Reference, f.Reference)
	set(&r.Notes, f.Notes)
	if f.Status != nil {
		r.Status = *f.Status
	}
	if f.Attachments != nil {
		r.Attachments = append(Attachments(nil), (*f.Attachments)...)
	}
	if f.ReceivedAt != nil {
		r.ReceivedAt = *f.ReceivedAt
	}
	for k, v := range f.Extra {
		if isTypedField(k) || legacyNames[k] {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage, len(f.Extra))
		}
		r.Extra[k] = append(json.RawMessage(nil), v...)
	}
}

func isTypedField(key string) bool {
	switch key {
	case FieldID, FieldDirection, FieldSequenceNumber, FieldStatus, FieldSubject,
		FieldSender, FieldRecipient, FieldChannel, FieldReference, FieldNotes,
		FieldAttachments, FieldReceivedAt, FieldCreatedAt, FieldUpdatedAt:
		return true
	}
	return false
}
