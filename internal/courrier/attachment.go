package courrier

import (
	"bytes"
	"encoding/json"
)

// Attachment describes a file joined to a record
type Attachment struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
}

// UnmarshalJSON also reads the name/size and nom/taille keys of older data
func (a *Attachment) UnmarshalJSON(data []byte) error {
	var v struct {
		Name      string `json:"name"`
		SizeBytes *int64 `json:"sizeBytes"`
		Size      *int64 `json:"size"`
		Nom       string `json:"nom"`
		Taille    *int64 `json:"taille"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Attachment{Name: v.Name}
	if a.Name == "" {
		a.Name = v.Nom
	}
	for _, size := range []*int64{v.SizeBytes, v.Size, v.Taille} {
		if size != nil {
			a.SizeBytes = *size
			break
		}
	}
	return nil
}

// Attachments is the ordered attachment list of a record. Older writers
// stored it as a JSON string holding the array, so decoding accepts both
// forms; anything that does not parse becomes an empty list.
type Attachments []Attachment

// UnmarshalJSON never fails: a malformed payload means no attachments
func (a *Attachments) UnmarshalJSON(data []byte) error {
	*a = decodeAttachments(data)
	return nil
}

// ParseAttachments decodes attachments from their textual form
func ParseAttachments(text string) Attachments {
	return decodeAttachments([]byte(text))
}

func decodeAttachments(data []byte) Attachments {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil
		}
		return decodeAttachments([]byte(inner))
	}
	var list []Attachment
	if err := json.Unmarshal(data, &list); err != nil {
		return nil
	}
	return list
}

// TotalSize sums the attachment sizes
func (a Attachments) TotalSize() int64 {
	var total int64
	for _, att := range a {
		total += att.SizeBytes
	}
	return total
}
