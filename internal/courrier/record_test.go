package courrier

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	created := time.Date(2025, 3, 14, 9, 30, 0, 123456789, time.UTC)
	return Record{
		ID:             "0195a1b2-0000-7000-8000-000000000001",
		Direction:      Incoming,
		SequenceNumber: "00042",
		Status:         StatusInProgress,
		Subject:        "Facture mars",
		Sender:         "Trésor public",
		Recipient:      "Comptabilité",
		Channel:        "poste",
		Reference:      "REF-2025-12",
		Notes:          "à relancer",
		Attachments:    Attachments{{Name: "facture.pdf", SizeBytes: 20480}},
		ReceivedAt:     time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC),
		CreatedAt:      created,
		UpdatedAt:      created.Add(time.Minute),
		Extra: map[string]json.RawMessage{
			"priority": json.RawMessage(`"haute"`),
			"tags":     json.RawMessage(`["a","b"]`),
		},
	}
}

func TestRecord_RoundTrip(t *testing.T) {
	in := []Record{sampleRecord(), {ID: "bare", Direction: Outgoing}}

	data, err := EncodeRecords(in)
	require.NoError(t, err)

	out, err := DecodeRecords(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRecord_PreservesUnknownFields(t *testing.T) {
	raw := `{"id":"x1","status":"PENDING","customField":{"nested":[1,2,3]},"flag":true}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	assert.Equal(t, "x1", r.ID)
	assert.Equal(t, StatusPending, r.Status)
	assert.JSONEq(t, `{"nested":[1,2,3]}`, string(r.Extra["customField"]))

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(data))
}

func TestRecord_LegacyFieldNames(t *testing.T) {
	raw := `{
		"id": "1700000000000",
		"type": "ARRIVE",
		"numero": "00007",
		"statut": "en_attente",
		"objet": "Convocation",
		"expediteur": "Mairie",
		"destinataire": "Direction",
		"canal": "email",
		"observations": "urgent",
		"fichiers": [{"nom": "convocation.pdf", "taille": 2048}],
		"dateReception": "2024-04-30",
		"dateCreation": "2024-05-02T10:00:00.000Z"
	}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(raw), &r))

	assert.Equal(t, Incoming, r.Direction)
	assert.Equal(t, "00007", r.SequenceNumber)
	assert.Equal(t, Status("en_attente"), r.Status)
	assert.Equal(t, StatusPending, r.Status.Canonical())
	assert.Equal(t, "Convocation", r.Subject)
	assert.Equal(t, "Mairie", r.Sender)
	assert.Equal(t, "Direction", r.Recipient)
	assert.Equal(t, "email", r.Channel)
	assert.Equal(t, "urgent", r.Notes)
	assert.Equal(t, Attachments{{Name: "convocation.pdf", SizeBytes: 2048}}, r.Attachments)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), r.ReceivedAt)
	assert.Equal(t, time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC), r.CreatedAt)
	assert.Empty(t, r.Extra)
}

func TestRecord_CanonicalNameWinsOverLegacy(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"status":"ARCHIVED","statut":"en_cours","date":"2024-01-01","dateReception":"2024-02-02"}`), &r))

	assert.Equal(t, StatusArchived, r.Status)
	assert.Equal(t, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), r.ReceivedAt, "first legacy name wins")
	assert.Empty(t, r.Extra, "superseded legacy names are dropped")
}

func TestRecord_ClearedFieldDoesNotReviveLegacyValue(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","subject":"new","objet":"stale"}`), &r))
	require.Equal(t, "new", r.Subject)

	r.Subject = ""
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Empty(t, back.Subject)
	assert.NotContains(t, string(data), "stale")
}

func TestRecord_MarshalSkipsLegacyNamesInExtra(t *testing.T) {
	r := Record{ID: "x", Extra: map[string]json.RawMessage{
		"objet":    json.RawMessage(`"stale"`),
		"date":     json.RawMessage(`"2020-01-01"`),
		"priority": json.RawMessage(`"haute"`),
	}}
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","priority":"haute"}`, string(data))
}

func TestRecord_ReceivedAtFormats(t *testing.T) {
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-12", FormatReceived(day))
	assert.Equal(t, "2025-03-12T08:15:00Z", FormatReceived(day.Add(8*time.Hour+15*time.Minute)))

	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"receivedAt":"2025-03-12T08:15:00Z"}`), &r))
	assert.Equal(t, day.Add(8*time.Hour+15*time.Minute), r.ReceivedAt)

	require.NoError(t, json.Unmarshal([]byte(`{"receivedAt":"hier"}`), &r))
	assert.True(t, r.ReceivedAt.IsZero())
	assert.Equal(t, json.RawMessage(`"hier"`), r.Extra[FieldReceivedAt])

	assert.Equal(t, r.CreatedAt, r.ReceptionDate())
	r.ReceivedAt = day
	assert.Equal(t, day, r.ReceptionDate())
}

func TestParseReceived(t *testing.T) {
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-03-12", " 12/03/2025 ", "2025-03-12T00:00:00Z"} {
		got, err := ParseReceived(in)
		require.NoError(t, err, in)
		assert.True(t, day.Equal(got), in)
	}
	got, err := ParseReceived("  ")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseReceived("mardi")
	assert.Error(t, err)
}

func TestRecord_WrongShapeStaysInExtra(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","subject":{"fr":"Objet"},"numero":12}`), &r))

	assert.Empty(t, r.Subject)
	assert.JSONEq(t, `{"fr":"Objet"}`, string(r.Extra[FieldSubject]))
	assert.Equal(t, "12", r.SequenceNumber)
}

func TestRecord_UnmarshalRejectsNonObject(t *testing.T) {
	var r Record
	assert.Error(t, json.Unmarshal([]byte(`"text"`), &r))
}

func TestRecord_CloneIsDeep(t *testing.T) {
	orig := sampleRecord()
	c := orig.Clone()

	c.Attachments[0].Name = "changed.pdf"
	c.Extra["priority"] = json.RawMessage(`"basse"`)

	assert.Equal(t, "facture.pdf", orig.Attachments[0].Name)
	assert.Equal(t, json.RawMessage(`"haute"`), orig.Extra["priority"])
}

func TestAttachments_Decode(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected Attachments
	}{
		{"array", `[{"name":"a.pdf","sizeBytes":10}]`, Attachments{{Name: "a.pdf", SizeBytes: 10}}},
		{"string_encoded", `"[{\"name\":\"a.pdf\",\"size\":10}]"`, Attachments{{Name: "a.pdf", SizeBytes: 10}}},
		{"malformed_string", `"[{not json"`, nil},
		{"wrong_type", `{"name":"a.pdf"}`, nil},
		{"null", `null`, nil},
		{"empty_string", `""`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Attachments
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &a))
			assert.Equal(t, tt.expected, a)
		})
	}
}

func TestRecord_MalformedAttachmentsDoNotFailRecord(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","attachments":"oops["}`), &r))
	assert.Equal(t, "a", r.ID)
	assert.Empty(t, r.Attachments)
}

func TestAttachments_TotalSize(t *testing.T) {
	a := Attachments{{SizeBytes: 10}, {SizeBytes: 32}}
	assert.Equal(t, int64(42), a.TotalSize())
}
