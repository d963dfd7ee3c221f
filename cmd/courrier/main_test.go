package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ajramos/courrier/internal/config"
	"github.com/ajramos/courrier/internal/courrier"
	"github.com/ajramos/courrier/internal/mirror"
	"github.com/ajramos/courrier/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestGetConfigPath_Priority(t *testing.T) {
	t.Setenv("COURRIER_CONFIG", "")

	assert.Equal(t, "/custom/config.json", getConfigPath("/custom/config.json"))

	t.Setenv("COURRIER_CONFIG", "/env/config.json")
	assert.Equal(t, "/env/config.json", getConfigPath(""))
	assert.Equal(t, "/custom/config.json", getConfigPath("/custom/config.json"))

	t.Setenv("COURRIER_CONFIG", "")
	assert.True(t, strings.HasSuffix(getConfigPath(""), "config.json"))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data"), expandPath("~/data"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
	assert.Equal(t, "~user/x", expandPath("~user/x"))
	assert.Equal(t, "", expandPath(""))
}

// testHarness runs commands against a JSON-file registry in a temp dir
type testHarness struct {
	t          *testing.T
	configPath string
	dataDir    string
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	dir := t.TempDir()
	h := &testHarness{t: t, configPath: filepath.Join(dir, "config.json"), dataDir: filepath.Join(dir, "data")}

	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.BackendFile
	cfg.Storage.Path = h.dataDir
	cfg.Sync.Enabled = false
	cfg.LogFile = filepath.Join(dir, "courrier.log")
	require.NoError(t, cfg.SaveConfig(h.configPath))
	return h
}

func (h *testHarness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", h.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *testHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func (h *testHarness) listJSON(direction string, extra ...string) []courrier.Record {
	h.t.Helper()
	out := h.mustRun(append([]string{"list", direction, "-o", "json"}, extra...)...)
	list, err := courrier.DecodeRecords([]byte(out))
	require.NoError(h.t, err)
	return list
}

func TestCLI_AddListUpdateRemove(t *testing.T) {
	h := newHarness(t)

	h.mustRun("add", "incoming", "--subject", "Devis toiture", "--sender", "Mairie", "--channel", "courrier")
	h.mustRun("add", "in", "--subject", "Facture", "--sender", "EDF", "--status", "en cours")
	h.mustRun("add", "outgoing", "--subject", "Réponse devis", "--recipient", "Mairie")

	in := h.listJSON("incoming")
	require.Len(t, in, 2)
	assert.Equal(t, "Facture", in[0].Subject)
	assert.Equal(t, "00002", in[0].SequenceNumber)
	assert.Equal(t, courrier.StatusInProgress, in[0].Status)
	assert.Equal(t, courrier.StatusPending, in[1].Status)

	out := h.listJSON("outgoing")
	require.Len(t, out, 1)
	assert.Equal(t, "00001", out[0].SequenceNumber)

	h.mustRun("update", "incoming", "00001", "--notes", "rappeler lundi")
	h.mustRun("status", "incoming", "00001", "PROCESSED")
	in = h.listJSON("incoming", "--sort", "sequence")
	assert.Equal(t, "rappeler lundi", in[0].Notes)
	assert.Equal(t, courrier.StatusProcessed, in[0].Status)
	assert.Equal(t, "Devis toiture", in[0].Subject)

	h.mustRun("rm", "incoming", shortID(in[1].ID))
	in = h.listJSON("incoming")
	require.Len(t, in, 1)
	assert.Equal(t, "00001", in[0].SequenceNumber)

	// the data sits in the file medium under the historical key
	_, err := os.Stat(filepath.Join(h.dataDir, mirror.KeyFor(courrier.Incoming)+".json"))
	assert.NoError(t, err)
}

func TestCLI_ListFilters(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "incoming", "--subject", "Devis toiture")
	h.mustRun("add", "incoming", "--subject", "Facture")
	h.mustRun("add", "incoming", "--subject", "Devis fenêtres", "--status", "ARCHIVED")

	assert.Len(t, h.listJSON("incoming", "--search", "devis"), 2)
	assert.Len(t, h.listJSON("incoming", "--status", "archived"), 1)

	sorted := h.listJSON("incoming", "--sort", "subject", "--desc")
	require.Len(t, sorted, 3)
	assert.Equal(t, "Facture", sorted[0].Subject)

	table := h.mustRun("list", "incoming")
	assert.Contains(t, table, "Objet")
	assert.Contains(t, table, "Expéditeur")
	assert.Contains(t, table, "Devis toiture")

	var views []recordView
	require.NoError(t, yaml.Unmarshal([]byte(h.mustRun("list", "incoming", "-o", "yaml")), &views))
	assert.Len(t, views, 3)
}

func TestCLI_Stats(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "incoming", "--subject", "A")
	h.mustRun("add", "incoming", "--subject", "B", "--status", "PROCESSED")

	var stats []statsView
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("stats", "-o", "json")), &stats))
	require.Len(t, stats, 2)
	assert.Equal(t, string(courrier.Incoming), stats[0].Direction)
	assert.Equal(t, 2, stats[0].Total)
	assert.Equal(t, 1, stats[0].ByStatus[string(courrier.StatusProcessed)])
	assert.Equal(t, 0, stats[1].Total)

	assert.Contains(t, h.mustRun("stats"), "Courrier arrivé")
}

func TestCLI_Errors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing subject", []string{"add", "incoming"}, services.ErrInvalidInput},
		{"bad direction", []string{"add", "sideways", "--subject", "x"}, services.ErrInvalidInput},
		{"bad status", []string{"add", "incoming", "--subject", "x", "--status", "lost"}, services.ErrInvalidInput},
		{"bad number", []string{"add", "incoming", "--subject", "x", "--number", "12"}, services.ErrInvalidInput},
		{"bad attachments", []string{"add", "incoming", "--subject", "x", "--attachments", "{oops"}, services.ErrInvalidInput},
		{"empty update", []string{"update", "incoming", "00001"}, services.ErrInvalidInput},
		{"unknown record", []string{"status", "incoming", "00042", "PROCESSED"}, services.ErrNotFound},
		{"bad sort", []string{"list", "incoming", "--sort", "colour"}, services.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := h.run("list", "incoming", "-o", "xml")
	assert.Error(t, err)
	_, err = h.run("--backend", "floppy", "stats")
	assert.Error(t, err)
}

func TestCLI_AttachmentsAndUnknownFieldsSurvive(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "incoming", "--subject", "Contrat", "--attachments", `[{"name":"contrat.pdf","sizeBytes":2048}]`)

	// a field written by another tool
	path := filepath.Join(h.dataDir, mirror.KeyFor(courrier.Incoming)+".json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var list []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &list))
	list[0]["service"] = json.RawMessage(`"juridique"`)
	raw, err = json.Marshal(list)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	h.mustRun("status", "incoming", "00001", "IN_PROGRESS")

	in := h.listJSON("incoming")
	require.Len(t, in, 1)
	require.Len(t, in[0].Attachments, 1)
	assert.Equal(t, int64(2048), in[0].Attachments[0].SizeBytes)
	assert.JSONEq(t, `"juridique"`, string(in[0].Extra["service"]))
}

func TestCLI_MemoryBackendOverride(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("--backend", "memory", "add", "incoming", "--subject", "volatile", "-o", "json")
	assert.Contains(t, out, "volatile")

	// nothing reached the file medium
	assert.Empty(t, h.listJSON("incoming"))
}

func TestCLI_SQLiteBackend(t *testing.T) {
	h := newHarness(t)
	dbPath := filepath.Join(t.TempDir(), "registre.db")

	h.mustRun("--backend", "sqlite", "--store", dbPath, "add", "outgoing", "--subject", "Lettre")
	out := h.mustRun("--backend", "sqlite", "--store", dbPath, "list", "outgoing", "-o", "json")
	list, err := courrier.DecodeRecords([]byte(out))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Lettre", list[0].Subject)
}

func TestCLI_Version(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	assert.Contains(t, out, "Courrier")
	assert.Contains(t, out, "Go version:")
}

func TestResolveRecord(t *testing.T) {
	n := 0
	ids := []string{"abcd1111", "abcd2222", "ffff0000"}
	gen := func() string { id := ids[n]; n++; return id }
	store := services.NewRecordStore(courrier.Incoming, mirror.New(mirror.NewMemoryMedium(0)), nil, services.WithIDGenerator(gen))
	for i := 0; i < 3; i++ {
		_, err := store.Add(context.Background(), courrier.Fields{Subject: courrier.String(fmt.Sprint(i))})
		require.NoError(t, err)
	}

	r, err := resolveRecord(store, "abcd2222")
	require.NoError(t, err)
	assert.Equal(t, "abcd2222", r.ID)

	r, err = resolveRecord(store, "00003")
	require.NoError(t, err)
	assert.Equal(t, "ffff0000", r.ID)

	r, err = resolveRecord(store, "ffff")
	require.NoError(t, err)
	assert.Equal(t, "ffff0000", r.ID)

	r, err = resolveRecord(store, "2222")
	require.NoError(t, err)
	assert.Equal(t, "abcd2222", r.ID, "suffix as shown in tables")

	_, err = resolveRecord(store, "abcd")
	assert.True(t, errors.Is(err, services.ErrInvalidInput))

	_, err = resolveRecord(store, "zzzz")
	assert.True(t, errors.Is(err, services.ErrNotFound))

	_, err = resolveRecord(store, " ")
	assert.True(t, errors.Is(err, services.ErrInvalidInput))
}

func TestShortID_DistinguishesRecordsCreatedTogether(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id := courrier.NewID()
		short := shortID(id)
		require.Len(t, short, 8)
		assert.True(t, strings.HasSuffix(id, short))
		assert.False(t, seen[short], "short id %s repeated", short)
		seen[short] = true
	}
	assert.Equal(t, "abc", shortID("abc"))
}

func TestCLI_TableIDsResolveBack(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "incoming", "--subject", "Premier")
	h.mustRun("add", "incoming", "--subject", "Second")

	in := h.listJSON("incoming")
	require.Len(t, in, 2)
	table := h.mustRun("list", "incoming")
	for _, r := range in {
		assert.Contains(t, table, shortID(r.ID))
	}
	assert.NotEqual(t, shortID(in[0].ID), shortID(in[1].ID))

	h.mustRun("rm", "incoming", shortID(in[0].ID))
	left := h.listJSON("incoming")
	require.Len(t, left, 1)
	assert.Equal(t, in[1].ID, left[0].ID)
}

func TestCLI_ReceivedDate(t *testing.T) {
	h := newHarness(t)
	h.mustRun("add", "incoming", "--subject", "Avis", "--received", "2025-03-12")

	in := h.listJSON("incoming")
	require.Len(t, in, 1)
	assert.Equal(t, "2025-03-12", in[0].ReceivedAt.Format(courrier.DateLayout))

	out := h.mustRun("list", "incoming", "-o", "yaml")
	assert.Contains(t, out, "receivedAt:")
	assert.Contains(t, out, "2025-03-12")

	h.mustRun("update", "incoming", "00001", "--received", "")
	in = h.listJSON("incoming")
	assert.True(t, in[0].ReceivedAt.IsZero())

	_, err := h.run("update", "incoming", "00001", "--received", "demain")
	assert.True(t, errors.Is(err, services.ErrInvalidInput))
}
