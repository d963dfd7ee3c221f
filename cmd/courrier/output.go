package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ajramos/courrier/internal/courrier"
	"github.com/ajramos/courrier/internal/render"
	"github.com/ajramos/courrier/internal/services"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validFormat(f string) error {
	switch f {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (table, json or yaml)", f)
}

// attachmentView and recordView are the YAML shape of a record
type attachmentView struct {
	Name      string `yaml:"name"`
	SizeBytes int64  `yaml:"sizeBytes"`
}

type recordView struct {
	ID             string           `yaml:"id"`
	Direction      string           `yaml:"direction"`
	SequenceNumber string           `yaml:"sequenceNumber"`
	Status         string           `yaml:"status"`
	Subject        string           `yaml:"subject,omitempty"`
	Sender         string           `yaml:"sender,omitempty"`
	Recipient      string           `yaml:"recipient,omitempty"`
	Channel        string           `yaml:"channel,omitempty"`
	Reference      string           `yaml:"reference,omitempty"`
	Notes          string           `yaml:"notes,omitempty"`
	Attachments    []attachmentView `yaml:"attachments,omitempty"`
	ReceivedAt     string           `yaml:"receivedAt,omitempty"`
	CreatedAt      time.Time        `yaml:"createdAt"`
	UpdatedAt      time.Time        `yaml:"updatedAt"`
}

func viewOf(r courrier.Record) recordView {
	v := recordView{
		ID:             r.ID,
		Direction:      string(r.Direction),
		SequenceNumber: r.SequenceNumber,
		Status:         string(r.Status),
		Subject:        r.Subject,
		Sender:         r.Sender,
		Recipient:      r.Recipient,
		Channel:        r.Channel,
		Reference:      r.Reference,
		Notes:          r.Notes,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	if !r.ReceivedAt.IsZero() {
		v.ReceivedAt = courrier.FormatReceived(r.ReceivedAt)
	}
	for _, a := range r.Attachments {
		v.Attachments = append(v.Attachments, attachmentView{Name: a.Name, SizeBytes: a.SizeBytes})
	}
	return v
}

// writeRecords prints list in the requested format. JSON keeps fields the
// registry does not know about, exactly as stored.
func writeRecords(w io.Writer, format string, d courrier.Direction, list []courrier.Record) error {
	switch format {
	case formatJSON:
		data, err := courrier.EncodeRecords(list)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err = w.Write(buf.Bytes())
		return err
	case formatYAML:
		views := make([]recordView, 0, len(list))
		for _, r := range list {
			views = append(views, viewOf(r))
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	}

	rr := render.NewRecordRenderer(nil, 40)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	cols := rr.Columns(d)
	titles := make([]string, 0, len(cols)+1)
	titles = append(titles, "ID")
	for _, c := range cols {
		titles = append(titles, c.Title)
	}
	fmt.Fprintln(tw, strings.Join(titles, "\t"))
	for _, r := range list {
		cells := rr.Cells(r)
		for i := range cells {
			cells[i] = strings.TrimRight(render.SanitizeForTerminal(cells[i]), " ")
		}
		fmt.Fprintf(tw, "%s\t%s\n", shortID(r.ID), strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// writeRecord prints a single record
func writeRecord(w io.Writer, format string, r courrier.Record) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(viewOf(r)); err != nil {
			return err
		}
		return enc.Close()
	}
	_, err := fmt.Fprint(w, render.NewRecordRenderer(nil, 40).FormatDetail(r, 80))
	return err
}

// statsView is the JSON/YAML shape of one direction's counters
type statsView struct {
	Direction string         `json:"direction" yaml:"direction"`
	Total     int            `json:"total" yaml:"total"`
	ByStatus  map[string]int `json:"byStatus" yaml:"byStatus"`
}

func writeStats(w io.Writer, format string, summary []services.DirectionSummary) error {
	views := make([]statsView, 0, len(summary))
	for _, s := range summary {
		v := statsView{Direction: string(s.Direction), Total: s.Stats.Total, ByStatus: map[string]int{}}
		for st, n := range s.Stats.ByStatus {
			v.ByStatus[string(st)] = n
		}
		views = append(views, v)
	}
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(views); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := []string{"Registre", "Total"}
	for _, st := range courrier.CanonicalStatuses() {
		header = append(header, st.Label())
	}
	header = append(header, "Inconnu")
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, s := range summary {
		row := []string{s.Direction.Label(), fmt.Sprint(s.Stats.Total)}
		for _, st := range courrier.CanonicalStatuses() {
			row = append(row, fmt.Sprint(s.Stats.Count(st)))
		}
		row = append(row, fmt.Sprint(s.Stats.ByStatus[courrier.StatusUnknown]))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// shortID keeps record ids readable in tables. Ids lead with their
// creation time, so the tail is what tells records apart; any unique suffix
// is accepted back by the commands.
func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
