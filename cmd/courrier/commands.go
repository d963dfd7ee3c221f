package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ajramos/courrier/internal/courrier"
	"github.com/ajramos/courrier/internal/services"
	"github.com/spf13/cobra"
)

// recordFlags are the editable fields shared by add and update
type recordFlags struct {
	sequence    string
	status      string
	subject     string
	sender      string
	recipient   string
	channel     string
	reference   string
	notes       string
	received    string
	attachments string
}

func (rf *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&rf.sequence, "number", "", "Sequence number (five digits, allocated when omitted)")
	cmd.Flags().StringVar(&rf.status, "status", "", "Status: PENDING, IN_PROGRESS, PROCESSED or ARCHIVED")
	cmd.Flags().StringVarP(&rf.subject, "subject", "s", "", "Subject")
	cmd.Flags().StringVar(&rf.sender, "sender", "", "Sender")
	cmd.Flags().StringVar(&rf.recipient, "recipient", "", "Recipient")
	cmd.Flags().StringVar(&rf.channel, "channel", "", "Channel (courrier, email, fax...)")
	cmd.Flags().StringVar(&rf.reference, "reference", "", "External reference")
	cmd.Flags().StringVar(&rf.notes, "notes", "", "Free-form notes")
	cmd.Flags().StringVar(&rf.received, "received", "", "Reception date, YYYY-MM-DD (empty clears it)")
	cmd.Flags().StringVar(&rf.attachments, "attachments", "", `Attachments as JSON, e.g. '[{"name":"a.pdf","sizeBytes":1024}]'`)
}

// fields builds the patch from the flags the user actually set
func (rf *recordFlags) fields(cmd *cobra.Command) (courrier.Fields, error) {
	var f courrier.Fields
	set := func(name string, value string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		return courrier.String(value)
	}
	f.SequenceNumber = set("number", rf.sequence)
	f.Subject = set("subject", rf.subject)
	f.Sender = set("sender", rf.sender)
	f.Recipient = set("recipient", rf.recipient)
	f.Channel = set("channel", rf.channel)
	f.Reference = set("reference", rf.reference)
	f.Notes = set("notes", rf.notes)
	if f.SequenceNumber != nil && !courrier.IsSequenceNumber(*f.SequenceNumber) {
		return f, fmt.Errorf("%w: sequence number %q must have five digits", services.ErrInvalidInput, *f.SequenceNumber)
	}
	if cmd.Flags().Changed("received") {
		t, err := courrier.ParseReceived(rf.received)
		if err != nil {
			return f, fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
		}
		f.ReceivedAt = courrier.Time(t)
	}
	if cmd.Flags().Changed("status") {
		st, err := parseStatus(rf.status)
		if err != nil {
			return f, err
		}
		f.Status = &st
	}
	if cmd.Flags().Changed("attachments") {
		att := courrier.ParseAttachments(rf.attachments)
		if att == nil && strings.TrimSpace(rf.attachments) != "" && strings.TrimSpace(rf.attachments) != "[]" {
			return f, fmt.Errorf("%w: attachments are not a JSON list", services.ErrInvalidInput)
		}
		f.Attachments = &att
	}
	return f, nil
}

func parseStatus(s string) (courrier.Status, error) {
	st := courrier.NormalizeStatus(s)
	if st == courrier.StatusUnknown {
		return "", fmt.Errorf("%w: unknown status %q", services.ErrInvalidInput, s)
	}
	return st, nil
}

// storeFor parses the direction argument and returns its store
func storeFor(e *env, arg string) (*services.RecordStoreImpl, error) {
	d, err := courrier.ParseDirection(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", services.ErrInvalidInput, err)
	}
	return e.registry.Store(d)
}

// resolveRecord finds a record by id, sequence number, or a unique id
// prefix or suffix of at least four characters. Tables show the suffix.
func resolveRecord(store services.RecordStore, ref string) (*courrier.Record, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty record reference", services.ErrInvalidInput)
	}
	if r := store.Get(ref); r != nil {
		return r, nil
	}
	var matches []courrier.Record
	for _, r := range store.Records() {
		if r.SequenceNumber == ref {
			return &r, nil
		}
		if len(ref) >= 4 && (strings.HasPrefix(r.ID, ref) || strings.HasSuffix(r.ID, ref)) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", services.ErrNotFound, ref)
	case 1:
		return &matches[0], nil
	}
	return nil, fmt.Errorf("%w: %q matches %d records", services.ErrInvalidInput, ref, len(matches))
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		output string
		filter courrier.Filter
		status string
		sortBy string
	)
	cmd := &cobra.Command{
		Use:     "list <incoming|outgoing>",
		Aliases: []string{"ls"},
		Short:   "List the records of a register",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(output); err != nil {
				return err
			}
			if status != "" {
				st, err := parseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = st
			}
			if sortBy != "" {
				filter.SortBy = courrier.ParseSortField(sortBy)
				if filter.SortBy == courrier.SortNone {
					return fmt.Errorf("%w: unknown sort field %q", services.ErrInvalidInput, sortBy)
				}
			}
			return withEnv(cmd.Context(), opts, false, func(e *env) error {
				store, err := storeFor(e, args[0])
				if err != nil {
					return err
				}
				return writeRecords(cmd.OutOrStdout(), output, store.Direction(), store.Query(filter))
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")
	cmd.Flags().StringVarP(&filter.Search, "search", "q", "", "Keep records containing this text")
	cmd.Flags().StringVar(&status, "status", "", "Keep records in this status")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by: sequence, subject, sender, recipient, status, received, created, updated")
	cmd.Flags().BoolVar(&filter.Desc, "desc", false, "Reverse the sort order")
	return cmd
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var (
		rf     recordFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "add <incoming|outgoing>",
		Short: "Register a new record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(output); err != nil {
				return err
			}
			f, err := rf.fields(cmd)
			if err != nil {
				return err
			}
			if f.Subject == nil || strings.TrimSpace(*f.Subject) == "" {
				return fmt.Errorf("%w: --subject is required", services.ErrInvalidInput)
			}
			return withEnv(cmd.Context(), opts, false, func(e *env) error {
				store, err := storeFor(e, args[0])
				if err != nil {
					return err
				}
				rec, err := store.Add(cmd.Context(), f)
				if err != nil {
					return err
				}
				return writeRecord(cmd.OutOrStdout(), output, *rec)
			})
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")
	return cmd
}

func newUpdateCmd(opts *rootOptions) *cobra.Command {
	var (
		rf     recordFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "update <incoming|outgoing> <id|number>",
		Short: "Change fields of a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(output); err != nil {
				return err
			}
			f, err := rf.fields(cmd)
			if err != nil {
				return err
			}
			if f.IsEmpty() {
				return fmt.Errorf("%w: nothing to update", services.ErrInvalidInput)
			}
			return withEnv(cmd.Context(), opts, false, func(e *env) error {
				store, err := storeFor(e, args[0])
				if err != nil {
					return err
				}
				target, err := resolveRecord(store, args[1])
				if err != nil {
					return err
				}
				rec, err := store.Update(cmd.Context(), target.ID, f)
				if err != nil {
					return err
				}
				if rec == nil {
					return fmt.Errorf("%w: %s", services.ErrNotFound, args[1])
				}
				return writeRecord(cmd.OutOrStdout(), output, *rec)
			})
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")
	return cmd
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status <incoming|outgoing> <id|number> <status>",
		Short: "Move a record to another status",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := parseStatus(args[2])
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), opts, false, func(e *env) error {
				store, err := storeFor(e, args[0])
				if err != nil {
					return err
				}
				target, err := resolveRecord(store, args[1])
				if err != nil {
					return err
				}
				res := <-store.SetStatusAsync(cmd.Context(), target.ID, st)
				if res.Err != nil {
					return res.Err
				}
				if res.Record == nil {
					return fmt.Errorf("%w: %s", services.ErrNotFound, args[1])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", res.Record.SequenceNumber, shortID(res.Record.ID), res.Record.Status.Label())
				return nil
			})
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <incoming|outgoing> <id|number>...",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete records",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), opts, false, func(e *env) error {
				store, err := storeFor(e, args[0])
				if err != nil {
					return err
				}
				var errs []error
				for _, ref := range args[1:] {
					target, err := resolveRecord(store, ref)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					if err := store.Remove(cmd.Context(), target.ID); err != nil {
						errs = append(errs, err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "removed %s %s\n", target.SequenceNumber, shortID(target.ID))
				}
				return errors.Join(errs...)
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count records per register and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(output); err != nil {
				return err
			}
			return withEnv(cmd.Context(), opts, false, func(e *env) error {
				return writeStats(cmd.OutOrStdout(), output, e.registry.Summary())
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")
	return cmd
}

// newWatchCmd prints a line every time a register changes, including
// changes written by other processes
func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow changes to the registers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), opts, true, func(e *env) error {
				if e.watcher == nil {
					return fmt.Errorf("sync is disabled in the configuration")
				}
				out := cmd.OutOrStdout()
				for _, d := range courrier.Directions() {
					store, err := e.registry.Store(d)
					if err != nil {
						return err
					}
					dir := d
					unsub := store.OnChange(func(list []courrier.Record) {
						st := courrier.ComputeStats(list)
						fmt.Fprintf(out, "%s %s: %d records, %d pending\n",
							time.Now().Format("15:04:05"), dir.Label(), st.Total, st.Count(courrier.StatusPending))
					})
					defer unsub()
				}
				fmt.Fprintln(out, "watching, Ctrl-C to stop")
				<-cmd.Context().Done()
				return nil
			})
		},
	}
}

func newThemesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "List the available colour themes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			svc := newThemeService(cfg)
			names, err := svc.ListAvailableThemes(cmd.Context())
			if err != nil {
				return err
			}
			sort.Strings(names[1:])
			for _, n := range names {
				marker := "  "
				if n == cfg.Layout.CurrentTheme {
					marker = "* "
				}
				fmt.Fprintln(cmd.OutOrStdout(), marker+n)
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <name>",
		Short: "Check that a theme defines every required colour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			if err := newThemeService(cfg).ValidateTheme(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "theme %s is valid\n", args[0])
			return nil
		},
	})
	return cmd
}
