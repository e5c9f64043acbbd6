package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chazu/tinsnip/pkg/store"
)

func newHistoryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Save and browse part revisions",
		Long: `Every revision is a complete snapshot stored in the SQLite database
named by db_path in the config. Undo is exporting or showing an older
revision; nothing is replayed.

Subcommands:
  save    - store the current state of a part file
  list    - list revisions of a part, or every part
  show    - print a revision as JSON
  export  - export the flat pattern of a revision`,
	}
	cmd.AddCommand(
		newHistorySaveCmd(c),
		newHistoryListCmd(c),
		newHistoryShowCmd(c),
		newHistoryExportCmd(c),
	)
	return cmd
}

func (c *cli) openStore() (*store.Revisions, error) {
	return store.Open(c.cfg.DBPath)
}

// revision opens the store and loads revision seq of name.
func (c *cli) revision(cmd *cobra.Command, name, seqArg string) (*store.Revision, error) {
	seq, err := strconv.Atoi(seqArg)
	if err != nil {
		return nil, fmt.Errorf("history: revision %q: %w", seqArg, err)
	}
	r, err := c.openStore()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	rev, err := r.Get(cmd.Context(), name, seq)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, fmt.Errorf("history: %s has no revision %d", name, seq)
	}
	return rev, nil
}

func newHistorySaveCmd(c *cli) *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "save <name> <part>",
		Short: "Store a revision of a part",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, source, err := c.loadSnapshot(args[1])
			if err != nil {
				return err
			}
			// Only parts that compute are worth keeping.
			if _, err := c.compute(s); err != nil {
				return err
			}
			r, err := c.openStore()
			if err != nil {
				return err
			}
			defer r.Close()
			rev, err := r.Save(cmd.Context(), args[0], message, source, s)
			if err != nil {
				return err
			}
			c.log.Info().Str("part", rev.Part).Int("seq", rev.Seq).Msg("saved revision")
			fmt.Fprintf(cmd.OutOrStdout(), "%s revision %d (%s)\n", rev.Part, rev.Seq, rev.Checksum[:12])
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "revision message")
	return cmd
}

func newHistoryListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list [name]",
		Short: "List revisions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := c.openStore()
			if err != nil {
				return err
			}
			defer r.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if len(args) == 0 {
				parts, err := r.Parts(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Part\tRevisions\tLatest\n")
				for _, name := range parts {
					revs, err := r.List(cmd.Context(), name)
					if err != nil {
						return err
					}
					last := revs[len(revs)-1]
					fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(revs), formatTime(last.CreatedAt))
				}
				return w.Flush()
			}

			revs, err := r.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Seq\tCreated\tFlanges\tFolds\tMessage\n")
			for _, rev := range revs {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", rev.Seq, formatTime(rev.CreatedAt),
					len(rev.Snapshot.Flanges), len(rev.Snapshot.Folds), rev.Message)
			}
			return w.Flush()
		},
	}
}

func newHistoryShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name> <seq>",
		Short: "Print a revision as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rev, err := c.revision(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rev)
		},
	}
}

func newHistoryExportCmd(c *cli) *cobra.Command {
	var format, output, dxfVersion string
	cmd := &cobra.Command{
		Use:   "export <name> <seq>",
		Short: "Export the flat pattern of a revision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rev, err := c.revision(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			res, err := c.compute(rev.Snapshot)
			if err != nil {
				return err
			}
			return c.writeExport(cmd.OutOrStdout(), res.Pattern, format, output, dxfVersion)
		},
	}
	addExportFlags(cmd, &format, &output, &dxfVersion)
	return cmd
}

func formatTime(unix int64) string {
	return time.Unix(unix, 0).Format("2006-01-02 15:04")
}
