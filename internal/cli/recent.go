package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var errJournalDisabled = errors.New("journal is disabled (set journal.enabled or WAYPOINT_JOURNAL)")

func newRecentCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently visited directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.Journal.Enabled {
				return errJournalDisabled
			}
			db := a.openJournal()
			if db == nil {
				return fmt.Errorf("open journal %s failed", a.cfg.Journal.Path)
			}
			defer db.Close()

			visits, err := db.Recent(limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(visits) == 0 {
				fmt.Fprintln(w, "No visits recorded.")
				return nil
			}
			for _, v := range visits {
				fmt.Fprintf(w, "%-14s %4dx\t%s\n", humanize.Time(v.LastVisit), v.Count, v.Path)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of directories")
	return cmd
}
