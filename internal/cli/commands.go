package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/lazypower/waypoint/internal/engine"
	"github.com/lazypower/waypoint/internal/store"
	"github.com/spf13/cobra"
)

func printEntry(w io.Writer, e store.Entry) {
	fmt.Fprintf(w, "%.1f:\t%s\n", e.Weight, e.Path)
}

// parseAmount reads an optional positional amount, falling back to def.
func parseAmount(args []string, def float64) (float64, error) {
	if len(args) == 0 {
		return def, nil
	}
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", args[0], err)
	}
	if !(amount >= 0) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("invalid amount %q: must be a finite number >= 0", args[0])
	}
	return amount, nil
}

// --- add ---

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <dir>",
		Short: "Track a directory without raising its weight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := targetDir(args[0])
			if err != nil {
				return err
			}
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			e := st.Add(dir)
			if err := a.persist(st); err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

// --- increase / decrease ---

func newIncreaseCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "increase [amount]",
		Short: "Raise the weight of the current directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args, a.cfg.Weight.Increase)
			if err != nil {
				return err
			}
			path, err := targetDir(dir)
			if err != nil {
				return err
			}
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			e := st.Increase(path, amount)
			if err := a.persist(st); err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), e)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to change (default: working directory)")
	return cmd
}

func newDecreaseCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "decrease [amount]",
		Short: "Lower the weight of the current directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args, a.cfg.Weight.Decrease)
			if err != nil {
				return err
			}
			path, err := targetDir(dir)
			if err != nil {
				return err
			}
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			e, ok := st.Decrease(path, amount)
			if !ok {
				return fmt.Errorf("%s is not tracked", path)
			}
			if err := a.persist(st); err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), e)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to change (default: working directory)")
	return cmd
}

// --- visit ---

func newVisitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "visit [dir]",
		Short: "Record a visit (shell hook entry point)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) > 0 {
				arg = args[0]
			}
			path, err := targetDir(arg)
			if err != nil {
				return err
			}
			st, err := a.loadStore()
			if err != nil {
				return err
			}

			amount := a.cfg.Weight.Increase
			e, decayed, err := engine.Visit(st, path, amount, a.decayPolicy())
			if err != nil {
				return err
			}
			if decayed {
				a.log.Info("decay applied", "factor", a.cfg.Decay.Factor, "total", st.Total())
			}
			if err := a.persist(st); err != nil {
				return err
			}
			a.recordVisit(e.Path, amount, time.Now())
			return nil
		},
	}
}

// --- decay ---

func newDecayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decay",
		Short: "Age all weights when the total exceeds the threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			p := a.decayPolicy()
			applied, err := st.Decay(p.Threshold, p.Factor)
			if err != nil {
				return err
			}
			if !applied {
				fmt.Fprintf(cmd.OutOrStdout(), "total weight %.1f below threshold %.1f, nothing to do\n", st.Total(), p.Threshold)
				return nil
			}
			a.log.Info("decay applied", "factor", p.Factor, "total", st.Total())
			if err := a.persist(st); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "decayed %d entries, total weight now %.1f\n", st.Len(), st.Total())
			return nil
		},
	}
}

// --- purge ---

func newPurgeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Forget directories that no longer exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			removed := engine.PurgeMissing(st)
			if len(removed) > 0 {
				if err := a.persist(st); err != nil {
					return err
				}
				paths := make([]string, len(removed))
				for i, e := range removed {
					paths[i] = e.Path
				}
				a.forgetVisits(paths)
				a.log.Info("purged", "entries", len(removed))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d entries.\n", len(removed))
			return nil
		},
	}
}

// --- stat ---

func newStatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Show tracked directories and weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, e := range engine.SortAscending(st.Entries()) {
				printEntry(w, e)
			}
			fmt.Fprintln(w, "________________________________________")
			fmt.Fprintln(w)
			fmt.Fprintf(w, "%d:\t number of entries\n", st.Len())
			fmt.Fprintf(w, "%.1f:\t total weight\n", st.Total())
			fmt.Fprintf(w, "data:\t %s\n", a.cfg.Data.Path)
			if n := len(st.Skipped()); n > 0 {
				fmt.Fprintf(w, "%d:\t corrupt lines skipped\n", n)
			}
			if db := a.openJournal(); db != nil {
				defer db.Close()
				if n, err := db.Count(); err != nil {
					a.log.Warn("journal count failed", "err", err)
				} else {
					fmt.Fprintf(w, "%d:\t journal visits (%s)\n", n, a.cfg.Journal.Path)
				}
			}
			return nil
		},
	}
}

// --- forget ---

func newForgetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forget [dir]",
		Short: "Stop tracking a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) > 0 {
				arg = args[0]
			}
			path, err := targetDir(arg)
			if err != nil {
				return err
			}
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			e, ok := st.Get(path)
			if !ok || !st.Remove(path) {
				return fmt.Errorf("%s is not tracked", path)
			}
			if err := a.persist(st); err != nil {
				return err
			}
			a.forgetVisits([]string{e.Path})
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot %s\n", e.Path)
			return nil
		},
	}
}
