package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/lazypower/waypoint/internal/engine"
	"github.com/lazypower/waypoint/internal/store"
	"github.com/spf13/cobra"
)

// tabSeparator joins the parts of a completion candidate.
const tabSeparator = "__"

// tabEntry is a token parsed from completion output. Plain tokens only set
// Needle.
type tabEntry struct {
	Needle string
	Index  int // 1-based, 0 when absent
	Path   string
}

// parseTabEntry splits "needle__N__/path" or "needle__N".
func parseTabEntry(token string) tabEntry {
	parts := strings.SplitN(token, tabSeparator, 3)
	if len(parts) < 2 {
		return tabEntry{Needle: token}
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil || index < 1 {
		return tabEntry{Needle: token}
	}
	te := tabEntry{Needle: parts[0], Index: index}
	if len(parts) == 3 {
		te.Path = parts[2]
	}
	return te
}

func formatTabEntry(needle string, index int, path string) string {
	return needle + tabSeparator + strconv.Itoa(index) + tabSeparator + path
}

// smartCase ignores case unless a token contains an uppercase letter.
func smartCase(tokens []string) bool {
	for _, t := range tokens {
		if strings.IndexFunc(t, unicode.IsUpper) >= 0 {
			return false
		}
	}
	return true
}

// bestFirst ranks tokens and returns the candidate paths, best first.
func bestFirst(tokens []string, st *store.Store, ignoreCase bool) []string {
	paths := engine.Rank(tokens, st, ignoreCase)
	slices.Reverse(paths)
	return paths
}

// jumpable drops the working directory and paths that no longer exist.
func jumpable(paths []string) []string {
	cwd, _ := os.Getwd()
	var out []string
	for _, p := range paths {
		if cwd != "" && samePath(p, cwd) {
			continue
		}
		if engine.DirMissing(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// --- query ---

func newQueryCmd(a *app) *cobra.Command {
	var ignoreCase bool
	cmd := &cobra.Command{
		Use:   "query <tokens...>",
		Short: "Print the directory that best matches the tokens",
		Long: "Print the best matching directory, or \".\" when nothing matches. " +
			"Matching ignores case unless a token contains an uppercase letter.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := engine.Needles(args); err != nil {
				return err
			}
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			fold := ignoreCase || smartCase(args)
			w := cmd.OutOrStdout()

			te := parseTabEntry(args[len(args)-1])
			switch {
			case te.Path != "":
				fmt.Fprintln(w, te.Path)
				return nil
			case te.Index > 0:
				// Indexes the filtered list, so N can name a different path
				// than complete's Nth line when a candidate is gone.
				candidates := jumpable(bestFirst([]string{te.Needle}, st, fold))
				if te.Index <= len(candidates) {
					fmt.Fprintln(w, candidates[te.Index-1])
					return nil
				}
			default:
				if candidates := jumpable(bestFirst(args, st, fold)); len(candidates) > 0 {
					fmt.Fprintln(w, candidates[0])
					return nil
				}
			}
			a.log.Debug("no match", "tokens", args)
			fmt.Fprintln(w, ".")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "Always ignore case")
	return cmd
}

// --- complete ---

func newCompleteCmd(a *app) *cobra.Command {
	var (
		ignoreCase bool
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "complete <tokens...>",
		Short: "Print completion candidates, best first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := engine.Needles(args); err != nil {
				return err
			}
			st, err := a.loadStore()
			if err != nil {
				return err
			}
			fold := ignoreCase || smartCase(args)
			w := cmd.OutOrStdout()

			te := parseTabEntry(args[len(args)-1])
			switch {
			case te.Path != "":
				fmt.Fprintln(w, args[len(args)-1])
				return nil
			case te.Index > 0:
				// Unfiltered, matching the numbered lines printed below.
				candidates := bestFirst([]string{te.Needle}, st, fold)
				if te.Index <= len(candidates) {
					fmt.Fprintln(w, formatTabEntry(te.Needle, te.Index, candidates[te.Index-1]))
				}
				return nil
			}

			candidates := bestFirst(args, st, fold)
			if limit > 0 && len(candidates) > limit {
				candidates = candidates[:limit]
			}
			for i, p := range candidates {
				fmt.Fprintln(w, formatTabEntry(te.Needle, i+1, p))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "Always ignore case")
	cmd.Flags().IntVarP(&limit, "limit", "n", 9, "Maximum number of candidates")
	return cmd
}
