package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lazypower/waypoint/internal/config"
	"github.com/lazypower/waypoint/internal/engine"
	"github.com/lazypower/waypoint/internal/journal"
	"github.com/lazypower/waypoint/internal/logging"
	"github.com/lazypower/waypoint/internal/store"
	"github.com/spf13/cobra"
)

// app carries the global flags and the resolved configuration through a
// single invocation.
type app struct {
	configPath string
	dataPath   string
	logLevel   string

	cfg  *config.Config
	base *slog.Logger // untagged; packages add their own component
	log  *slog.Logger
}

// NewRootCmd builds the waypoint command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "waypoint",
		Short: "Jump to frequently visited directories",
		Long: "Waypoint keeps a weighted record of the directories you visit and resolves " +
			"fuzzy queries like \"waypoint query proj api\" to the directory you most likely meant.",
		Version:           VersionString(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/waypoint/config.yaml)")
	root.PersistentFlags().StringVar(&a.dataPath, "data", "", "Data file (overrides data.path)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newAddCmd(a),
		newIncreaseCmd(a),
		newDecreaseCmd(a),
		newVisitCmd(a),
		newQueryCmd(a),
		newCompleteCmd(a),
		newPurgeCmd(a),
		newDecayCmd(a),
		newStatCmd(a),
		newRecentCmd(a),
		newForgetCmd(a),
	)
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	var (
		cfg *config.Config
		err error
	)
	// An explicit --config must exist; the default location is optional.
	if a.configPath != "" {
		cfg, err = config.LoadFromFile(a.configPath)
	} else {
		cfg, err = config.Load("")
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.dataPath != "" {
		cfg.Data.Path = config.ExpandHome(a.dataPath)
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = journal.DefaultPath(cfg.Data.Path)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.base = logging.SetupDefault(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	a.log = logging.WithComponent(a.base, "cli")
	return nil
}

func (a *app) storeOptions() store.Options {
	return store.Options{
		InitialWeight: a.cfg.Weight.Initial,
		Scale:         a.cfg.Weight.Scale,
		FoldCase:      a.cfg.Data.FoldCase,
		Logger:        a.base,
	}
}

// loadStore reads the data file, recovering from the backup when needed.
func (a *app) loadStore() (*store.Store, error) {
	return store.Load(a.cfg.Data.Path, a.storeOptions())
}

func (a *app) persist(st *store.Store) error {
	return st.Persist(a.cfg.Data.Path)
}

func (a *app) decayPolicy() engine.DecayPolicy {
	return engine.DecayPolicy{
		Threshold: a.cfg.Decay.Threshold,
		Factor:    a.cfg.Decay.Factor,
	}
}

// openJournal returns nil when the journal is disabled or cannot be opened.
// Journal trouble is logged and never fails the command.
func (a *app) openJournal() *journal.DB {
	if !a.cfg.Journal.Enabled {
		return nil
	}
	db, err := journal.Open(a.cfg.Journal.Path)
	if err != nil {
		a.log.Warn("journal unavailable", "path", a.cfg.Journal.Path, "err", err)
		return nil
	}
	return db
}

// recordVisit journals a visit and prunes entries past the retention window.
func (a *app) recordVisit(path string, amount float64, at time.Time) {
	db := a.openJournal()
	if db == nil {
		return
	}
	defer db.Close()

	if err := db.Record(path, amount, at); err != nil {
		a.log.Warn("journal record failed", "path", path, "err", err)
		return
	}
	if retention := time.Duration(a.cfg.Journal.Retention); retention > 0 {
		if n, err := db.Prune(at.Add(-retention)); err != nil {
			a.log.Warn("journal prune failed", "err", err)
		} else if n > 0 {
			a.log.Info("journal pruned", "visits", n)
		}
	}
}

func (a *app) forgetVisits(paths []string) {
	if len(paths) == 0 {
		return
	}
	db := a.openJournal()
	if db == nil {
		return
	}
	defer db.Close()

	if _, err := db.Forget(paths...); err != nil {
		a.log.Warn("journal forget failed", "err", err)
	}
}

// targetDir resolves dir (or the working directory when empty) to a clean
// absolute path the data file can hold.
func targetDir(dir string) (string, error) {
	var path string
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working dir: %w", err)
		}
		path = wd
	} else {
		abs, err := filepath.Abs(config.ExpandHome(dir))
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", dir, err)
		}
		path = abs
	}
	if err := store.CheckPath(path); err != nil {
		return "", err
	}
	return path, nil
}
