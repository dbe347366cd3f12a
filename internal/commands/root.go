package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"investtracker/internal/buildinfo"
	"investtracker/internal/cli"
	"investtracker/internal/config"
	applog "investtracker/internal/log"
)

// overrides holds flag values that win over the environment.
type overrides struct {
	host     string
	port     string
	dbPath   string
	backend  string
	logLevel string
}

func (o overrides) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = o.host
	}
	if flags.Changed("port") {
		cfg.Port = o.port
	}
	if flags.Changed("db") {
		cfg.SQLiteDBPath = o.dbPath
	}
	if flags.Changed("backend") {
		cfg.DataBackend = o.backend
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
}

// NewRootCommand creates the root CLI command with all subcommands registered.
// Without a subcommand it opens the tracker window.
func NewRootCommand() *cobra.Command {
	var o overrides

	rootCmd := &cobra.Command{
		Use:     "investtracker",
		Short:   "Track monthly investments in a local window",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := prepare(cmd, o)
			if err != nil {
				return err
			}
			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.host, "host", "", "listen host (env HOST)")
	pf.StringVar(&o.port, "port", "", "listen port (env PORT)")
	pf.StringVar(&o.dbPath, "db", "", "SQLite database file (env SQLITE_DB_PATH)")
	pf.StringVar(&o.backend, "backend", "", "record store: sqlite or memory (env DATA_BACKEND)")
	pf.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")

	rootCmd.AddCommand(newMigrateCommand(&o))

	return rootCmd
}

// prepare loads .env and the environment, applies flag overrides and sets up
// logging.
func prepare(cmd *cobra.Command, o overrides) (*config.Config, *applog.Logger, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig(func(c *config.Config) { o.apply(cmd, c) })
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.SetupLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
