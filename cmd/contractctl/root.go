package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-contracts/internal/config"
	"github.com/goliatone/go-contracts/layering"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds global flag values and the state built by setup.
type app struct {
	configFile string
	logLevel   string
	jsonOut    bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "contractctl",
		Short: "Work with layout and UI registry contracts",
		Long: `contractctl canonicalizes and hashes contract documents, resolves page
overrides and design tokens, wraps documents in versioned envelopes and
keeps drafts (SQLite or Redis) and archived versions (git).`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ./contractctl.yaml or ~/.config/contractctl/contractctl.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "output as JSON")

	root.AddCommand(
		a.canonicalizeCmd(),
		a.hashCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.resolveCmd(),
		a.traceCmd(),
		a.tokenCmd(),
		a.styleCmd(),
		a.lintCmd(),
		a.normalizeCmd(),
		a.migrateCmd(),
		a.draftCmd(),
		a.archiveCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	res, err := config.Load(config.Options{
		File:        a.configFile,
		SearchPaths: searchPaths(),
		Flags:       a.flagLayer(cmd),
	})
	if err != nil {
		return err
	}
	a.cfg = res.Config

	level, err := config.ParseLogLevel(a.cfg.LogLevel.Or("info"))
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	if a.cfg.JSON.Or(false) {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	}
	a.logger = slog.New(handler)
	if res.File != "" {
		a.logger.Debug("config loaded", "file", res.File)
	}
	return nil
}

// flagLayer turns the flags the user actually passed into the strongest
// config layer.
func (a *app) flagLayer(cmd *cobra.Command) config.Config {
	var cfg config.Config
	if value, ok := changed(cmd, "log-level"); ok {
		cfg.LogLevel = layering.Set(value)
	}
	if value, ok := changed(cmd, "json"); ok {
		cfg.JSON = layering.Set(value == "true")
	}
	if value, ok := changed(cmd, "algorithm"); ok {
		cfg.HashAlgorithm = layering.Set(value)
	}
	if value, ok := changed(cmd, "verify-hash"); ok {
		cfg.VerifyHash = layering.Set(value == "true")
	}
	if value, ok := changed(cmd, "engine"); ok {
		cfg.Lint.Engine = layering.Set(value)
	}
	if value, ok := changed(cmd, "rules"); ok {
		cfg.Lint.Rules = layering.Set(value)
	}
	return cfg
}

func changed(cmd *cobra.Command, name string) (string, bool) {
	flag := cmd.Flags().Lookup(name)
	if flag == nil || !flag.Changed {
		return "", false
	}
	return flag.Value.String(), true
}

func searchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "contractctl"))
	}
	return paths
}
