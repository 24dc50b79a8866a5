// Package cli implements the creator-console command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jonuar/Donacrypto/internal/app"
	"github.com/jonuar/Donacrypto/internal/pkg/config"
	"github.com/jonuar/Donacrypto/pkg/logger"
)

// globalFlags override values loaded from the environment.
type globalFlags struct {
	apiURL   string
	logLevel string
	store    string
}

// Execute is the entry point called from main.
func Execute(version string) {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "creator-console",
		Short:         "Donacrypto creator console",
		Long:          "creator-console manages a Donacrypto session and the creator dashboard from the terminal or a local gateway.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "backend base URL (overrides API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&flags.store, "store", "", "durable store: sqlite, redis or mongo (overrides DURABLE_STORE)")

	rootCmd.AddCommand(newServeCmd(flags))
	rootCmd.AddCommand(newLoginCmd(flags))
	rootCmd.AddCommand(newLogoutCmd(flags))
	rootCmd.AddCommand(newWhoamiCmd(flags))
	rootCmd.AddCommand(newDashboardCmd(flags))
	rootCmd.AddCommand(newDeleteAccountCmd(flags))

	return rootCmd
}

// bootstrap loads configuration, applies flag overrides and wires the app.
func bootstrap(cmd *cobra.Command, flags *globalFlags) (*app.App, error) {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if flags.apiURL != "" {
		cfg.API.BaseURL = flags.apiURL
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	if flags.store != "" {
		cfg.Storage.Durable = flags.store
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment() && isTerminal(cmd.ErrOrStderr()),
		Output: cmd.ErrOrStderr(),
	})

	return app.New(ctx, cfg, log)
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
