// cmd/tools/isp-context/root.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"isp-assistant/internal/analytics"
	"isp-assistant/internal/common/config"
	"isp-assistant/internal/common/database"
	"isp-assistant/internal/models"
	"isp-assistant/internal/workers/data-access/fetch-isp-account/queries"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

// rowSource loads the raw rows for an identifier.
type rowSource interface {
	FetchAccountRows(ctx context.Context, identifier string) ([]models.AccountRow, error)
}

// env carries what the subcommands need; tests replace open.
type env struct {
	out  io.Writer
	open func(configPath string) (rowSource, *config.Config, func(), error)
}

func Run(args []string) ExitCode {
	rootCmd := newRootCmd(&env{out: os.Stdout, open: openDatabase})
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "isp-context",
		Short: "Inspect what the assistant sees for an ISP account.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "configs/config.yaml", "path to the configuration file")

	rootCmd.AddCommand(
		newProfileCmd(e),
		newContextCmd(e),
		newMetricsCmd(e),
	)
	return rootCmd
}

func openDatabase(configPath string) (rowSource, *config.Config, func(), error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, nil, nil, err
	}
	return queries.NewAccountQuery(pg.GetDB()), cfg, func() { _ = pg.Close() }, nil
}

// loadSnapshot runs the fetch and normalize steps for one identifier.
func loadSnapshot(cmd *cobra.Command, e *env, identifier string) (*models.AccountSnapshot, *config.Config, error) {
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	source, cfg, closeFn, err := e.open(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open data source: %w", err)
	}
	defer closeFn()

	rows, err := source.FetchAccountRows(cmd.Context(), identifier)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	snapshot, err := analytics.Normalize(rows)
	if err != nil {
		return nil, nil, err
	}
	return snapshot, cfg, nil
}
