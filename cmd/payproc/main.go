package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/oklog/ulid/v2"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	csvadapter "github.com/iho/payproc/internal/adapter/csv"
	"github.com/iho/payproc/internal/blockstore"
	"github.com/iho/payproc/internal/gen"
	"github.com/iho/payproc/internal/infrastructure/config"
	"github.com/iho/payproc/internal/infrastructure/logger"
	"github.com/iho/payproc/internal/infrastructure/metrics"
	"github.com/iho/payproc/internal/ledger"
	"github.com/iho/payproc/internal/processor"
	"github.com/iho/payproc/internal/resolver"
)

var outputPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "payproc",
		Short: "Streaming payments transaction processor",
		Long: `payproc streams a CSV of deposits, withdrawals and dispute-lifecycle
records through a chunked block store and an in-memory ledger, and prints
the final account balances as CSV.`,
		SilenceUsage: true,
	}

	processCmd := &cobra.Command{
		Use:   "process <transactions.csv>",
		Short: "Process a transaction stream and print account balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd.Context(), args[0])
		},
	}
	processCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write account snapshots to this file instead of stdout")

	genCmd := &cobra.Command{
		Use:   "gen <count>",
		Short: "Generate a synthetic transaction workload on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("count must be a number: %w", err)
			}
			bar := progressbar.NewOptions(count,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("generating"),
				progressbar.OptionClearOnFinish(),
			)
			defer bar.Close()
			return gen.Write(os.Stdout, count, func(n int) { _ = bar.Add(n) })
		},
	}

	rootCmd.AddCommand(processCmd, genCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runProcess(ctx context.Context, path string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	runID := ulid.Make().String()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}).
		With().Str("run_id", runID).Logger()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
	}

	store, err := blockstore.New(blockstore.Config{
		Dir:      cfg.StoreDir,
		Capacity: cfg.BlockCapacity,
		RunID:    runID,
	}, log, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("close block store")
		}
	}()

	led := ledger.New(resolver.New(store), log, m)
	proc := processor.New(store, led, log, m, cfg.ChannelBuffer)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open transactions file: %w", err)
	}
	defer f.Close()

	result, err := proc.Run(ctx, csvadapter.NewReader(bufio.NewReader(f)))
	if err != nil {
		return err
	}

	out := os.Stdout
	if outputPath != "" {
		out, err = os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer out.Close()
	}
	return csvadapter.WriteSnapshots(out, result.Accounts)
}
