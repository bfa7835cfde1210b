package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"news-trader/internal/eod"
	"news-trader/internal/eod/eodobs"
	"news-trader/internal/forensic"
	"news-trader/internal/logger"
	"news-trader/internal/pipeline"
	"news-trader/internal/trace"
	"news-trader/internal/types"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "newstrader",
		Short: "News-driven paper trading pipeline",
		Long: `newstrader ingests market news, scores it, checks macro and forensic risk
and books simulated trades against a single paper portfolio.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeSystem()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = trace.Shutdown(context.Background())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Configuration file path")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newRunOnceCmd(&configPath))
	root.AddCommand(newScanCmd())
	root.AddCommand(newPortfolioCmd(&configPath))
	root.AddCommand(newSummaryCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the news source, trade on it and serve the read API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx, *configPath)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	a.runner.OnResult(func(rec *types.AnalysisRecord, err error) {
		if err == nil && rec.Decision != nil {
			b, _ := json.Marshal(rec)
			fmt.Println(string(b))
		}
	})
	a.runner.Start(ctx)
	a.startAPI(ctx)
	go a.runEOD(ctx)

	sched := pipeline.NewScheduler(a.source, a.runner, a.cfg.PollInterval(), a.cfg.Source.BatchSize)
	logger.Info(ctx, "News trader started",
		"mode", a.cfg.Mode,
		"source", a.cfg.Source.Kind,
		"poll_seconds", a.cfg.PollSeconds)

	sched.Run(ctx)

	logger.Info(ctx, "Shutting down...")
	a.runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = a.eod.SummarizeDay(shutdownCtx, time.Now())
	a.close(shutdownCtx)

	st := a.runner.Stats()
	logger.Info(shutdownCtx, "News trader stopped",
		"processed", st.Processed,
		"duplicates", st.Duplicates,
		"aborted", st.Aborted)
	return nil
}

func newRunOnceCmd(configPath *string) *cobra.Command {
	var ticker, headline, source, body string

	cmd := &cobra.Command{
		Use:   "run-once",
		Short: "Process a single headline and print its analysis record",
		Example: `  newstrader run-once --ticker TSLA --headline "TSLA reports Q3 earnings beat, stock jumps 5%"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, *configPath)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			ev := types.NewsEvent{
				ID:        uuid.NewString(),
				Ticker:    strings.ToUpper(ticker),
				Headline:  headline,
				Source:    source,
				Timestamp: time.Now().UTC(),
				Body:      body,
			}
			rec, runErr := a.orch.Run(ctx, ev)
			if err := printJSON(cmd, rec); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&ticker, "ticker", "", "Ticker the headline is about")
	cmd.Flags().StringVar(&headline, "headline", "", "Headline text")
	cmd.Flags().StringVar(&source, "source", "CLI", "Publisher name")
	cmd.Flags().StringVar(&body, "body", "", "Optional article or filing text")
	_ = cmd.MarkFlagRequired("ticker")
	_ = cmd.MarkFlagRequired("headline")
	return cmd
}

func newScanCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "scan <text>",
		Short: "Print the forensic risk score of a text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report := forensic.NewScanner(nil).Inspect(strings.Join(args, " "))
			out, err := forensic.Render(report, forensic.ReportFormat(format))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json or csv")
	return cmd
}

func newPortfolioCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Print the current ledger snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, *configPath)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			p, err := a.ledger.Snapshot(ctx)
			if err != nil {
				return err
			}
			p.TradeHistory = p.RecentTrades(limit)
			return printJSON(cmd, p)
		},
	}
	cmd.Flags().IntVar(&limit, "trades", 10, "Number of recent trades to include")
	return cmd
}

func newSummaryCmd(configPath *string) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Write the end-of-day trade summary CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, *configPath)
			if err != nil {
				return err
			}
			day := time.Now().UTC()
			if date != "" {
				if day, err = time.Parse("2006-01-02", date); err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}
			path, err := eodobs.Wrap(eod.NewSummarizer(cfg.TradeLog.Dir, 0)).SummarizeDay(ctx, day)
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no trades on", day.Format("2006-01-02"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "EOD CSV written:", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day to summarize in YYYY-MM-DD format (today if not provided)")
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
