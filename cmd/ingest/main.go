package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/geo-stats/internal/app"
	"github.com/riskibarqy/geo-stats/internal/config"
	"github.com/riskibarqy/geo-stats/internal/observability"
	"github.com/riskibarqy/geo-stats/internal/platform/logging"
	"github.com/riskibarqy/geo-stats/internal/usecase"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "ingest",
		Usage: "import finished duels into the stats database",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "overall deadline for the run",
				Value: 30 * time.Minute,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "match",
				Usage:     "ingest one or more duels by game id",
				ArgsUsage: "<game-id>...",
				Action: func(c *cli.Context) error {
					if c.Args().Len() == 0 {
						return cli.Exit("at least one game id is required", 2)
					}
					return run(c, func(ctx context.Context, svc *usecase.IngestionService) (usecase.BatchResult, error) {
						return svc.IngestMatches(ctx, c.Args().Slice())
					})
				},
			},
			{
				Name:      "recent",
				Usage:     "ingest the duels referenced by a recent-games feed file",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return cli.Exit("exactly one feed file is required", 2)
					}
					entries, err := loadRecentGames(c.Args().First())
					if err != nil {
						return err
					}
					return run(c, func(ctx context.Context, svc *usecase.IngestionService) (usecase.BatchResult, error) {
						return svc.IngestRecentGames(ctx, entries)
					})
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type ingestFunc func(ctx context.Context, svc *usecase.IngestionService) (usecase.BatchResult, error)

func run(c *cli.Context, ingest ingestFunc) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewJSON(cfg.LogLevel, cfg.ServiceName, cfg.AppEnv).Named("ingest")
	logger, shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	stopProfiler, err := observability.InitPyroscope(cfg, "ingest", logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Warn("stop pyroscope", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
	defer cancel()

	runtime, err := app.NewRuntime(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	defer func() {
		if err := runtime.Close(); err != nil {
			logger.Warn("close runtime", "error", err)
		}
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("shutdown tracing", "error", err)
		}
	}()

	result, err := ingest(ctx, runtime.Ingestion)
	if printErr := printSummary(os.Stdout, result); printErr != nil {
		logger.Warn("print summary", "error", printErr)
	}
	if err != nil {
		return err
	}
	if result.Rejected > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d matches rejected", result.Rejected, result.Requested), 1)
	}
	return nil
}

type summaryOutcome struct {
	GameID    string `json:"gameId"`
	State     string `json:"state"`
	Reason    string `json:"reason,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	Error     string `json:"error,omitempty"`
}

type summary struct {
	Requested     int              `json:"requested"`
	Committed     int              `json:"committed"`
	AlreadyExists int              `json:"alreadyExists"`
	Rejected      int              `json:"rejected"`
	Outcomes      []summaryOutcome `json:"outcomes,omitempty"`
}

func printSummary(w io.Writer, result usecase.BatchResult) error {
	out := summary{
		Requested:     result.Requested,
		Committed:     result.Committed,
		AlreadyExists: result.AlreadyExists,
		Rejected:      result.Rejected,
	}
	for _, outcome := range result.Outcomes {
		if outcome.Committed() {
			continue
		}
		item := summaryOutcome{
			GameID:    outcome.GameID,
			State:     string(outcome.State),
			Reason:    outcome.Reason,
			Retryable: outcome.Retryable(),
		}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
		}
		out.Outcomes = append(out.Outcomes, item)
	}
	return sonic.ConfigStd.NewEncoder(w).Encode(out)
}

func loadRecentGames(path string) ([]usecase.RecentGameEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recent games feed %s: %w", path, err)
	}
	var entries []usecase.RecentGameEntry
	if err := sonic.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode recent games feed %s: %w", path, err)
	}
	return entries, nil
}
