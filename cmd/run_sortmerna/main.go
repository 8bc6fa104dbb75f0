package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/FredHutch/docker-sortmerna/internal/config"
	"github.com/FredHutch/docker-sortmerna/internal/domain"
	"github.com/FredHutch/docker-sortmerna/internal/fetch"
	"github.com/FredHutch/docker-sortmerna/internal/relocate"
	"github.com/FredHutch/docker-sortmerna/internal/runner"
	"github.com/FredHutch/docker-sortmerna/internal/sqlite"
)

var (
	flagInput       string
	flagOutputReads string
	flagOutputLogs  string
	flagDB          string
	flagThreads     int
	flagTempFolder  string
	flagConfig      string
	flagJournal     string
	flagKeepTemp    bool
	flagVerbose     bool

	flagHistoryLimit int
)

var console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

var rootCmd = &cobra.Command{
	Use:   "run_sortmerna",
	Short: "Filter a set of reads with SortMeRNA",
	Long: `Filter a set of reads with SortMeRNA.

The input reads may be a local path, an s3:// object or an ftp:// URL.
They are staged into a temporary folder, filtered against the reference
database with the SortMeRNA aligner, and the unaligned (non-rRNA) reads
plus the run log are placed at the requested destinations, which may be
local paths or s3:// objects.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the journal",
	RunE:  runHistory,
}

func init() {
	rootCmd.Flags().StringVar(&flagInput, "input", "",
		"location of the input reads (local path, s3:// or ftp://)")
	_ = rootCmd.MarkFlagRequired("input")

	rootCmd.Flags().StringVar(&flagOutputReads, "output-reads", "",
		"destination for the filtered reads (local path or s3://)")
	_ = rootCmd.MarkFlagRequired("output-reads")

	rootCmd.Flags().StringVar(&flagOutputLogs, "output-logs", "",
		"destination for the run log (local path or s3://)")
	_ = rootCmd.MarkFlagRequired("output-logs")

	rootCmd.Flags().StringVar(&flagDB, "db", "",
		"reference database archive (.tar.gz); defaults from config")
	rootCmd.Flags().IntVar(&flagThreads, "threads", 1,
		"number of threads to use for alignment")
	rootCmd.Flags().StringVar(&flagTempFolder, "temp-folder", "",
		"folder used for temporary files; created if absent")
	rootCmd.Flags().BoolVar(&flagKeepTemp, "keep-temp", false,
		"keep the per-run temporary folder for debugging")

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&flagJournal, "journal", "",
		"run journal database path; set empty to disable")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false,
		"enable debug logging")

	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20,
		"maximum number of runs to list")

	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("run_sortmerna failed")
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command) (*config.Config, error) {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(console).Level(level).With().Timestamp().Logger()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("journal") {
		cfg.JournalPath = flagJournal
	}
	return cfg, nil
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}

	// Reject bad thread counts before any staging or subprocess work.
	if flagThreads < 1 {
		return fmt.Errorf("--threads must be >= 1, got %d", flagThreads)
	}

	db := flagDB
	if db == "" {
		db = cfg.DefaultDB
	}
	tempFolder := flagTempFolder
	if tempFolder == "" {
		tempFolder = cfg.TempFolder
	}

	var journal *domain.RunService
	if cfg.JournalPath != "" {
		repo, err := sqlite.New(cfg.JournalPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.JournalPath).Msg("run journal unavailable")
		} else {
			defer repo.Close()
			journal = domain.NewRunService(repo)
		}
	}

	fetchers := fetch.NewRegistry()
	fetchers.Register(fetch.NewLocalFetcher())
	fetchers.Register(fetch.NewS3Fetcher(cfg.AWSRegion))
	fetchers.Register(fetch.NewFTPFetcher())

	sinks := relocate.NewRegistry()
	sinks.Register(relocate.NewLocalSink())
	sinks.Register(relocate.NewS3Sink(cfg.AWSRegion))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := runner.New(cfg, fetchers, sinks, journal, console, flagKeepTemp)
	return r.Run(ctx, runner.Request{
		Input:       flagInput,
		OutputReads: flagOutputReads,
		OutputLogs:  flagOutputLogs,
		Database:    db,
		Threads:     flagThreads,
		TempFolder:  tempFolder,
	})
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.JournalPath == "" {
		return fmt.Errorf("run journal is disabled")
	}

	repo, err := sqlite.New(cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", cfg.JournalPath, err)
	}
	defer repo.Close()

	runs, err := domain.NewRunService(repo).Recent(cmd.Context(), flagHistoryLimit)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-6s %-10s %-22s %-10s %s\n", "ID", "STATUS", "STARTED", "DURATION", "INPUT")
	for _, run := range runs {
		dur := "-"
		if run.Finished() {
			dur = run.Duration().Round(time.Second).String()
		}
		fmt.Fprintf(w, "%-6d %-10s %-22s %-10s %s\n",
			run.ID, run.Status, run.StartedAt.Format(time.RFC3339), dur, run.Input)
		if run.Error != "" {
			fmt.Fprintf(w, "       error: %s\n", run.Error)
		}
	}
	return nil
}
