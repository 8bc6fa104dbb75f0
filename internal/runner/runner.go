// Package runner drives a single SortMeRNA filtering run: resolve the
// input, stage the reference database, invoke the aligner, relocate the
// filtered reads and the run log. The sequence is strictly linear and
// single-pass; the first failure aborts the run.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/FredHutch/docker-sortmerna/internal/aligner"
	"github.com/FredHutch/docker-sortmerna/internal/archive"
	"github.com/FredHutch/docker-sortmerna/internal/config"
	"github.com/FredHutch/docker-sortmerna/internal/domain"
	"github.com/FredHutch/docker-sortmerna/internal/fetch"
	"github.com/FredHutch/docker-sortmerna/internal/relocate"
)

// logName is the run-scoped log file inside the run directory; it is
// the artifact relocated to --output-logs.
const logName = "log.txt"

// Request describes a single driver invocation. All paths and limits
// are explicit; the runner reads no ambient state.
type Request struct {
	Input       string
	OutputReads string
	OutputLogs  string
	Database    string
	Threads     int
	TempFolder  string
}

// Runner executes filtering runs.
type Runner struct {
	cfg      *config.Config
	fetchers *fetch.Registry
	sinks    *relocate.Registry
	journal  *domain.RunService
	console  io.Writer
	keepTemp bool
}

// New creates a runner. journal may be nil to disable run journaling;
// console receives the human-readable log stream alongside the run's
// log file.
func New(cfg *config.Config, fetchers *fetch.Registry, sinks *relocate.Registry, journal *domain.RunService, console io.Writer, keepTemp bool) *Runner {
	return &Runner{
		cfg:      cfg,
		fetchers: fetchers,
		sinks:    sinks,
		journal:  journal,
		console:  console,
		keepTemp: keepTemp,
	}
}

// Run executes one filtering run. The per-run directory is created
// under req.TempFolder and removed afterwards, success or failure.
func (r *Runner) Run(ctx context.Context, req Request) (err error) {
	if req.Threads < 1 {
		return fmt.Errorf("threads must be >= 1, got %d", req.Threads)
	}
	if !strings.HasSuffix(req.Database, ".tar.gz") {
		return fmt.Errorf("database must be a .tar.gz archive: %s", req.Database)
	}
	if err := os.MkdirAll(req.TempFolder, 0755); err != nil {
		return fmt.Errorf("create temp folder %s: %w", req.TempFolder, err)
	}

	runDir := filepath.Join(req.TempFolder, uuid.NewString()[:8])
	if _, statErr := os.Stat(runDir); statErr == nil {
		return fmt.Errorf("run directory collision: %s", runDir)
	}
	if err := os.Mkdir(runDir, 0755); err != nil {
		return fmt.Errorf("create run directory %s: %w", runDir, err)
	}

	logFile, err := os.Create(filepath.Join(runDir, logName))
	if err != nil {
		os.RemoveAll(runDir)
		return fmt.Errorf("create run log: %w", err)
	}

	// Tee the run trail into the log file so the uploaded log carries
	// the full staging and subprocess history.
	fileOut := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
	lg := zerolog.New(zerolog.MultiLevelWriter(r.console, fileOut)).With().Timestamp().Logger()

	runID := r.begin(ctx, lg, req)

	defer func() {
		if err != nil {
			lg.Error().Err(err).Msg("run failed")
			r.abort(ctx, lg, runID, err)
		}
		logFile.Close()
		if r.keepTemp {
			lg.Info().Str("dir", runDir).Msg("keeping temporary folder")
			return
		}
		os.RemoveAll(runDir)
	}()

	lg.Info().Str("input", req.Input).Str("dir", runDir).Msg("starting run")
	if err = r.execute(ctx, req, runDir, lg); err != nil {
		return err
	}

	r.finish(ctx, lg, runID)
	lg.Info().Msg("run completed")
	return nil
}

func (r *Runner) execute(ctx context.Context, req Request, runDir string, lg zerolog.Logger) error {
	lg.Info().Str("location", req.Input).Msg("staging input reads")
	reads, err := r.fetchers.Resolve(ctx, req.Input, runDir)
	if err != nil {
		return err
	}
	if strings.HasSuffix(reads, ".gz") {
		lg.Info().Msg("decompressing input reads")
		if reads, err = archive.Gunzip(reads); err != nil {
			return fmt.Errorf("decompress input reads: %w", err)
		}
	}

	dbPrefix, err := r.stageDatabase(ctx, req.Database, runDir, lg)
	if err != nil {
		return err
	}

	al := aligner.New(r.cfg.SortMeRNABin, lg)
	res, err := al.Run(ctx, reads, dbPrefix, req.Threads, runDir)
	if err != nil {
		return err
	}

	out := res.UnalignedReads
	if strings.HasSuffix(req.OutputReads, ".gz") {
		lg.Info().Msg("compressing filtered reads")
		if out, err = archive.Gzip(out); err != nil {
			return fmt.Errorf("compress filtered reads: %w", err)
		}
	}

	lg.Info().Str("dest", req.OutputReads).Msg("relocating filtered reads")
	if err := r.sinks.Place(ctx, out, req.OutputReads); err != nil {
		return err
	}

	lg.Info().Str("dest", req.OutputLogs).Msg("relocating run log")
	return r.sinks.Place(ctx, filepath.Join(runDir, logName), req.OutputLogs)
}

// stageDatabase materializes and unpacks the reference database,
// returning the extracted basename prefix the aligner expects.
func (r *Runner) stageDatabase(ctx context.Context, location, runDir string, lg zerolog.Logger) (string, error) {
	lg.Info().Str("location", location).Msg("staging reference database")
	dbArchive, err := r.fetchers.Resolve(ctx, location, runDir)
	if err != nil {
		return "", err
	}

	if err := archive.ExtractTarGz(dbArchive, runDir); err != nil {
		return "", fmt.Errorf("extract database: %w", err)
	}

	prefix := strings.TrimSuffix(dbArchive, ".tar.gz")
	for _, suffix := range []string{".fasta", ".stats"} {
		if _, err := os.Stat(prefix + suffix); err != nil {
			return "", fmt.Errorf("database archive missing %s", filepath.Base(prefix)+suffix)
		}
	}
	return prefix, nil
}

// Journal helpers. Journal failures never fail a run.

func (r *Runner) begin(ctx context.Context, lg zerolog.Logger, req Request) int64 {
	if r.journal == nil {
		return 0
	}
	run, err := r.journal.Begin(ctx, &domain.Run{
		Input:       req.Input,
		OutputReads: req.OutputReads,
		OutputLogs:  req.OutputLogs,
		Database:    req.Database,
		Threads:     req.Threads,
	})
	if err != nil {
		lg.Warn().Err(err).Msg("journal: failed to record run start")
		return 0
	}
	return run.ID
}

func (r *Runner) finish(ctx context.Context, lg zerolog.Logger, runID int64) {
	if r.journal == nil || runID == 0 {
		return
	}
	if err := r.journal.Finish(ctx, runID); err != nil {
		lg.Warn().Err(err).Msg("journal: failed to record run completion")
	}
}

func (r *Runner) abort(ctx context.Context, lg zerolog.Logger, runID int64, cause error) {
	if r.journal == nil || runID == 0 {
		return
	}
	if err := r.journal.Abort(ctx, runID, cause.Error()); err != nil {
		lg.Warn().Err(err).Msg("journal: failed to record run failure")
	}
}
