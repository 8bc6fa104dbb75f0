// Package aligner wraps the external SortMeRNA binary. The command line
// is fixed by the upstream tool and must be invoked exactly as it
// expects; only the paths and the thread count vary per run.
package aligner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/FredHutch/docker-sortmerna/internal/domain"
)

// Result holds the artifacts of a completed alignment.
type Result struct {
	// UnalignedReads is the filtered (non-rRNA) reads file.
	UnalignedReads string
	// AlignedPrefix is the basename prefix of the rRNA hits.
	AlignedPrefix string
}

// SortMeRNA invokes the external aligner binary.
type SortMeRNA struct {
	bin string
	log zerolog.Logger
}

// New creates a SortMeRNA invoker for the given binary name or path.
func New(bin string, log zerolog.Logger) *SortMeRNA {
	return &SortMeRNA{bin: bin, log: log}
}

// Run filters readsPath against the reference database and returns the
// output artifacts. dbPrefix is the extracted database basename: the
// aligner expects <prefix>.fasta alongside its <prefix> index files.
// Exactly one subprocess is spawned; no retry.
func (a *SortMeRNA) Run(ctx context.Context, readsPath, dbPrefix string, threads int, workDir string) (*Result, error) {
	if threads < 1 {
		return nil, fmt.Errorf("threads must be >= 1, got %d", threads)
	}

	suffix := uuid.NewString()[:4]
	alignedPrefix := filepath.Join(workDir, suffix+"-aligned")
	unalignedPrefix := filepath.Join(workDir, suffix+"-unaligned")

	args := []string{
		"--ref", fmt.Sprintf("%s.fasta,%s", dbPrefix, dbPrefix),
		"--reads", readsPath,
		"--aligned", alignedPrefix,
		"--other", unalignedPrefix,
		"--fastx",
		"--log",
		"-a", strconv.Itoa(threads),
		"-v",
	}
	a.log.Info().Str("bin", a.bin).Strs("args", args).Msg("running sortmerna")

	cmd := exec.CommandContext(ctx, a.bin, args...)
	cmd.Dir = workDir
	output, err := cmd.CombinedOutput()
	logOutput(a.log, output)
	if err != nil {
		return nil, &domain.ExternalToolError{
			Tool:     a.bin,
			ExitCode: exitCode(err),
			Output:   string(output),
		}
	}

	// SortMeRNA appends the format suffix to the --other prefix.
	unaligned := unalignedPrefix + ".fastq"
	if _, err := os.Stat(unaligned); err != nil {
		return nil, &domain.ExternalToolError{
			Tool:   a.bin,
			Output: fmt.Sprintf("aligner did not produce %s", filepath.Base(unaligned)),
		}
	}

	return &Result{UnalignedReads: unaligned, AlignedPrefix: alignedPrefix}, nil
}

func logOutput(log zerolog.Logger, output []byte) {
	if len(output) == 0 {
		return
	}
	sc := bufio.NewScanner(strings.NewReader(string(output)))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		log.Info().Str("tool", "sortmerna").Msg(sc.Text())
	}
}

func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
