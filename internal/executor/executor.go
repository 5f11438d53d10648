package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"codelive/internal/domain"
)

const (
	// maxOutputBytes caps stdout/stderr to prevent memory exhaustion.
	maxOutputBytes = 64 * 1024 // 64 KB

	// outputTruncatedMsg is appended when output exceeds the limit.
	outputTruncatedMsg = "\n... output truncated (64 KB limit) ..."

	// pipeWaitDelay bounds how long Wait lingers on the output pipes
	// after a kill; an orphaned grandchild may still hold them open.
	pipeWaitDelay = time.Second
)

// Executor stages source code into a shared working directory and runs
// it with the host toolchain. The staged files are keyed by language,
// not by request, so executions for the same language are serialized
// behind a per-language mutex; concurrent requests for different
// languages proceed in parallel.
//
// There is no sandboxing: submitted code runs with the server's own
// privileges. Callers must not expose this to untrusted traffic.
type Executor struct {
	workDir string
	timeout time.Duration
	logger  *zap.Logger
	table   map[domain.Language]LangConfig
	locks   map[domain.Language]*sync.Mutex
}

// New creates an Executor over workDir, creating the directory if
// needed. Every execution runs under the given wall-clock timeout.
func New(workDir string, timeout time.Duration, logger *zap.Logger) (*Executor, error) {
	return NewWithTable(workDir, timeout, DefaultTable(), logger)
}

// NewWithTable is New with an explicit language table.
func NewWithTable(workDir string, timeout time.Duration, table map[domain.Language]LangConfig, logger *zap.Logger) (*Executor, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	locks := make(map[domain.Language]*sync.Mutex, len(table))
	for lang := range table {
		locks[lang] = &sync.Mutex{}
	}

	return &Executor{
		workDir: workDir,
		timeout: timeout,
		logger:  logger,
		table:   table,
		locks:   locks,
	}, nil
}

// Run executes the request: cleanup, stage, compile (if configured),
// run, resolve. A nonzero run exit code is a normal result whose
// output is the program's stderr (or a message naming the exit code);
// only pipeline faults are returned as errors.
func (e *Executor) Run(ctx context.Context, req *domain.RunRequest) (*domain.RunResult, error) {
	cfg, ok := e.table[req.Language]
	if !ok {
		return nil, domain.ErrUnsupportedLanguage
	}

	// Same-language executions share the staged file paths.
	lock := e.locks[req.Language]
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.stage(cfg, req.Code); err != nil {
		return nil, err
	}

	if len(cfg.Compile) > 0 {
		if err := e.compile(ctx, cfg); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	result, err := e.run(ctx, cfg, req.Input)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("execution completed",
		zap.String("language", string(req.Language)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// stage deletes any prior artifacts for the language and writes the
// request's source verbatim to the fixed per-language filename.
func (e *Executor) stage(cfg LangConfig, code string) error {
	if cfg.Binary != "" {
		if err := removeIfExists(filepath.Join(e.workDir, cfg.Binary)); err != nil {
			return &domain.StagingError{Op: "cleanup", Err: err}
		}
	}
	srcPath := filepath.Join(e.workDir, cfg.File)
	if err := removeIfExists(srcPath); err != nil {
		return &domain.StagingError{Op: "cleanup", Err: err}
	}
	if err := os.WriteFile(srcPath, []byte(code), 0o644); err != nil {
		return &domain.StagingError{Op: "write", Err: err}
	}
	return nil
}

// command builds a child bound to the work dir and the deadline. On
// ctx expiry the whole process group is killed, not just the direct
// child, so a program that forked cannot outlive its request; the
// WaitDelay makes Wait give up the pipes even if some orphan escaped
// the group and still holds them.
func (e *Executor) command(ctx context.Context, argv []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = e.workDir
	setProcGroup(cmd)
	cmd.Cancel = func() error {
		killProcGroup(cmd)
		return nil
	}
	cmd.WaitDelay = pipeWaitDelay
	return cmd
}

// compile spawns the compile command with no stdin and accumulates its
// stderr. Nonzero exit aborts the pipeline with the diagnostics.
func (e *Executor) compile(ctx context.Context, cfg LangConfig) error {
	cmd := e.command(ctx, cfg.Compile)

	var stderr limitedBuffer
	stderr.limit = maxOutputBytes
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return domain.ErrTimeout
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &domain.CompileError{Diagnostics: stderr.String()}
		}
		return &domain.SpawnError{Err: err}
	}
	return nil
}

// run spawns the run command, feeds it the request's stdin and closes
// it, and accumulates stdout/stderr until the process exits.
func (e *Executor) run(ctx context.Context, cfg LangConfig, input string) (*domain.RunResult, error) {
	cmd := e.command(ctx, cfg.Run)

	// exec drains the reader into the child's stdin and closes it,
	// signaling end-of-input so the child never blocks on a read.
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr limitedBuffer
	stdout.limit = maxOutputBytes
	stderr.limit = maxOutputBytes
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, domain.ErrTimeout
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &domain.SpawnError{Err: err}
		}
		// A program that runs and fails is still a completed
		// execution; its own error text is the output.
		out := truncateOutput(stderr.String(), stderr.truncated)
		if out == "" {
			out = fmt.Sprintf("process exited with code %d", exitErr.ExitCode())
		}
		return &domain.RunResult{Output: out}, nil
	}

	return &domain.RunResult{Output: truncateOutput(stdout.String(), stdout.truncated)}, nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// limitedBuffer is a bytes.Buffer that stops accepting writes after a limit.
type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (lb *limitedBuffer) Write(p []byte) (n int, err error) {
	if lb.truncated {
		return len(p), nil // discard silently
	}

	remaining := lb.limit - lb.buf.Len()
	if remaining <= 0 {
		lb.truncated = true
		return len(p), nil
	}

	if len(p) > remaining {
		lb.truncated = true
		p = p[:remaining]
	}

	return lb.buf.Write(p)
}

func (lb *limitedBuffer) String() string {
	return lb.buf.String()
}

// truncateOutput appends a truncation notice if the output was cut off.
func truncateOutput(s string, wasTruncated bool) string {
	if wasTruncated {
		return s + outputTruncatedMsg
	}
	return s
}
