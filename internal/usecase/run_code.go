package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"codelive/internal/domain"
	"codelive/internal/metrics"
)

// Runner executes a staged request to completion.
type Runner interface {
	Run(ctx context.Context, req *domain.RunRequest) (*domain.RunResult, error)
}

// RunCodeUsecase is the request gateway: it validates a run request and
// delegates to the execution pipeline, blocking until the result is in.
type RunCodeUsecase struct {
	runner       Runner
	maxCodeBytes int
	logger       *zap.Logger
}

// NewRunCodeUsecase creates a new RunCodeUsecase.
func NewRunCodeUsecase(runner Runner, maxCodeBytes int, logger *zap.Logger) *RunCodeUsecase {
	return &RunCodeUsecase{
		runner:       runner,
		maxCodeBytes: maxCodeBytes,
		logger:       logger,
	}
}

// Execute validates and runs the request. Rejections happen before any
// filesystem or process side effect.
func (uc *RunCodeUsecase) Execute(ctx context.Context, req *domain.RunRequest) (*domain.RunResult, error) {
	// Presence check only: whitespace-only source is still a program
	// (the toolchain decides what to make of it).
	if req.Code == "" || req.Language == "" {
		return nil, domain.ErrMissingField
	}
	if len(req.Code) > uc.maxCodeBytes {
		return nil, domain.ErrPayloadTooLarge
	}

	start := time.Now()
	result, err := uc.runner.Run(ctx, req)
	elapsed := time.Since(start)

	metrics.ExecutionsTotal.WithLabelValues(string(req.Language), statusLabel(err)).Inc()
	metrics.ExecutionDuration.WithLabelValues(string(req.Language)).Observe(elapsed.Seconds())

	if err != nil {
		uc.logger.Info("execution failed",
			zap.String("language", string(req.Language)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	uc.logger.Info("execution completed",
		zap.String("language", string(req.Language)),
		zap.Duration("elapsed", elapsed),
		zap.Int("output_bytes", len(result.Output)),
	)
	return result, nil
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnsupportedLanguage):
		return "unsupported_language"
	case errors.Is(err, domain.ErrTimeout):
		return "timeout"
	default:
		var compileErr *domain.CompileError
		var stagingErr *domain.StagingError
		var spawnErr *domain.SpawnError
		switch {
		case errors.As(err, &compileErr):
			return "compile_error"
		case errors.As(err, &stagingErr):
			return "staging_error"
		case errors.As(err, &spawnErr):
			return "spawn_error"
		}
		return "error"
	}
}
