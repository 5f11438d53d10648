package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"codelive/internal/domain"
	"codelive/internal/usecase"
)

// RunHandler handles synchronous code execution requests.
type RunHandler struct {
	runUC  *usecase.RunCodeUsecase
	logger *zap.Logger
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(runUC *usecase.RunCodeUsecase, logger *zap.Logger) *RunHandler {
	return &RunHandler{runUC: runUC, logger: logger}
}

// Run handles POST /run. The caller blocks until the program has exited
// and all output is collected; a nonzero program exit still yields a
// 200 whose output carries the program's own error text.
func (h *RunHandler) Run(c *gin.Context) {
	var req domain.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.runUC.Execute(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *RunHandler) respondError(c *gin.Context, err error) {
	var compileErr *domain.CompileError
	var stagingErr *domain.StagingError
	var spawnErr *domain.SpawnError

	switch {
	case errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrUnsupportedLanguage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPayloadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.As(err, &compileErr):
		// Pipeline fault: the run step never happened. The compiler's
		// diagnostics are the human-readable message.
		c.JSON(http.StatusInternalServerError, gin.H{"error": compileErr.Error()})
	case errors.As(err, &stagingErr), errors.As(err, &spawnErr):
		h.logger.Error("pipeline fault", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		h.logger.Error("run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
