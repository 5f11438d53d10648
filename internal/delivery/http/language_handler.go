package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"codelive/internal/executor"
)

// LanguageHandler handles language listing requests.
type LanguageHandler struct{}

// NewLanguageHandler creates a new LanguageHandler.
func NewLanguageHandler() *LanguageHandler {
	return &LanguageHandler{}
}

// List handles GET /languages
func (h *LanguageHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": executor.Languages(),
	})
}
