package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxz807/bizledger/internal/ledger/domain"
)

// writeError 按错误类型返回 400 / 404 / 500
func writeError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Ledger entry not found"})
	default:
		_ = c.Error(err)
		details := err.Error()
		var pe *domain.PersistenceError
		if errors.As(err, &pe) {
			details = pe.Err.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Ledger operation failed",
			"details": details,
		})
	}
}
