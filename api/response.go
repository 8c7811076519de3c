package api

import (
	"net/http"

	"github.com/coolestnick/Shard-Flip/service"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	codeInvalidRequest  = "INVALID_REQUEST"
	codeUnauthorized    = "UNAUTHORIZED"
	codeInvalidToken    = "INVALID_TOKEN"
	codeRateLimited     = "RATE_LIMITED"
	codeRateLimitFailed = "RATE_LIMIT_UNAVAILABLE"
	codeNotFound        = "NOT_FOUND"
	codeInternal        = "INTERNAL"
)

// statusForClass maps a ledger error class onto an HTTP status
func statusForClass(class service.ErrorClass) int {
	switch class {
	case service.ClassValidation:
		return http.StatusBadRequest
	case service.ClassLiquidity:
		return http.StatusConflict
	case service.ClassAuthorization:
		return http.StatusForbidden
	case service.ClassAvailability:
		return http.StatusServiceUnavailable
	case service.ClassTransfer:
		return http.StatusBadGateway
	case service.ClassNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondOKWith adds top-level fields such as meta or pagination next to data
func respondOKWith(c *gin.Context, data any, extra gin.H) {
	body := gin.H{
		"success": true,
		"data":    data,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func respondFailure(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	})
}

// respondError renders err using its ledger code, hiding internal details
func respondError(c *gin.Context, err error) {
	le, ok := service.AsLedgerError(err)
	if !ok {
		log.WithFields(log.Fields{
			"path":  c.FullPath(),
			"error": err,
		}).Error("Request failed")
		respondFailure(c, http.StatusInternalServerError, codeInternal, "Internal server error")
		return
	}

	status := statusForClass(le.Class)
	if status >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":  c.FullPath(),
			"code":  le.Code,
			"error": err,
		}).Error("Request failed")
	}
	respondFailure(c, status, le.Code, le.Message)
}
