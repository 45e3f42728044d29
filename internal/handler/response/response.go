// Package response owns the uniform API envelope and the error-kind to HTTP
// status mapping. Internal errors cross the boundary as a generic failure.
package response

import (
	"net/http"

	"fileinbox-service/internal/apperr"
	"fileinbox-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Blocked    bool        `json:"blocked,omitempty"`
	RetryAfter int         `json:"retryAfter,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: msg})
}

const storageRetrySeconds = 30

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotAuthorized:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindCircularReference, apperr.KindDepthLimitExceeded:
		return http.StatusUnprocessableEntity
	case apperr.KindNameConflict, apperr.KindAlreadyLinked:
		return http.StatusConflict
	case apperr.KindQuotaExceeded:
		return http.StatusRequestEntityTooLarge
	case apperr.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Err translates a service error into the envelope. The kind is the whole
// public surface of an error; internals go to the log only.
func Err(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	env := Envelope{Success: false, Error: string(kind)}

	switch kind {
	case apperr.KindInternal:
		logger.GetLogger(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
	case apperr.KindQuotaExceeded:
		env.Blocked = true
	case apperr.KindStorageUnavailable:
		env.RetryAfter = storageRetrySeconds
	}

	c.JSON(statusOf(kind), env)
}
