package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/simaogato/moneyjar/internal/domain"
	"github.com/simaogato/moneyjar/internal/logger"
)

// Business error codes carried in the response envelope
const (
	CodeOK           = 0
	CodeInvalidParam = 40001
	CodeAuth         = 40101
	CodeNotFound     = 40401
	CodeServerErr    = 50001
)

// success writes the {code, data} envelope
func success(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"code": CodeOK,
		"data": data,
	})
}

// fail aborts with the {code, message} envelope
func fail(c *gin.Context, status int, code int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    code,
		"message": msg,
	})
}

// respondError maps a service error onto the envelope. Internal errors are logged,
// their text is not returned.
func respondError(c *gin.Context, err error) {
	var (
		validation *domain.ValidationError
		reference  *domain.ReferenceError
	)
	switch {
	case errors.As(err, &validation), errors.Is(err, domain.ErrValidation):
		fail(c, http.StatusBadRequest, CodeInvalidParam, err.Error())
	case errors.As(err, &reference), errors.Is(err, domain.ErrNotFound):
		fail(c, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, CodeAuth, "unauthenticated")
	default:
		log := logger.FromContext(c.Request.Context(), zerolog.Nop())
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		fail(c, http.StatusInternalServerError, CodeServerErr, "internal error")
	}
}

// badRequest aborts with a 400 for malformed input that never reached a service
func badRequest(c *gin.Context, msg string) {
	fail(c, http.StatusBadRequest, CodeInvalidParam, msg)
}
