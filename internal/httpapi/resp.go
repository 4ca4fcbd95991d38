package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Leganyst/ordering-platform/internal/logging"
	"github.com/Leganyst/ordering-platform/internal/ordering"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": data})
}

func abort(c *gin.Context, status int, kind ordering.Kind, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": errorBody{Kind: string(kind), Message: msg}})
}

func statusFor(kind ordering.Kind) int {
	switch kind {
	case ordering.KindMalformedRequest,
		ordering.KindEmptySelection,
		ordering.KindUnknownEntity,
		ordering.KindIncompleteMenuSelection,
		ordering.KindForeignSelection:
		return http.StatusBadRequest
	case ordering.KindNotVisible, ordering.KindForbidden:
		return http.StatusForbidden
	case ordering.KindNotFound:
		return http.StatusNotFound
	case ordering.KindConflict:
		return http.StatusConflict
	case ordering.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Fail пишет доменную ошибку с её статусом; прочие ошибки логируются и
// отдаются как 500 без подробностей.
func Fail(c *gin.Context, err error) {
	var derr *ordering.Error
	if errors.As(err, &derr) {
		abort(c, statusFor(derr.Kind), derr.Kind, derr.Message)
		return
	}

	logging.Ctx(c.Request.Context()).Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("request failed")

	msg := "write failed"
	if c.Request.Method == http.MethodGet {
		msg = "read failed"
	}
	abort(c, http.StatusInternalServerError, "Internal", msg)
}
