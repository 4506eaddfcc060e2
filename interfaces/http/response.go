package http

import (
	"net/http"

	"social-publisher/domain/apperror"
	"social-publisher/domain/dto"
	"social-publisher/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

const (
	ErrorUnmarshal = "invalid request body"
	ErrorInternal  = "internal server error"
)

// respondError writes the flat failure envelope. Internal failures are logged
// in full but never echoed to the caller.
func respondError(ctx *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	entry := logger.GetLogger().
		WithField("path", ctx.FullPath()).
		WithField("user_id", ctx.GetString("user_id")).
		WithField("kind", apperror.KindOf(err)).
		WithField("error", err.Error())

	msg := err.Error()
	if status == http.StatusInternalServerError && apperror.KindOf(err) == apperror.KindInternal {
		entry.Error("Request failed")
		msg = ErrorInternal
	} else {
		entry.Warn("Request failed")
	}
	ctx.JSON(status, dto.Failure(msg))
}

// bindOptionalJSON accepts an empty body; anything else must be valid JSON.
func bindOptionalJSON(ctx *gin.Context, v any) bool {
	if ctx.Request.ContentLength == 0 {
		return true
	}
	if err := ctx.ShouldBindJSON(v); err != nil {
		logger.GetLogger().WithField("error", err).Warn(ErrorUnmarshal)
		ctx.JSON(http.StatusBadRequest, dto.Failure(ErrorUnmarshal))
		return false
	}
	return true
}
