package http

import (
	"net/http"
	"strconv"

	"social-publisher/domain/apperror"
	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IPublishHandler interface {
	Publish(ctx *gin.Context)
	GetStatus(ctx *gin.Context)
	Attempts(ctx *gin.Context)
}

type PublishHandler struct {
	publishUsecase usecase.IPublishUsecase
}

func NewPublishHandler(uc usecase.IPublishUsecase) IPublishHandler {
	return &PublishHandler{publishUsecase: uc}
}

// Publish answers single platform requests with the flat envelope and
// multi platform requests with one result per platform.
func (h *PublishHandler) Publish(ctx *gin.Context) {
	var req dto.PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.Failure(ErrorUnmarshal))
		return
	}
	req.UserID = ctx.GetString("user_id")

	outcomes, err := h.publishUsecase.Publish(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	if len(req.Platforms) == 0 && len(outcomes) == 1 {
		o := outcomes[0]
		if !o.Success {
			ctx.JSON(apperror.StatusForKind(apperror.Kind(o.ErrorKind)), dto.PublishResponse{Success: false, Error: o.Error, Retryable: o.Retryable})
			return
		}
		ctx.JSON(http.StatusOK, dto.PublishResponse{
			Success:        true,
			ExternalPostID: o.ExternalPostID,
			Message:        "Published to " + o.Platform,
		})
		return
	}

	ctx.JSON(http.StatusOK, dto.PublishResponse{Success: allSucceeded(outcomes), Results: outcomes})
}

// GetStatus only returns rows owned by the caller; ?platform= narrows to one.
func (h *PublishHandler) GetStatus(ctx *gin.Context) {
	results, err := h.publishUsecase.GetStatus(ctx.Request.Context(), ctx.GetString("user_id"), ctx.Param("postId"), ctx.Query("platform"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.PublishStatusResponse{Success: true, Results: results})
}

func (h *PublishHandler) Attempts(ctx *gin.Context) {
	var limit int64
	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			ctx.JSON(http.StatusBadRequest, dto.Failure("limit must be a positive integer"))
			return
		}
		limit = n
	}
	attempts, err := h.publishUsecase.Attempts(ctx.Request.Context(), ctx.GetString("user_id"), ctx.Param("postId"), limit)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.PublishAttemptsResponse{Success: true, Attempts: attempts})
}

func allSucceeded(outcomes []model.Outcome) bool {
	for _, o := range outcomes {
		if !o.Success {
			return false
		}
	}
	return len(outcomes) > 0
}
