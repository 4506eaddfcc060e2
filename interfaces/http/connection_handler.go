package http

import (
	"net/http"
	"strings"

	"social-publisher/domain/dto"
	"social-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IConnectionHandler interface {
	Authorize(ctx *gin.Context)
	Exchange(ctx *gin.Context)
	Revoke(ctx *gin.Context)
	Refresh(ctx *gin.Context)
	List(ctx *gin.Context)
}

type ConnectionHandler struct {
	connectionUsecase usecase.IConnectionUsecase
}

func NewConnectionHandler(uc usecase.IConnectionUsecase) IConnectionHandler {
	return &ConnectionHandler{connectionUsecase: uc}
}

func (h *ConnectionHandler) Authorize(ctx *gin.Context) {
	var req dto.AuthorizeRequest
	if !bindOptionalJSON(ctx, &req) {
		return
	}
	req.Platform = ctx.Param("platform")
	req.UserID = ctx.GetString("user_id")
	if req.Origin == "" {
		req.Origin = requestOrigin(ctx)
	}

	res, err := h.connectionUsecase.Authorize(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (h *ConnectionHandler) Exchange(ctx *gin.Context) {
	var req dto.ExchangeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.Failure(ErrorUnmarshal))
		return
	}
	req.Platform = ctx.Param("platform")
	req.UserID = ctx.GetString("user_id")

	res, err := h.connectionUsecase.Exchange(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (h *ConnectionHandler) Revoke(ctx *gin.Context) {
	var req dto.RevokeRequest
	if !bindOptionalJSON(ctx, &req) {
		return
	}
	req.Platform = ctx.Param("platform")
	req.UserID = ctx.GetString("user_id")

	res, err := h.connectionUsecase.Revoke(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (h *ConnectionHandler) Refresh(ctx *gin.Context) {
	res, err := h.connectionUsecase.Refresh(ctx.Request.Context(), ctx.GetString("user_id"), ctx.Param("platform"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (h *ConnectionHandler) List(ctx *gin.Context) {
	views, err := h.connectionUsecase.List(ctx.Request.Context(), ctx.GetString("user_id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ConnectionListResponse{Success: true, Connections: views})
}

// requestOrigin prefers the browser Origin header and falls back to the
// scheme and host the request arrived on.
func requestOrigin(ctx *gin.Context) string {
	if o := ctx.GetHeader("Origin"); o != "" && o != "null" {
		return o
	}
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := ctx.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + ctx.Request.Host
}
