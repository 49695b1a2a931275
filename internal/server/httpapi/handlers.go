package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/dmitrijs2005/gophview/internal/server/models"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error string `json:"error"`
}

type createResourceRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DeclaredType string `json:"declaredType"`
	StorageKey   string `json:"storageKey"`
	LinkURL      string `json:"linkUrl"`
}

type resourceResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	DeclaredType string    `json:"declaredType"`
	CreatedAt    time.Time `json:"createdAt"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *handler) getPreview(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	d, err := h.previews.Describe(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.JSON(http.StatusNotFound, errorBody{Error: common.ErrorNotFound.Error()})
			return
		}
		h.logger.Error(ctx, "describe failed", "resource", id, "error", err)
		c.JSON(http.StatusInternalServerError, errorBody{Error: common.ErrorInternal.Error()})
		return
	}

	h.metrics.DescriptorIssued(d.StrategyHint)
	c.JSON(http.StatusOK, d)
}

func (h *handler) createResource(c *gin.Context) {
	ctx := c.Request.Context()

	var req createResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	res, err := h.previews.Register(ctx, &models.Resource{
		ID:           req.ID,
		Name:         req.Name,
		DeclaredType: req.DeclaredType,
		StorageKey:   req.StorageKey,
		LinkURL:      req.LinkURL,
	})
	if err != nil {
		if errors.Is(err, common.ErrorInvalidArgument) {
			c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		h.logger.Error(ctx, "register failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody{Error: common.ErrorInternal.Error()})
		return
	}

	h.logger.Info(ctx, "resource registered", "resource", res.ID, "type", res.DeclaredType)
	c.JSON(http.StatusCreated, resourceResponse{
		ID:           res.ID,
		Name:         res.Name,
		DeclaredType: res.DeclaredType,
		CreatedAt:    res.CreatedAt,
	})
}

func (h *handler) refreshToken(c *gin.Context) {
	ctx := c.Request.Context()

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "refreshToken is required"})
		return
	}

	pair, err := h.previews.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrRefreshTokenExpired) {
			c.JSON(http.StatusUnauthorized, errorBody{Error: err.Error()})
			return
		}
		h.logger.Error(ctx, "token refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody{Error: common.ErrorInternal.Error()})
		return
	}

	c.JSON(http.StatusOK, pair)
}
