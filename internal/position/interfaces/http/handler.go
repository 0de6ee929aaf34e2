// Package http 持仓服务的 HTTP 接口层
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/tradingvenue/internal/position/application"
	"github.com/wyfcoding/tradingvenue/internal/position/domain"
)

// Handler 持仓 HTTP 处理器
type Handler struct {
	positionService *application.PositionService
}

// NewHandler 创建 HTTP 处理器实例
func NewHandler(positionService *application.PositionService) *Handler {
	return &Handler{
		positionService: positionService,
	}
}

// GetPosition 查询单个持仓
func (h *Handler) GetPosition(c *gin.Context) {
	accountID := c.Param("account_id")
	symbol := c.Param("symbol")

	dto, err := h.positionService.GetPosition(c.Request.Context(), accountID, symbol)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrPositionNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto})
}

// ListPositions 查询账户全部持仓
func (h *Handler) ListPositions(c *gin.Context) {
	dtos, err := h.positionService.ListPositions(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dtos})
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1/positions")
	{
		v1.GET("/:account_id", h.ListPositions)
		v1.GET("/:account_id/:symbol", h.GetPosition)
	}
}
