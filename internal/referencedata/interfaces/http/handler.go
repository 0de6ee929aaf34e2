package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/tradingvenue/internal/referencedata/application"
	"github.com/wyfcoding/tradingvenue/internal/referencedata/domain"
	"github.com/wyfcoding/tradingvenue/pkg/logger"
)

// Handler 参考数据 HTTP 处理器
type Handler struct {
	instrumentService *application.InstrumentService
}

// NewHandler 创建 HTTP 处理器实例
func NewHandler(instrumentService *application.InstrumentService) *Handler {
	return &Handler{
		instrumentService: instrumentService,
	}
}

// createInstrumentRequest 创建标的请求
type createInstrumentRequest struct {
	Symbol   string `json:"symbol" binding:"required"`
	Name     string `json:"name"`
	LotSize  string `json:"lot_size" binding:"required"`
	TickSize string `json:"tick_size" binding:"required"`
	Currency string `json:"currency" binding:"required"`
}

// CreateInstrument 创建标的
func (h *Handler) CreateInstrument(c *gin.Context) {
	var req createInstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto, err := h.instrumentService.CreateInstrument(c.Request.Context(), application.CreateInstrumentCommand{
		Symbol:   req.Symbol,
		Name:     req.Name,
		LotSize:  req.LotSize,
		TickSize: req.TickSize,
		Currency: req.Currency,
	})
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to create instrument", "symbol", req.Symbol, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": dto})
}

// GetInstrument 按符号获取标的
func (h *Handler) GetInstrument(c *gin.Context) {
	symbol := c.Param("symbol")

	dto, err := h.instrumentService.GetInstrument(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrInstrumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "instrument not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto})
}

// ListInstruments 分页获取标的列表
func (h *Handler) ListInstruments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	dtos, total, err := h.instrumentService.ListInstruments(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dtos, "total": total})
}

// setStatusRequest 标的状态变更请求
type setStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetInstrumentStatus 启停标的交易
func (h *Handler) SetInstrumentStatus(c *gin.Context) {
	symbol := c.Param("symbol")

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto, err := h.instrumentService.SetInstrumentStatus(c.Request.Context(), symbol, *req.Active)
	if err != nil {
		if errors.Is(err, domain.ErrInstrumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "instrument not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto})
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1/instruments")
	{
		v1.POST("", h.CreateInstrument)
		v1.GET("", h.ListInstruments)
		v1.GET("/:symbol", h.GetInstrument)
		v1.PUT("/:symbol/status", h.SetInstrumentStatus)
	}
}
