package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/tradingvenue/internal/marketdata/application"
	"github.com/wyfcoding/tradingvenue/pkg/logger"
)

// Handler 行情 HTTP 处理器
type Handler struct {
	quoteService *application.QuoteService
}

// NewHandler 创建 HTTP 处理器实例
func NewHandler(quoteService *application.QuoteService) *Handler {
	return &Handler{
		quoteService: quoteService,
	}
}

// publishTickRequest 行情 tick 请求
type publishTickRequest struct {
	Symbol    string `json:"symbol" binding:"required"`
	BidPrice  string `json:"bid_price"`
	AskPrice  string `json:"ask_price"`
	LastPrice string `json:"last_price" binding:"required"`
	Source    string `json:"source"`
}

// PublishTick 发布一条报价
func (h *Handler) PublishTick(c *gin.Context) {
	var req publishTickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.quoteService.PublishTick(c.Request.Context(), application.PublishTickCommand{
		Symbol:    req.Symbol,
		BidPrice:  req.BidPrice,
		AskPrice:  req.AskPrice,
		LastPrice: req.LastPrice,
		Source:    req.Source,
	})
	if err != nil {
		logger.Warn(c.Request.Context(), "Failed to publish tick", "symbol", req.Symbol, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// GetLatestQuote 获取最新报价
func (h *Handler) GetLatestQuote(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	dto, err := h.quoteService.GetLatestQuote(c.Request.Context(), symbol)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto})
}

// GetFeedState 查询行情源状态
func (h *Handler) GetFeedState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.quoteService.FeedState()})
}

// setFeedStateRequest 行情源状态变更请求
type setFeedStateRequest struct {
	State string `json:"state" binding:"required"`
}

// SetFeedState 变更行情源状态
func (h *Handler) SetFeedState(c *gin.Context) {
	var req setFeedStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.quoteService.SetFeedState(c.Request.Context(), req.State); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": h.quoteService.FeedState()})
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1/marketdata")
	{
		v1.POST("/ticks", h.PublishTick)
		v1.GET("/quote", h.GetLatestQuote)
		v1.GET("/feed", h.GetFeedState)
		v1.PUT("/feed", h.SetFeedState)
	}
}
