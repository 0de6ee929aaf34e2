// Package http 订单服务的 HTTP 接口层
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	accdomain "github.com/wyfcoding/tradingvenue/internal/account/domain"
	"github.com/wyfcoding/tradingvenue/internal/order/application"
	"github.com/wyfcoding/tradingvenue/internal/order/domain"
	"github.com/wyfcoding/tradingvenue/pkg/logger"
)

// Handler 订单 HTTP 处理器
type Handler struct {
	coordinator  *application.Coordinator
	queryService *application.QueryService
}

// NewHandler 创建 HTTP 处理器实例
func NewHandler(coordinator *application.Coordinator, queryService *application.QueryService) *Handler {
	return &Handler{
		coordinator:  coordinator,
		queryService: queryService,
	}
}

// submitOrderRequest 下单请求
type submitOrderRequest struct {
	AccountID   string `json:"account_id" binding:"required"`
	Symbol      string `json:"symbol" binding:"required"`
	Side        string `json:"side" binding:"required"`
	OrderType   string `json:"order_type" binding:"required"`
	Quantity    string `json:"quantity" binding:"required"`
	LimitPrice  string `json:"limit_price"`
	TimeInForce string `json:"time_in_force"`
	Margin      bool   `json:"margin"`
	ShortSell   bool   `json:"short_sell"`
	Intraday    bool   `json:"intraday"`
	ComplexFee  bool   `json:"complex_fee"`
}

// SubmitOrder 提交订单
// 校验拒绝不是 HTTP 错误：订单以 REJECTED 状态返回，拒绝原因在响应体中
func (h *Handler) SubmitOrder(c *gin.Context) {
	var req submitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto, err := h.coordinator.SubmitOrder(c.Request.Context(), application.SubmitOrderCommand{
		AccountID:   req.AccountID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		OrderType:   req.OrderType,
		Quantity:    req.Quantity,
		LimitPrice:  req.LimitPrice,
		TimeInForce: req.TimeInForce,
		Margin:      req.Margin,
		ShortSell:   req.ShortSell,
		Intraday:    req.Intraday,
		ComplexFee:  req.ComplexFee,
	})
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, accdomain.ErrAccountNotFound):
			status = http.StatusNotFound
		case errors.Is(err, accdomain.ErrAccountInactive):
			status = http.StatusConflict
		}
		logger.Warn(c.Request.Context(), "Order submission failed", "error", err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": dto})
}

// CancelOrder 撤销订单
func (h *Handler) CancelOrder(c *gin.Context) {
	dto, err := h.coordinator.CancelOrder(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrOrderNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto})
}

// GetOrder 查询订单
func (h *Handler) GetOrder(c *gin.Context) {
	dto, err := h.queryService.GetOrder(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrOrderNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto})
}

// ListOrders 分页查询账户订单
func (h *Handler) ListOrders(c *gin.Context) {
	accountID := c.Query("account_id")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id is required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	dtos, total, err := h.queryService.ListOrders(c.Request.Context(), accountID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dtos, "total": total})
}

// ListExecutions 查询订单的全部成交
func (h *Handler) ListExecutions(c *gin.Context) {
	dtos, err := h.queryService.ListExecutions(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dtos})
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1/orders")
	{
		v1.POST("", h.SubmitOrder)
		v1.GET("", h.ListOrders)
		v1.GET("/:order_id", h.GetOrder)
		v1.DELETE("/:order_id", h.CancelOrder)
		v1.GET("/:order_id/executions", h.ListExecutions)
	}
}
