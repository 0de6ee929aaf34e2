// Package http 账户服务的 HTTP 接口层
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/tradingvenue/internal/account/application"
	"github.com/wyfcoding/tradingvenue/internal/account/domain"
	"github.com/wyfcoding/tradingvenue/pkg/logger"
)

// Handler 账户 HTTP 处理器
type Handler struct {
	accountService *application.AccountService
}

// NewHandler 创建 HTTP 处理器实例
func NewHandler(accountService *application.AccountService) *Handler {
	return &Handler{
		accountService: accountService,
	}
}

// openAccountRequest 开户请求
type openAccountRequest struct {
	Currency string `json:"currency" binding:"required"`
}

// OpenAccount 开立现金账户
func (h *Handler) OpenAccount(c *gin.Context) {
	var req openAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto, err := h.accountService.OpenAccount(c.Request.Context(), req.Currency)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to open account", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": dto})
}

// depositRequest 入金请求
type depositRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// Deposit 账户入金
func (h *Handler) Deposit(c *gin.Context) {
	accountID := c.Param("account_id")

	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto, err := h.accountService.Deposit(c.Request.Context(), accountID, req.Amount)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrAccountNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto})
}

// GetAccount 查询账户
func (h *Handler) GetAccount(c *gin.Context) {
	dto, err := h.accountService.GetAccount(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrAccountNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto})
}

// ListLedger 查询账户资金流水
func (h *Handler) ListLedger(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	dtos, total, err := h.accountService.ListLedger(c.Request.Context(), c.Param("account_id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dtos, "total": total})
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1/accounts")
	{
		v1.POST("", h.OpenAccount)
		v1.GET("/:account_id", h.GetAccount)
		v1.POST("/:account_id/deposits", h.Deposit)
		v1.GET("/:account_id/ledger", h.ListLedger)
	}
}
