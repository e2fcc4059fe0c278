package handlers

import (
	"net/http"

	"stocksim/ledger"
	"stocksim/middleware"

	"github.com/gin-gonic/gin"
)

// TradeHandler serves buy/sell plus the portfolio and history views.
type TradeHandler struct {
	Engine *ledger.Engine
}

func NewTradeHandler(engine *ledger.Engine) *TradeHandler {
	return &TradeHandler{Engine: engine}
}

// tradeInput is the validation boundary: the engine only ever sees a
// non-empty symbol and an integer share count.
type tradeInput struct {
	Symbol string `json:"symbol" binding:"required"`
	Shares int    `json:"shares" binding:"required"`
}

func (h *TradeHandler) Buy(c *gin.Context) {
	var input tradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Engine.Buy(c.Request.Context(), middleware.AccountID(c), input.Symbol, input.Shares)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TradeHandler) Sell(c *gin.Context) {
	var input tradeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Engine.Sell(c.Request.Context(), middleware.AccountID(c), input.Symbol, input.Shares)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
