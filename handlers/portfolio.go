package handlers

import (
	"net/http"

	"stocksim/middleware"

	"github.com/gin-gonic/gin"
)

// GetPortfolio returns the account's derived holdings priced at live
// quotes, plus cash and the grand total.
func (h *TradeHandler) GetPortfolio(c *gin.Context) {
	portfolio, err := h.Engine.Portfolio(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// GetHistory returns the account's transaction log in insertion order,
// with execution-time prices.
func (h *TradeHandler) GetHistory(c *gin.Context) {
	history, err := h.Engine.History(c.Request.Context(), middleware.AccountID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}
