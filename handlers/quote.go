package handlers

import (
	"net/http"

	"stocksim/quotes"

	"github.com/gin-gonic/gin"
)

// QuoteHandler serves ad-hoc symbol lookups.
type QuoteHandler struct {
	Provider quotes.Provider
}

func NewQuoteHandler(provider quotes.Provider) *QuoteHandler {
	return &QuoteHandler{Provider: provider}
}

func (h *QuoteHandler) GetQuote(c *gin.Context) {
	q, err := h.Provider.Lookup(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}
