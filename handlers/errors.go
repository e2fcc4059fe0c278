package handlers

import (
	"errors"
	"log"
	"net/http"

	"stocksim/ledger"
	"stocksim/quotes"

	"github.com/gin-gonic/gin"
)

// writeError maps domain errors to client-error responses. Anything not in
// the table is an internal failure: it is logged server-side and surfaced
// as an opaque 500.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidShareCount),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientShares),
		errors.Is(err, ledger.ErrNoSuchHolding):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrUnknownSymbol), errors.Is(err, quotes.ErrUnknownSymbol):
		c.JSON(http.StatusNotFound, gin.H{"error": ledger.ErrUnknownSymbol.Error()})
	case errors.Is(err, ledger.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrQuoteUnavailable), errors.Is(err, quotes.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": ledger.ErrQuoteUnavailable.Error()})
	default:
		log.Printf("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
