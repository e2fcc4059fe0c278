package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"stocksim/ledger"
	"stocksim/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const refreshTokenTTL = 7 * 24 * time.Hour

// AuthHandler serves signup, login, logout and password changes.
type AuthHandler struct {
	Store        *ledger.Store
	Rdb          *redis.Client
	JWTSecret    string
	TokenTTL     time.Duration
	StartingCash decimal.Decimal
}

func NewAuthHandler(store *ledger.Store, rdb *redis.Client, jwtSecret string, ttlHours int, startingCash decimal.Decimal) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &AuthHandler{
		Store:        store,
		Rdb:          rdb,
		JWTSecret:    jwtSecret,
		TokenTTL:     time.Duration(ttlHours) * time.Hour,
		StartingCash: startingCash,
	}
}

type signupInput struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Confirmation string `json:"confirmation" binding:"required"`
}

// Signup registers a new account funded with the starting cash balance and
// returns its initial (empty) portfolio framing.
func (h *AuthHandler) Signup(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must not be blank"})
		return
	}
	if input.Password != input.Confirmation {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(c, err)
		return
	}

	acct, err := h.Store.CreateAccount(c.Request.Context(), input.Username, string(hashed), h.StartingCash)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":          acct.ID,
		"username":    acct.Username,
		"cash":        acct.Cash,
		"grand_total": acct.Cash,
		"holdings":    []struct{}{},
	})
}

type loginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies the credentials and issues an access token plus a refresh
// token; the refresh token is stored in Redis so logout can revoke it.
func (h *AuthHandler) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acct, err := h.Store.GetAccountByUsername(c.Request.Context(), strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		writeError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	accessToken, err := h.signToken(acct.ID, h.TokenTTL)
	if err != nil {
		writeError(c, err)
		return
	}
	refreshToken, err := h.signToken(acct.ID, refreshTokenTTL)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := h.Rdb.Set(c.Request.Context(), refreshKey(refreshToken), acct.ID, refreshTokenTTL).Err(); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

type logoutInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Logout revokes the refresh token.
func (h *AuthHandler) Logout(c *gin.Context) {
	var input logoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Rdb.Del(c.Request.Context(), refreshKey(input.RefreshToken)).Err(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

type changePasswordInput struct {
	OldPassword  string `json:"old_password" binding:"required"`
	NewPassword  string `json:"new_password" binding:"required"`
	Confirmation string `json:"confirmation" binding:"required"`
}

// ChangePassword verifies the old password and swaps in the new hash.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var input changePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.NewPassword != input.Confirmation {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}

	accountID := middleware.AccountID(c)
	acct, err := h.Store.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(input.OldPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Store.UpdatePasswordHash(c.Request.Context(), accountID, string(hashed)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

func (h *AuthHandler) signToken(accountID uint, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		middleware.AccountIDKey: accountID,
		"exp":                   time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JWTSecret))
}

func refreshKey(token string) string {
	return "refresh:" + token
}
