package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tailor-app/internal/services"
	"tailor-app/internal/utils"
)

type AuthHandler struct {
	authService  *services.AuthService
	cookieMaxAge int
	secureCookie bool
}

func NewAuthHandler(authService *services.AuthService, cookieMaxAge int, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, cookieMaxAge: cookieMaxAge, secureCookie: secureCookie}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&credentials); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	token, principal, err := h.authService.Login(c.Request.Context(), credentials.Email, credentials.Password)
	if err != nil {
		handleServiceError(c, err, "Failed to sign in.")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.SessionCookie, token, h.cookieMaxAge, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Signed in", "token": token, "user": principal})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), utils.TokenFrom(c)); err != nil {
		handleServiceError(c, err, "Failed to sign out.")
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(utils.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

func (h *AuthHandler) Session(c *gin.Context) {
	principal, ok := utils.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": principal})
}
