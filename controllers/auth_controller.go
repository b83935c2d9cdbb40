package controllers

import (
	"net/http"

	"radio_fleet_tool/app"

	"github.com/gin-gonic/gin"
)

type AuthController struct{ *Srv }

func NewAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

// POST /api/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "username and password are required"})
		return
	}

	token, p, err := ac.Auth.Login(c.Request.Context(), app.SessionToken(c), in.Username, in.Password)
	if err != nil {
		respondErr(c, err)
		return
	}
	ac.setSessionCookie(c.Writer, token, ac.Sessions.TTL())
	c.JSON(http.StatusOK, app.H{"username": p.Username, "isValid": true})
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.Auth.Logout(c.Request.Context(), app.SessionToken(c)); err != nil {
		respondErr(c, err)
		return
	}
	ac.clearSessionCookie(c.Writer)
	c.JSON(http.StatusOK, app.H{"message": "logged out"})
}

// GET /api/auth/session
func (ac *AuthController) SessionInfo(c *gin.Context) {
	info, err := ac.Auth.Info(c.Request.Context(), app.SessionToken(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// PUT /api/auth/credentials
func (ac *AuthController) ChangeCredentials(c *gin.Context) {
	var in struct {
		CurrentPassword string  `json:"currentPassword" binding:"required"`
		NewUsername     *string `json:"newUsername"`
		NewPassword     *string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "current password is required"})
		return
	}

	username, err := ac.Auth.ChangeCredentials(c.Request.Context(), app.SessionToken(c),
		in.CurrentPassword, in.NewUsername, in.NewPassword)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"message": "credentials updated", "username": username})
}

// GET /api/auth/oidc/login?returnTo=
func (ac *AuthController) OIDCLogin(c *gin.Context) {
	if ac.OIDC == nil {
		c.JSON(http.StatusNotFound, app.H{"error": "identity provider not configured"})
		return
	}
	authURL, token, err := ac.OIDC.LoginStart(c.Request.Context(), app.SessionToken(c), c.Query("returnTo"))
	if err != nil {
		respondErr(c, err)
		return
	}
	// 先种 Cookie 再跳转，回调时才能找到 state
	ac.setSessionCookie(c.Writer, token, ac.Sessions.TTL())
	c.Redirect(http.StatusFound, authURL)
}

// GET /api/auth/oidc/callback?code=&state=
func (ac *AuthController) OIDCCallback(c *gin.Context) {
	if ac.OIDC == nil {
		c.JSON(http.StatusNotFound, app.H{"error": "identity provider not configured"})
		return
	}
	token, returnTo, err := ac.OIDC.Callback(c.Request.Context(), app.SessionToken(c),
		c.Query("code"), c.Query("state"))
	if err != nil {
		respondErr(c, err)
		return
	}
	ac.setSessionCookie(c.Writer, token, ac.Sessions.TTL())
	c.Redirect(http.StatusFound, returnTo)
}
