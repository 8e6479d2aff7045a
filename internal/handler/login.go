package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"regportal/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *Handler) loginForm(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// login accepts JSON or form credentials. JSON clients get a JSON reply;
// form posts are redirected to the dashboard.
func (h *Handler) login(c *gin.Context) {
	isJSON := c.ContentType() == binding.MIMEJSON

	var req loginRequest
	if isJSON {
		_ = c.ShouldBindJSON(&req)
	} else {
		req.Email = c.PostForm("email")
		req.Password = c.PostForm("password")
	}

	if !h.creds.Match(req.Email, req.Password) {
		h.countLogin("rejected")
		h.log.WarnContext(c.Request.Context(), "auth.login_rejected", slog.String("client_ip", c.ClientIP()))
		if isJSON {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"Error": "Invalid credentials"})
		return
	}

	if _, err := h.sessions.Start(c, req.Email); err != nil {
		h.internalError(c, "auth.session_issue_failed", err)
		return
	}
	h.countLogin("ok")
	h.log.InfoContext(c.Request.Context(), "auth.login", slog.String("client_ip", c.ClientIP()))

	if isJSON {
		c.JSON(http.StatusOK, gin.H{"message": "Login successful"})
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.sessions.End(c); err != nil {
		h.log.WarnContext(c.Request.Context(), "auth.revoke_failed", slog.String("error", err.Error()))
	}
	if auth.WantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
		return
	}
	c.HTML(http.StatusOK, "logout.html", nil)
}
