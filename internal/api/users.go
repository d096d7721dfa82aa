package api

import (
	"net/http"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/Spok95/labsched/internal/domain/users"
	"github.com/Spok95/labsched/internal/service"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("body", err))
		return
	}
	u, err := h.svc.Users.Authenticate(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	token, err := h.tokens.Issue(auth.Principal{UserID: u.ID, Role: u.Role}, u.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": viewUser(u)})
}

type resetRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *handler) resetPassword(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("body", err))
		return
	}
	if err := h.svc.Users.ResetPassword(c.Request.Context(), principal(c), req.Email, req.Password); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listUsers(c *gin.Context) {
	us, err := h.svc.Users.List(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewAll(us, viewUser))
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, badRequest("body", err))
		return
	}
	u, err := h.svc.Users.Create(c.Request.Context(), principal(c), service.NewUser{
		Name: req.Name, Email: req.Email, Password: req.Password, Role: users.Role(req.Role),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewUser(u))
}

func (h *handler) deleteUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.svc.Users.Delete(c.Request.Context(), principal(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
