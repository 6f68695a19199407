package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mmynk/homebase/internal/respond"
	"github.com/mmynk/homebase/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var in service.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Bind(c, err)
		return
	}
	res, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in service.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Bind(c, err)
		return
	}
	res, err := h.svc.Login(c.Request.Context(), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, res)
}

func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	user, err := h.svc.Me(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, user)
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var in service.UpdateProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Bind(c, err)
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), id, in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, user)
}
