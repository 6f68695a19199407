package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mmynk/homebase/internal/respond"
	"github.com/mmynk/homebase/internal/service"
)

type HouseholdHandler struct {
	svc *service.HouseholdService
}

func NewHouseholdHandler(svc *service.HouseholdService) *HouseholdHandler {
	return &HouseholdHandler{svc: svc}
}

type createHouseholdReq struct {
	Name string `json:"name" binding:"required"`
}

type joinHouseholdReq struct {
	JoinCode string `json:"join_code" binding:"required"`
}

func (h *HouseholdHandler) Create(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req createHouseholdReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Bind(c, err)
		return
	}
	view, err := h.svc.Create(c.Request.Context(), id, req.Name)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, view)
}

func (h *HouseholdHandler) Join(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req joinHouseholdReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Bind(c, err)
		return
	}
	view, err := h.svc.Join(c.Request.Context(), id, req.JoinCode)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, view)
}

func (h *HouseholdHandler) Leave(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.Leave(c.Request.Context(), id); err != nil {
		respond.Error(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *HouseholdHandler) Current(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	view, err := h.svc.Current(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, view)
}

func (h *HouseholdHandler) RegenerateCode(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	household, err := h.svc.RegenerateCode(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, household)
}

func (h *HouseholdHandler) RemoveMember(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.RemoveMember(c.Request.Context(), id, c.Param("userId")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.NoContent(c)
}
