package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/respond"
	"github.com/mmynk/homebase/internal/service"
)

type ChoreHandler struct {
	svc *service.ChoreService
}

func NewChoreHandler(svc *service.ChoreService) *ChoreHandler {
	return &ChoreHandler{svc: svc}
}

// List supports ?status= and ?assigned_to= (use "me" for the caller).
func (h *ChoreHandler) List(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	filter := service.ChoreFilter{
		Status:     models.ChoreStatus(c.Query("status")),
		AssignedTo: c.Query("assigned_to"),
	}
	if filter.AssignedTo == "me" {
		filter.AssignedTo = id.UserID
	}
	chores, err := h.svc.List(c.Request.Context(), id, filter)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, chores)
}

func (h *ChoreHandler) Create(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var in service.CreateChoreInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Bind(c, err)
		return
	}
	chore, err := h.svc.Create(c.Request.Context(), id, in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, chore)
}

func (h *ChoreHandler) Get(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	chore, err := h.svc.Get(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, chore)
}

func (h *ChoreHandler) Update(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var in service.UpdateChoreInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Bind(c, err)
		return
	}
	chore, err := h.svc.Update(c.Request.Context(), id, c.Param("id"), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, chore)
}

func (h *ChoreHandler) Delete(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *ChoreHandler) Complete(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	chore, err := h.svc.Complete(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, chore)
}
