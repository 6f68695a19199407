package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/homebase/internal/apperr"
	"github.com/mmynk/homebase/internal/export"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/respond"
	"github.com/mmynk/homebase/internal/service"
)

type ExpenseHandler struct {
	svc *service.ExpenseService
	now func() time.Time
}

func NewExpenseHandler(svc *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{svc: svc, now: time.Now}
}

// List supports ?category=, ?status= and ?recurring=true.
func (h *ExpenseHandler) List(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	expenses, err := h.svc.List(c.Request.Context(), id, service.ExpenseFilter{
		Category:      models.ExpenseCategory(c.Query("category")),
		Status:        models.ExpenseStatus(c.Query("status")),
		RecurringOnly: queryBool(c, "recurring"),
	})
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, expenses)
}

func (h *ExpenseHandler) ListRecurring(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	expenses, err := h.svc.ListRecurring(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, expenses)
}

func (h *ExpenseHandler) Create(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var in service.CreateExpenseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Bind(c, err)
		return
	}
	expense, err := h.svc.Create(c.Request.Context(), id, in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, expense)
}

func (h *ExpenseHandler) Get(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	expense, err := h.svc.Get(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, expense)
}

func (h *ExpenseHandler) Update(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var in service.UpdateExpenseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Bind(c, err)
		return
	}
	expense, err := h.svc.Update(c.Request.Context(), id, c.Param("id"), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, expense)
}

func (h *ExpenseHandler) Delete(c *gin.Context) {
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

func (h *ExpenseHandler) MarkPaid(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	expense, err := h.svc.MarkPaid(c.Request.Context(), id, c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, expense)
}

func (h *ExpenseHandler) SetRecurring(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var in service.RecurrenceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Bind(c, err)
		return
	}
	expense, err := h.svc.SetRecurring(c.Request.Context(), id, c.Param("id"), in)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, expense)
}

func (h *ExpenseHandler) Balances(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	balances, err := h.svc.Balances(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, balances)
}

// Export streams the household's expenses as ?format=csv (default) or xlsx.
// The file is rendered in memory first so failures still get a JSON error.
func (h *ExpenseHandler) Export(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respond.Error(c, apperr.Validation("%v", err))
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export(c.Request.Context(), id, format, &buf); err != nil {
		respond.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(h.now())))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
