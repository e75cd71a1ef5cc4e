package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iudp/ledger/internal/server/models"
)

type observationRequest struct {
	monthRequest
	Observation string `json:"observation"`
}

type monthQuery struct {
	Month int `form:"month" binding:"required,min=1,max=12"`
	Year  int `form:"year" binding:"required,min=2000"`
}

func (h *handler) closeMonth(c *gin.Context) {
	h.setMonth(c, h.svc.Periods.Close)
}

func (h *handler) reopenMonth(c *gin.Context) {
	h.setMonth(c, h.svc.Periods.Reopen)
}

func (h *handler) setMonth(c *gin.Context, op func(ctx context.Context, caller models.Caller, month, year int) (*models.PeriodStatus, error)) {
	var req monthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	st, err := op(c.Request.Context(), callerFrom(c), req.Month, req.Year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handler) monthStatus(c *gin.Context) {
	var req monthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	st, err := h.svc.Periods.Status(c.Request.Context(), req.Month, req.Year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *handler) dashboard(c *gin.Context) {
	var req monthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	sum, err := h.svc.Dashboard.Summary(c.Request.Context(), callerFrom(c), req.Month, req.Year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *handler) saveObservation(c *gin.Context) {
	var req observationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	obs, err := h.svc.Observations.Save(c.Request.Context(), callerFrom(c), req.Month, req.Year, req.Observation)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, obs)
}

func (h *handler) getObservation(c *gin.Context) {
	var q monthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}

	obs, err := h.svc.Observations.Get(c.Request.Context(), q.Month, q.Year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, obs)
}
