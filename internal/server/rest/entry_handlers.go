package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iudp/ledger/internal/server/services"
	"github.com/shopspring/decimal"
)

type slotRequest struct {
	Day      int    `json:"day" binding:"required,min=1,max=31"`
	Month    int    `json:"month" binding:"required,min=1,max=12"`
	Year     int    `json:"year" binding:"required,min=2000"`
	TimeSlot string `json:"timeSlot" binding:"required,timeslot"`
}

func (r slotRequest) ref() services.SlotRef {
	return services.SlotRef{Year: r.Year, Month: r.Month, Day: r.Day, TimeSlot: r.TimeSlot}
}

type monthRequest struct {
	Month int `json:"month" binding:"required,min=1,max=12"`
	Year  int `json:"year" binding:"required,min=2000"`
}

type saveEntryRequest struct {
	slotRequest
	Value      *decimal.Decimal `json:"value"`
	Dinheiro   *decimal.Decimal `json:"dinheiro"`
	Pix        *decimal.Decimal `json:"pix"`
	Maquininha *decimal.Decimal `json:"maquininha"`
	Notes      string           `json:"notes" binding:"max=2000"`
	ChurchID   string           `json:"churchId"`
	Church     string           `json:"church"`
	Region     string           `json:"region"`
	State      string           `json:"state"`
}

func (h *handler) checkEntry(c *gin.Context) {
	var req slotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	v, err := h.svc.Entries.Check(c.Request.Context(), callerFrom(c), req.ref())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handler) saveEntry(c *gin.Context) {
	var req saveEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	res, err := h.svc.Entries.Save(c.Request.Context(), callerFrom(c), services.SaveInput{
		SlotRef:  req.ref(),
		Value:    req.Value,
		Cash:     req.Dinheiro,
		Pix:      req.Pix,
		Card:     req.Maquininha,
		Notes:    req.Notes,
		ChurchID: req.ChurchID,
		Church:   req.Church,
		Region:   req.Region,
		State:    req.State,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if !res.Verdict.Allowed {
		c.AbortWithStatusJSON(http.StatusForbidden, res.Verdict)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "verdict": res.Verdict, "entry": res.Entry})
}

func (h *handler) listMonth(c *gin.Context) {
	var req monthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	view, err := h.svc.Entries.ListMonth(c.Request.Context(), callerFrom(c), req.Month, req.Year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handler) deleteEntry(c *gin.Context) {
	if err := h.svc.Entries.Delete(c.Request.Context(), callerFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
