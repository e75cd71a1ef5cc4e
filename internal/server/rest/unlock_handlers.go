package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iudp/ledger/internal/server/models"
	"github.com/iudp/ledger/internal/server/services"
)

type unlockRequest struct {
	slotRequest
	EntryID *string `json:"entryId"`
	Reason  string  `json:"reason" binding:"required,max=1000"`
}

type approveRequest struct {
	RequestID       string `json:"requestId" binding:"required"`
	DurationMinutes int    `json:"durationMinutes" binding:"omitempty,min=1,max=10080"`
}

type rejectRequest struct {
	RequestID string `json:"requestId" binding:"required"`
	Reason    string `json:"reason" binding:"max=1000"`
}

type listUnlocksQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

func (h *handler) requestUnlock(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	r, err := h.svc.Unlocks.Request(c.Request.Context(), callerFrom(c), services.UnlockInput{
		SlotRef: req.ref(),
		EntryID: req.EntryID,
		Reason:  req.Reason,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *handler) approveUnlock(c *gin.Context) {
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	r, err := h.svc.Unlocks.Approve(c.Request.Context(), callerFrom(c), req.RequestID, req.DurationMinutes)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *handler) rejectUnlock(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	r, err := h.svc.Unlocks.Reject(c.Request.Context(), callerFrom(c), req.RequestID, req.Reason)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *handler) listUnlocks(c *gin.Context) {
	var q listUnlocksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}

	list, err := h.svc.Unlocks.List(c.Request.Context(), callerFrom(c), models.UnlockStatus(q.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list})
}

func (h *handler) deleteUnlock(c *gin.Context) {
	if err := h.svc.Unlocks.Delete(c.Request.Context(), callerFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
