package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iudp/ledger/internal/server/services"
)

type uploadURLRequest struct {
	EntryID     string `json:"entryId" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Size        int64  `json:"size" binding:"required,min=1"`
}

func (h *handler) receiptUploadURL(c *gin.Context) {
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	up, err := h.svc.Receipts.PresignUpload(c.Request.Context(), callerFrom(c), services.UploadInput{
		EntryID:     req.EntryID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        req.Size,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, up)
}

func (h *handler) receiptDownloadURL(c *gin.Context) {
	url, err := h.svc.Receipts.PresignDownload(c.Request.Context(), callerFrom(c), c.Param("entryId"), c.Param("receiptId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
