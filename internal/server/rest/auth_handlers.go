package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iudp/ledger/internal/server/clock"
	"github.com/iudp/ledger/internal/server/services"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=master pastor leader"`
	ChurchID string `json:"churchId"`
	Church   string `json:"church"`
	Region   string `json:"region"`
	State    string `json:"state"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	sess, err := h.svc.Users.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		ChurchID: req.ChurchID,
		Church:   req.Church,
		Region:   req.Region,
		State:    req.State,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	sess, err := h.svc.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

const displayLayout = "02/01/2006 15:04:05"

func (h *handler) currentTime(c *gin.Context) {
	now := h.clock.Now().In(clock.Zone)
	c.JSON(http.StatusOK, gin.H{
		"time":      now.Format("2006-01-02T15:04:05.000Z07:00"),
		"formatted": now.Format(displayLayout),
		"timezone":  clock.Zone.String(),
	})
}
