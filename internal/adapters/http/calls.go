package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medilink/signaling/internal/call"
	"github.com/medilink/signaling/internal/domain"
)

type callHandlers struct {
	calls *call.Store
}

type initiateRequest struct {
	Initiator   string `json:"initiator"`
	Counterpart string `json:"counterpart"`
	InitiatedBy string `json:"initiatedBy"`
}

func (h *callHandlers) initiate(c *gin.Context) {
	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	by := domain.InitiatorRole(req.InitiatedBy)
	if by != domain.InitiatedByDoctor && by != domain.InitiatedByPatient {
		c.JSON(http.StatusBadRequest, gin.H{"error": "initiatedBy must be doctor or patient"})
		return
	}

	sess, err := h.calls.Initiate(req.Initiator, req.Counterpart, by)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, call.ErrCallPending) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *callHandlers) ring(c *gin.Context) {
	h.apply(c, h.calls.MarkRinging)
}

func (h *callHandlers) accept(c *gin.Context) {
	h.apply(c, h.calls.Accept)
}

func (h *callHandlers) decline(c *gin.Context) {
	h.apply(c, h.calls.Decline)
}

func (h *callHandlers) end(c *gin.Context) {
	h.apply(c, h.calls.End)
}

func (h *callHandlers) get(c *gin.Context) {
	h.apply(c, h.calls.Get)
}

func (h *callHandlers) apply(c *gin.Context, op func(string) (domain.CallSession, error)) {
	sess, err := op(c.Param("id"))
	if err != nil {
		if errors.Is(err, call.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *callHandlers) sessionsFor(c *gin.Context) {
	name := c.Query("participant")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing participant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": h.calls.SessionsFor(name)})
}

func (h *callHandlers) pendingFor(c *gin.Context) {
	name := c.Query("participant")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing participant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": h.calls.PendingFor(name)})
}
