package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medilink/signaling/internal/core"
	"github.com/medilink/signaling/internal/domain"
)

// roomHandlers manages explicit room membership so room-addressed
// messages fan out to members only.
type roomHandlers struct {
	rooms *core.RoomSet
}

func (r *roomHandlers) members(c *gin.Context) {
	room := domain.RoomID(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"members": r.rooms.Members(room)})
}

func (r *roomHandlers) join(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing userId"})
		return
	}
	r.rooms.Join(domain.RoomID(c.Param("id")), domain.UserID(req.UserID))
	c.Status(http.StatusNoContent)
}

func (r *roomHandlers) leave(c *gin.Context) {
	r.rooms.Leave(domain.RoomID(c.Param("id")), domain.UserID(c.Param("userId")))
	c.Status(http.StatusNoContent)
}
