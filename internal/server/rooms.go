package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	roomdomain "github.com/dormhub/dormhub/internal/room/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) ListRooms(c *gin.Context) {
	rooms, err := s.roomRepo.List(c.Request.Context(), s.db)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rooms})
}

func (s *Server) GetRoom(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	room, err := s.roomRepo.FindByID(c.Request.Context(), s.db, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if room == nil {
		AbortWithError(c, roomdomain.ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": room})
}
