package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Ingest replaces the input tables from the configured CSV snapshots.
func (s *Server) Ingest(c *gin.Context) {
	stats, err := s.ingestSvc.LoadAll(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loaded": stats})
}
