package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateRun executes a pipeline run synchronously and returns the
// closed-out run row.
func (s *Server) CreateRun(c *gin.Context) {
	run, err := s.profileSvc.Run(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, run)
}

// ListRuns returns the most recent runs, newest first.
func (s *Server) ListRuns(c *gin.Context) {
	runs, err := s.profileSvc.ListRuns(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) GetRun(c *gin.Context) {
	run, err := s.profileSvc.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, run)
}
