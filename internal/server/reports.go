package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) LatestResults(c *gin.Context) {
	report, err := s.reportSvc.LatestResults(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) LatestHeld(c *gin.Context) {
	report, err := s.reportSvc.LatestHeld(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) LatestRAG(c *gin.Context) {
	report, err := s.reportSvc.LatestRAG(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) Summary(c *gin.Context) {
	report, err := s.reportSvc.Summary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) RiskSummary(c *gin.Context) {
	report, err := s.reportSvc.RiskSummary(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) RiskScores(c *gin.Context) {
	report, err := s.reportSvc.RiskScores(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) CustomerSummaries(c *gin.Context) {
	rows, err := s.reportSvc.CustomerSummaries(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": rows})
}
