package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "communication-layer",
		"status":  "running",
		"endpoints": []string{
			"/health",
			"/services",
			"/services/:name",
			"/services/:name/history",
			"/breakers",
			"/breakers/:name",
			"/metrics",
		},
	})
}

func (s *Server) health(c *gin.Context) {
	summary := s.locator.Summarize()
	status := "healthy"
	if summary.Healthy < summary.Total {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":            status,
		"uptime_seconds":    time.Since(s.started).Seconds(),
		"discovery_running": summary.Running,
		"services_total":    summary.Total,
		"services_healthy":  summary.Healthy,
	})
}

func (s *Server) listServices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"services": s.locator.AllHealth(),
		"summary":  s.locator.Summarize(),
	})
}

func (s *Server) getService(c *gin.Context) {
	name := c.Param("name")
	ep := s.locator.Health(name)
	if ep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown service: " + name})
		return
	}
	c.JSON(http.StatusOK, ep)
}

func (s *Server) getServiceHistory(c *gin.Context) {
	name := c.Param("name")
	if s.locator.Health(name) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown service: " + name})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"service": name,
		"history": s.locator.History(name),
	})
}

func (s *Server) listBreakers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"breakers": s.breakers.AllStatus()})
}

func (s *Server) getBreaker(c *gin.Context) {
	name := c.Param("name")
	b := s.breakers.Get(name)
	if b == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown breaker: " + name})
		return
	}
	c.JSON(http.StatusOK, b.Status())
}

func (s *Server) resetBreaker(c *gin.Context) {
	name := c.Param("name")
	if !s.breakers.Reset(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown breaker: " + name})
		return
	}
	s.logger.Info("Breaker reset via API", zap.String("service", name))
	c.JSON(http.StatusOK, gin.H{"service": name, "reset": true})
}

func (s *Server) resetAllBreakers(c *gin.Context) {
	results := s.breakers.ResetAll()
	s.logger.Info("All breakers reset via API", zap.Int("count", len(results)))
	c.JSON(http.StatusOK, gin.H{"reset": results})
}
