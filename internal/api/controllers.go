package api

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

type listTradesQuery struct {
	Limit int `form:"limit"`
}

func (q *listTradesQuery) normalize() {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Limit > 500 {
		q.Limit = 500
	}
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"code":  code,
		"error": msg,
	})
}

func (s *Server) getStatus(c *gin.Context) {
	resp := gin.H{
		"status":   string(s.Engine.Status()),
		"markets":  s.Meta.Markets,
		"interval": s.Meta.Interval.String(),
		"version":  s.Meta.Version,
	}
	if s.Metrics != nil {
		resp["metrics"] = s.Metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) startTrading(c *gin.Context) {
	s.Engine.Start()
	c.JSON(http.StatusOK, gin.H{"status": string(s.Engine.Status())})
}

func (s *Server) stopTrading(c *gin.Context) {
	s.Engine.Stop()
	c.JSON(http.StatusOK, gin.H{"status": string(s.Engine.Status())})
}

func (s *Server) getPositions(c *gin.Context) {
	positions := s.Engine.Positions()
	c.JSON(http.StatusOK, gin.H{
		"count":     len(positions),
		"positions": positions,
	})
}

func (s *Server) getPrices(c *gin.Context) {
	market := c.Param("market")
	if !slices.Contains(s.Meta.Markets, market) {
		respondError(c, http.StatusNotFound, "UNKNOWN_MARKET", "market is not configured")
		return
	}
	prices := s.Engine.PriceHistory(market)
	c.JSON(http.StatusOK, gin.H{
		"market": market,
		"count":  len(prices),
		"prices": prices,
	})
}

func (s *Server) getTrades(c *gin.Context) {
	// With the journal disabled the dashboard just sees no history.
	if s.Journal == nil {
		c.JSON(http.StatusOK, gin.H{"count": 0, "trades": []struct{}{}})
		return
	}

	var q listTradesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "BAD_QUERY", err.Error())
		return
	}
	q.normalize()

	trades, err := s.Journal.Recent(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "JOURNAL_READ", "failed to read trade history")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(trades),
		"trades": trades,
	})
}
