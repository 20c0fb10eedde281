package controllers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/caltrack/services"
	"github.com/cppla/caltrack/utils"
)

// StatsController provides tracker statistics and liveness.
type StatsController struct {
	svc *services.CalorieService
	now func() time.Time
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(svc *services.CalorieService) *StatsController {
	return &StatsController{svc: svc, now: time.Now}
}

// GetStats returns aggregate counters over entries and food items.
func (s *StatsController) GetStats(ctx *gin.Context) {
	stats, err := s.svc.Stats(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, stats)
}

// Healthcheck reports liveness with the server clock.
func (s *StatsController) Healthcheck(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}
