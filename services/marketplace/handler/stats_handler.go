package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"auction-marketplace/services/marketplace/helpers"
	"auction-marketplace/utils"
)

type StatsHandler struct {
	service StatsServiceInterface
}

func NewStatsHandler(service StatsServiceInterface) *StatsHandler {
	return &StatsHandler{service: service}
}

// GetStatsHandler handles GET /dashboard/stats
func (h *StatsHandler) GetStatsHandler(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, "GetStatsHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, stats, "stats retrieved successfully")
}
