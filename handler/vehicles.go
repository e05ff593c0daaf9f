package handler

import (
	"net/http"

	"github.com/AnTengye/fleetdocs/store"
	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	registry store.Registry
}

func NewVehicleHandler(registry store.Registry) *VehicleHandler {
	return &VehicleHandler{registry: registry}
}

// List returns registered vehicles, optionally filtered by ?q= matched
// against plate number, chassis number, or brand. This feeds the manual
// picker in the resolution flow.
func (h *VehicleHandler) List(c *gin.Context) {
	vehicles, err := h.registry.ListVehicles(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list vehicles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

// ListWithContracts returns all vehicles with their active contracts, for
// the results table.
func (h *VehicleHandler) ListWithContracts(c *gin.Context) {
	vehicles, err := h.registry.ListVehiclesWithContracts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list vehicles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}
