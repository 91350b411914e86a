package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autoship/internal/domain/models"
	"autoship/internal/repositories"
)

type vehicleRequest struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	Color string `json:"color"`
	VIN   string `json:"vin"`
	Type  string `json:"type"`
}

// POST /api/vehicles
func (a *API) CreateVehicle(c *gin.Context) {
	var req vehicleRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.Make == "" || req.Model == "" {
		RespondError(c, http.StatusBadRequest, "make and model are required", nil)
		return
	}

	repo := repositories.VehicleRepository{}
	id, err := repo.Create(c.Request.Context(), a.DB, models.Vehicle{
		Make:  req.Make,
		Model: req.Model,
		Year:  req.Year,
		Color: req.Color,
		VIN:   req.VIN,
		Type:  req.Type,
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to save vehicle", err)
		return
	}

	vehicle, err := repo.GetByID(c.Request.Context(), a.DB, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"vehicle": vehicle})
}

// GET /api/vehicles
func (a *API) ListVehicles(c *gin.Context) {
	vehicles, err := repositories.VehicleRepository{}.List(c.Request.Context(), a.DB, queryInt(c, "limit", 100))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to list vehicles", err)
		return
	}
	if vehicles == nil {
		vehicles = []models.Vehicle{}
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

// GET /api/vehicles/:id
func (a *API) GetVehicle(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	vehicle, err := repositories.VehicleRepository{}.GetByID(c.Request.Context(), a.DB, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

// PUT /api/vehicles/:id
func (a *API) UpdateVehicle(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req vehicleRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	repo := repositories.VehicleRepository{}
	vehicle, err := repo.GetByID(c.Request.Context(), a.DB, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	if req.Make != "" {
		vehicle.Make = req.Make
	}
	if req.Model != "" {
		vehicle.Model = req.Model
	}
	if req.Year > 0 {
		vehicle.Year = req.Year
	}
	if req.Color != "" {
		vehicle.Color = req.Color
	}
	if req.VIN != "" {
		vehicle.VIN = req.VIN
	}
	if req.Type != "" {
		vehicle.Type = req.Type
	}

	if err := repo.Update(c.Request.Context(), a.DB, vehicle); err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to update vehicle", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}
