package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autoship/internal/domain/models"
	"autoship/internal/repositories"
)

type routeRequest struct {
	OriginCountry      string `json:"origin_country"`
	OriginCity         string `json:"origin_city"`
	DestinationCountry string `json:"destination_country"`
	DestinationCity    string `json:"destination_city"`
	BasePrice          int64  `json:"base_price"`
	TransitDays        int    `json:"transit_days"`
	Active             *bool  `json:"active"`
}

// POST /api/routes
func (a *API) CreateRoute(c *gin.Context) {
	var req routeRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.OriginCountry == "" || req.DestinationCountry == "" {
		RespondError(c, http.StatusBadRequest, "origin_country and destination_country are required", nil)
		return
	}
	if req.BasePrice < 0 {
		RespondError(c, http.StatusBadRequest, "base_price must not be negative", nil)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	repo := repositories.RouteRepository{}
	id, err := repo.Create(c.Request.Context(), a.DB, models.Route{
		OriginCountry:      req.OriginCountry,
		OriginCity:         req.OriginCity,
		DestinationCountry: req.DestinationCountry,
		DestinationCity:    req.DestinationCity,
		BasePrice:          req.BasePrice,
		TransitDays:        req.TransitDays,
		Active:             active,
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to save route", err)
		return
	}

	route, err := repo.GetByID(c.Request.Context(), a.DB, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"route": route})
}

// GET /api/routes
func (a *API) ListRoutes(c *gin.Context) {
	routes, err := repositories.RouteRepository{}.List(c.Request.Context(), a.DB, c.Query("active") == "true")
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to list routes", err)
		return
	}
	if routes == nil {
		routes = []models.Route{}
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

// GET /api/routes/:id
func (a *API) GetRoute(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	route, err := repositories.RouteRepository{}.GetByID(c.Request.Context(), a.DB, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": route})
}

// PUT /api/routes/:id
func (a *API) UpdateRoute(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req routeRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	repo := repositories.RouteRepository{}
	route, err := repo.GetByID(c.Request.Context(), a.DB, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	if req.OriginCountry != "" {
		route.OriginCountry = req.OriginCountry
	}
	if req.OriginCity != "" {
		route.OriginCity = req.OriginCity
	}
	if req.DestinationCountry != "" {
		route.DestinationCountry = req.DestinationCountry
	}
	if req.DestinationCity != "" {
		route.DestinationCity = req.DestinationCity
	}
	if req.BasePrice > 0 {
		route.BasePrice = req.BasePrice
	}
	if req.TransitDays > 0 {
		route.TransitDays = req.TransitDays
	}
	if req.Active != nil {
		route.Active = *req.Active
	}

	if err := repo.Update(c.Request.Context(), a.DB, route); err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to update route", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": route})
}
