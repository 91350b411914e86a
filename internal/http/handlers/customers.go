package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"autoship/internal/domain/models"
	"autoship/internal/repositories"
)

type customerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Status    string `json:"status"`
}

// POST /api/customers
func (a *API) CreateCustomer(c *gin.Context) {
	var req customerRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.Email == "" || req.FirstName == "" {
		RespondError(c, http.StatusBadRequest, "first_name and email are required", nil)
		return
	}
	if req.Status == "" {
		req.Status = "active"
	}

	repo := repositories.CustomerRepository{}
	if _, err := repo.GetByEmail(c.Request.Context(), a.DB, req.Email); err == nil {
		RespondError(c, http.StatusConflict, "email already registered", nil)
		return
	}

	id, err := repo.Create(c.Request.Context(), a.DB, models.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
		Status:    req.Status,
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to save customer", err)
		return
	}

	customer, err := repo.GetByID(c.Request.Context(), a.DB, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": customer})
}

// GET /api/customers
func (a *API) ListCustomers(c *gin.Context) {
	customers, err := repositories.CustomerRepository{}.List(c.Request.Context(), a.DB, queryInt(c, "limit", 100))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to list customers", err)
		return
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

// GET /api/customers/:id
func (a *API) GetCustomer(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	customer, err := repositories.CustomerRepository{}.GetByID(c.Request.Context(), a.DB, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

// PUT /api/customers/:id
func (a *API) UpdateCustomer(c *gin.Context) {
	id, ok := PathID(c, "id")
	if !ok {
		return
	}
	var req customerRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	repo := repositories.CustomerRepository{}
	customer, err := repo.GetByID(c.Request.Context(), a.DB, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	if req.FirstName != "" {
		customer.FirstName = req.FirstName
	}
	if req.LastName != "" {
		customer.LastName = req.LastName
	}
	if req.Email != "" {
		customer.Email = req.Email
	}
	if req.Phone != "" {
		customer.Phone = req.Phone
	}
	if req.Address != "" {
		customer.Address = req.Address
	}
	if req.City != "" {
		customer.City = req.City
	}
	if req.Country != "" {
		customer.Country = req.Country
	}
	if req.Status != "" {
		customer.Status = req.Status
	}

	if err := repo.Update(c.Request.Context(), a.DB, customer); err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to update customer", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}
