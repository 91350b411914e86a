package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"autoship/internal/domain"
	"autoship/internal/domain/models"
	"autoship/internal/repositories"
)

// AuthUser is the user payload returned on login.
type AuthUser struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) signToken(subjectID int64, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": subjectID,
		"role":    role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(a.Env.JWTSecret))
}

// POST /api/auth/login
func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	user, err := repositories.UserRepository{}.GetByLogin(c.Request.Context(), a.DB, req.Email)
	if err != nil {
		if domain.IsNotFound(err) {
			RespondError(c, http.StatusUnauthorized, "wrong email/username or password", nil)
			return
		}
		RespondDomainError(c, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		RespondError(c, http.StatusUnauthorized, "wrong email/username or password", nil)
		return
	}

	tokenString, err := a.signToken(user.ID, user.Role)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to sign token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": tokenString,
		"user": AuthUser{
			ID: user.ID, Name: user.Name, Username: user.Username,
			Email: user.Email, Phone: user.Phone, Role: user.Role, Status: user.Status,
		},
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// POST /api/auth/register
func (a *API) Register(c *gin.Context) {
	var req registerRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.Email == "" || req.Username == "" || len(req.Password) < 8 {
		RespondError(c, http.StatusBadRequest, "email, username and a password of 8+ characters are required", nil)
		return
	}

	repo := repositories.UserRepository{}
	exists, err := repo.ExistsByLogin(c.Request.Context(), a.DB, req.Email, req.Username)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to check user", err)
		return
	}
	if exists {
		RespondError(c, http.StatusBadRequest, "email or username already registered", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to hash password", err)
		return
	}

	id, err := repo.Create(c.Request.Context(), a.DB, models.User{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         "staff",
		Status:       "active",
	})
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to save user", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "registered",
		"user": AuthUser{
			ID: id, Name: req.Name, Username: req.Username,
			Email: req.Email, Phone: req.Phone, Role: "staff", Status: "active",
		},
	})
}

// POST /api/auth/portal/login handles customer portal login. A temporary
// password keeps working but the response flags that it must be changed.
func (a *API) PortalLogin(c *gin.Context) {
	var req loginRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	customer, err := repositories.CustomerRepository{}.GetByEmail(c.Request.Context(), a.DB, req.Email)
	if err != nil {
		if domain.IsNotFound(err) {
			RespondError(c, http.StatusUnauthorized, "wrong email or password", nil)
			return
		}
		RespondDomainError(c, err)
		return
	}
	if customer.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.Password)) != nil {
		RespondError(c, http.StatusUnauthorized, "wrong email or password", nil)
		return
	}

	tokenString, err := a.signToken(customer.ID, "customer")
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to sign token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":                tokenString,
		"must_change_password": customer.PasswordIsTemporary,
		"customer_id":          customer.ID,
		"name":                 customer.FullName(),
	})
}

type changePasswordRequest struct {
	Email       string `json:"email"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// POST /api/auth/portal/change-password
func (a *API) PortalChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if len(req.NewPassword) < 8 {
		RespondError(c, http.StatusBadRequest, "new password must be at least 8 characters", nil)
		return
	}

	repo := repositories.CustomerRepository{}
	customer, err := repo.GetByEmail(c.Request.Context(), a.DB, req.Email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if customer.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(req.OldPassword)) != nil {
		RespondError(c, http.StatusUnauthorized, "wrong email or password", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to hash password", err)
		return
	}
	if err := repo.SetPassword(c.Request.Context(), a.DB, customer.ID, string(hash), false); err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to update password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
