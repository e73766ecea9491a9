package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"tandoor-system/internal/database/models"
	"tandoor-system/internal/server/middleware"
	sysutils "tandoor-system/internal/utils"
)

type UserHandler struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewUserHandler(db *gorm.DB, jwtSecret []byte, tokenTTL time.Duration) *UserHandler {
	return &UserHandler{
		db:        db,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data}
}

func errorResponse(message string) APIResponse {
	return APIResponse{Success: false, Message: message}
}

type LoginRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	ExpectedRole string `json:"expected_role" binding:"omitempty,oneof=biller kitchen_manager"`
}

type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	Role     string  `json:"role" binding:"required,oneof=biller kitchen_manager"`
	FullName *string `json:"full_name,omitempty"`
}

type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Profile   models.Profile `json:"profile"`
}

// Login verifies credentials and issues a session token. The dashboards pass
// the role they expect; a mismatch is rejected so a biller login cannot open
// the kitchen board.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var profile models.Profile
	err := h.db.Where("email = ?", strings.ToLower(req.Email)).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Authentication service error"))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
		return
	}

	if req.ExpectedRole != "" && profile.Role != req.ExpectedRole {
		c.JSON(http.StatusForbidden, errorResponse("This account is not authorized as "+req.ExpectedRole))
		return
	}

	token, exp, err := sysutils.GenerateToken(h.jwtSecret, profile.ID, profile.Email, profile.Role, h.tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Successfully logged in", LoginResponse{
		Token:     token,
		ExpiresAt: exp,
		Profile:   profile,
	}))
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to hash password"))
		return
	}

	profile := models.Profile{
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		Role:         req.Role,
		FullName:     req.FullName,
	}
	if err := h.db.Create(&profile).Error; err != nil {
		c.JSON(http.StatusConflict, errorResponse("Failed to create user"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("User registered", profile))
}

// Me returns the profile behind the presented session token.
func (h *UserHandler) Me(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, errorResponse("Not authenticated"))
		return
	}

	var profile models.Profile
	if err := h.db.Where("id = ?", claims.UserId).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("User not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Profile fetched", profile))
}
