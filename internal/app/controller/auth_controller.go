package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuwa/kasuwa-backend/internal/app/service"
	apperrors "github.com/kasuwa/kasuwa-backend/internal/errors"
	"github.com/kasuwa/kasuwa-backend/internal/middleware"
	"github.com/kasuwa/kasuwa-backend/pkg/redis"
)

type AuthController struct {
	authService     service.AuthService
	cartService     service.CartService
	wishlistService service.WishlistService
	refreshExpiry   time.Duration
}

func NewAuthController(
	authService service.AuthService,
	cartService service.CartService,
	wishlistService service.WishlistService,
	refreshExpiry time.Duration,
) *AuthController {
	return &AuthController{
		authService:     authService,
		cartService:     cartService,
		wishlistService: wishlistService,
		refreshExpiry:   refreshExpiry,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	// Identifier is an email address or a username
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	ProfileImage string `json:"profile_image"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}

	user, tokens, err := ctrl.authService.Register(req.Username, req.Email, req.Password, req.FullName, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyExists):
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "This email is already in use")
		case errors.Is(err, service.ErrUsernameAlreadyExists):
			apperrors.Conflict(c, apperrors.AuthUsernameExists, "This username is already taken")
		default:
			log.Error("Registration failed", err, map[string]interface{}{
				"email": req.Email,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "user")
		}
		return
	}

	ctrl.linkGuestSession(c, user.ID)

	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Login handles user login with an email or username
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid identifier or password")
			return
		}
		log.Error("Login failed", err, map[string]interface{}{
			"identifier": req.Identifier,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "user")
		return
	}

	ctrl.linkGuestSession(c, user.ID)

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// linkGuestSession folds the request's guest session cart and wishlist into
// the signed-in user's rows. Failures are logged but never block sign-in.
func (ctrl *AuthController) linkGuestSession(c *gin.Context, userID uint) {
	log := middleware.GetLoggerFromContext(c)

	sessionID, ok := middleware.GetSessionID(c)
	if !ok || sessionID == "" {
		return
	}

	if result, err := ctrl.cartService.LinkSessionToUser(userID, sessionID); err != nil {
		log.Warn("Failed to link session cart on sign-in", map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionID,
			"error":      err.Error(),
		})
	} else {
		log.Info("Session cart linked on sign-in", map[string]interface{}{
			"user_id": userID,
			"result":  result,
		})
	}

	if result, err := ctrl.wishlistService.LinkSessionToUser(userID, sessionID); err != nil {
		log.Warn("Failed to link session wishlist on sign-in", map[string]interface{}{
			"user_id":    userID,
			"session_id": sessionID,
			"error":      err.Error(),
		})
	} else {
		log.Info("Session wishlist linked on sign-in", map[string]interface{}{
			"user_id": userID,
			"result":  result,
		})
	}
}

// GetMe returns current user information
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to fetch current user", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMe updates current user's profile
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}

	user, err := ctrl.authService.UpdateProfile(userID, req.FullName, req.Phone, req.City, req.ProfileImage)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to update profile", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout revokes the presented refresh token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, err.Error())
		return
	}

	if err := redis.BlacklistToken(c.Request.Context(), req.RefreshToken, ctrl.refreshExpiry); err != nil {
		log.Error("Failed to revoke refresh token", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "session")
		return
	}

	if userID, ok := middleware.GetUserID(c); ok {
		log.Info("User logged out", map[string]interface{}{
			"user_id": userID,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}
