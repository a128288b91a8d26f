package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "spendsense/internal/errors"
	"spendsense/internal/logger"
	"spendsense/internal/middleware"
	"spendsense/internal/models"
	"spendsense/internal/services"
)

const forgotPasswordMessage = "If an account with that email exists, a password reset link has been sent"

// AuthOptions configures the password reset flow.
type AuthOptions struct {
	// ClientURL is the frontend origin used to build reset links.
	ClientURL string
	// ExposeResetToken returns the reset token in the response when email
	// delivery is disabled. Only for development.
	ExposeResetToken bool
}

// AuthHandler handles authentication and account requests
type AuthHandler struct {
	userService  services.UserServicer
	emailService services.EmailSender
	auditService services.AuditServicer
	opts         AuthOptions
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, emailService services.EmailSender, auditService services.AuditServicer, opts AuthOptions) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		emailService: emailService,
		auditService: auditService,
		opts:         opts,
	}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Name             string           `json:"name" binding:"required,min=1,max=50"`
	Email            string           `json:"email" binding:"required,email,max=255"`
	Password         string           `json:"password" binding:"required,min=6,max=128"`
	MonthlyAllowance *decimal.Decimal `json:"monthly_allowance" binding:"omitempty,gte=0" swaggertype:"number"`
	Currency         string           `json:"currency" binding:"omitempty,iso4217"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the token refresh payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ForgotPasswordRequest represents the forgot-password payload
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest represents the reset-password payload
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=50"`
	Email *string `json:"email" binding:"omitempty,email,max=255"`
}

// ChangePasswordRequest represents the change-password payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=128"`
}

// UserResponse represents the user data in the response
type UserResponse struct {
	ID                    string                 `json:"id"`
	Name                  string                 `json:"name"`
	Email                 string                 `json:"email"`
	Currency              string                 `json:"currency"`
	MonthlyAllowance      decimal.Decimal        `json:"monthly_allowance" swaggertype:"number"`
	CategoryBudgets       models.CategoryBudgets `json:"category_budgets" swaggertype:"object,number"`
	SavingStreak          int                    `json:"saving_streak"`
	LongestStreak         int                    `json:"longest_streak"`
	BudgetDisciplineScore int                    `json:"budget_discipline_score"`
	LastActiveDate        *time.Time             `json:"last_active_date,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
}

// AuthResponse represents the authentication response with tokens
type AuthResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

func newUserResponse(u *models.User) UserResponse {
	budgets := u.CategoryBudgets
	if budgets == nil {
		budgets = models.CategoryBudgets{}
	}
	return UserResponse{
		ID:                    u.ID,
		Name:                  u.Name,
		Email:                 u.Email,
		Currency:              u.Currency,
		MonthlyAllowance:      u.MonthlyAllowance,
		CategoryBudgets:       budgets,
		SavingStreak:          u.SavingStreak,
		LongestStreak:         u.LongestStreak,
		BudgetDisciplineScore: u.BudgetDisciplineScore,
		LastActiveDate:        u.LastActiveDate,
		CreatedAt:             u.CreatedAt,
	}
}

// issueTokens creates an access/refresh pair and stores the refresh token
// hash, which invalidates any earlier refresh token.
func (h *AuthHandler) issueTokens(user *models.User) (*AuthResponse, error) {
	access, err := middleware.GenerateAccessToken(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	refresh, err := middleware.GenerateRefreshToken(user)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := h.userService.StoreRefreshTokenHash(user.ID, middleware.HashToken(refresh)); err != nil {
		return nil, err
	}
	return &AuthResponse{Token: access, RefreshToken: refresh, User: newUserResponse(user)}, nil
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user and return an access/refresh token pair
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} AuthResponse "User registered and tokens generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	allowance := decimal.Zero
	if req.MonthlyAllowance != nil {
		allowance = *req.MonthlyAllowance
	}

	user, err := h.userService.CreateUser(req.Name, req.Email, req.Password, req.Currency, allowance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user. Five consecutive failures lock the account for 15 minutes.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and tokens generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     423 {object} ErrorResponse "Account locked"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh rotates the token pair
// @Summary     Refresh tokens
// @Description Exchange a valid refresh token for a new access/refresh pair. The old refresh token stops working.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} AuthResponse "New tokens"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid refresh token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	invalid := apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid refresh token")
	claims, err := middleware.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondWithError(c, invalid)
		return
	}

	stored, err := h.userService.GetRefreshTokenHash(claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			respondWithError(c, invalid)
			return
		}
		respondWithError(c, err)
		return
	}
	if stored == "" || stored != middleware.HashToken(req.RefreshToken) {
		respondWithError(c, invalid)
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ForgotPassword starts the password reset flow
// @Summary     Request a password reset
// @Description Email a reset link. Always succeeds for unknown emails. Without SMTP in development the token and link are returned instead.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ForgotPasswordRequest true "Account email"
// @Success     200 {object} map[string]interface{} "Reset requested"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     502 {object} ErrorResponse "Email delivery failed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, token, err := h.userService.CreatePasswordReset(req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
			return
		}
		respondWithError(c, err)
		return
	}

	resetURL := strings.TrimRight(h.opts.ClientURL, "/") + "/reset-password?token=" + token

	if h.emailService != nil && h.emailService.Enabled() {
		if err := h.emailService.SendPasswordReset(user.Email, user.Name, resetURL); err != nil {
			if clearErr := h.userService.ClearPasswordReset(user.ID); clearErr != nil {
				logger.Named("auth").Errorw("failed to clear reset token after delivery failure", "user_id", user.ID, "error", clearErr)
			}
			respondWithError(c, apperrors.Wrap(apperrors.ErrEmailDelivery, err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
		return
	}

	if h.opts.ExposeResetToken {
		c.JSON(http.StatusOK, gin.H{
			"message":     "Email delivery is disabled; use the reset link below",
			"reset_token": token,
			"reset_url":   resetURL,
		})
		return
	}

	logger.Named("auth").Warnw("password reset requested but email delivery is disabled", "user_id", user.ID)
	c.JSON(http.StatusOK, gin.H{"message": forgotPasswordMessage})
}

// VerifyResetToken checks a reset token
// @Summary     Verify a reset token
// @Description Report whether a password reset token is valid and unexpired
// @Tags        auth
// @Produce     json
// @Param       token path string true "Reset token"
// @Success     200 {object} map[string]interface{} "Token is valid"
// @Failure     400 {object} ErrorResponse "Invalid or expired token"
// @Router      /auth/reset-password/{token} [get]
func (h *AuthHandler) VerifyResetToken(c *gin.Context) {
	if _, err := h.userService.ValidateResetToken(c.Param("token")); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// ResetPassword completes the password reset flow
// @Summary     Reset password
// @Description Set a new password with a reset token. The token is single use.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       token   path string               true "Reset token"
// @Param       request body ResetPasswordRequest true "New password"
// @Success     200 {object} AuthResponse "Password reset and tokens generated"
// @Failure     400 {object} ErrorResponse "Invalid input or token"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/reset-password/{token} [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.ResetPassword(c.Param("token"), req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, services.AuditResetPassword, services.ResourceUser, user.ID, c.ClientIP(), nil)

	resp, err := h.issueTokens(user)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProfile returns the user's profile
// @Summary     Get current user
// @Description Get the authenticated user's profile, budget settings and streak state
// @Tags        auth
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]UserResponse "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /auth/me [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// UpdateProfile changes name and/or email
// @Summary     Update profile
// @Description Update the authenticated user's name and/or email
// @Tags        auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Fields to change"
// @Success     200 {object} map[string]UserResponse "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Router      /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.UpdateProfile(userID, req.Name, req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Email != nil {
		changes["email"] = user.Email
	}
	h.auditService.Log(userID, services.AuditUpdateProfile, services.ResourceUser, userID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

// ChangePassword replaces the password
// @Summary     Change password
// @Description Change the password after confirming the current one
// @Tags        auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ChangePasswordRequest true "Current and new password"
// @Success     200 {object} map[string]string "Password updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Wrong current password"
// @Router      /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.userService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditChangePassword, services.ResourceUser, userID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
