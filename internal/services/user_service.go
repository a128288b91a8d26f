package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "spendsense/internal/errors"
	"spendsense/internal/models"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
	minPasswordLen  = 6
	defaultCurrency = "USD"
)

// userService handles user-related business logic.
type userService struct {
	db       *gorm.DB
	now      Clock
	resetTTL time.Duration
}

// NewUserService creates a new UserServicer. resetTTL is how long a password
// reset token stays valid.
func NewUserService(db *gorm.DB, clock Clock, resetTTL time.Duration) UserServicer {
	if clock == nil {
		clock = UTCClock
	}
	if resetTTL <= 0 {
		resetTTL = 10 * time.Minute
	}
	return &userService{db: db, now: clock, resetTTL: resetTTL}
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 6 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return string(hashed), nil
}

// hashResetToken is the stored form of a reset token.
func hashResetToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func (s *userService) emailTaken(email, exceptID string) (bool, error) {
	var count int64
	q := s.db.Model(&models.User{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// CreateUser registers a new user
func (s *userService) CreateUser(name, email, password, currency string, monthlyAllowance decimal.Decimal) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name, email and password are required")
	}
	if monthlyAllowance.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly allowance must not be negative")
	}
	if currency == "" {
		currency = defaultCurrency
	}

	taken, err := s.emailTaken(email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:             name,
		Email:            email,
		Password:         hashed,
		Currency:         strings.ToUpper(currency),
		MonthlyAllowance: monthlyAllowance,
		CategoryBudgets:  models.CategoryBudgets{},
		Gamification:     models.Gamification{BudgetDisciplineScore: 100},
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	return findUser(s.db, id)
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// AttemptLogin checks credentials and applies the lockout policy: after
// maxFailedLogins consecutive failures the account is locked for
// lockoutDuration. Unknown emails and wrong passwords are indistinguishable.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, apperrors.ErrAccountLocked
	}

	if !s.VerifyPassword(user, password) {
		attempts := user.FailedLoginAttempts + 1
		updates := map[string]interface{}{"failed_login_attempts": attempts}
		if attempts >= maxFailedLogins {
			lockedUntil := now.Add(lockoutDuration).UTC()
			updates["locked_until"] = lockedUntil
			updates["failed_login_attempts"] = 0
		}
		if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	loginAt := now.UTC()
	err = s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         loginAt,
	}).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &loginAt
	return user, nil
}

// StoreRefreshTokenHash saves the hash of the user's current refresh token.
func (s *userService) StoreRefreshTokenHash(userID string, tokenHash string) error {
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token hash.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := findUser(s.db, userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}

// UpdateProfile changes name and/or email. A new email must not belong to
// another user.
func (s *userService) UpdateProfile(userID string, name, email *string) (*models.User, error) {
	user, err := findUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name != nil {
		n := strings.TrimSpace(*name)
		if n == "" || len(n) > 50 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must be 1-50 characters")
		}
		updates["name"] = n
		user.Name = n
	}
	if email != nil {
		e := strings.ToLower(strings.TrimSpace(*email))
		if e == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email must not be empty")
		}
		if e != user.Email {
			taken, err := s.emailTaken(e, userID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, apperrors.ErrDuplicateEmail
			}
		}
		updates["email"] = e
		user.Email = e
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *userService) ChangePassword(userID, currentPassword, newPassword string) error {
	user, err := findUser(s.db, userID)
	if err != nil {
		return err
	}
	if !s.VerifyPassword(user, currentPassword) {
		return apperrors.ErrWrongPassword
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Update("password", hashed).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CreatePasswordReset issues a new reset token, replacing any earlier one.
// Only the SHA-256 of the token is stored.
func (s *userService) CreatePasswordReset(email string) (*models.User, string, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		return nil, "", err
	}

	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	token := hex.EncodeToString(raw)
	expire := s.now().Add(s.resetTTL).UTC()

	err = s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"reset_password_token":  hashResetToken(token),
		"reset_password_expire": expire,
	}).Error
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, token, nil
}

// ClearPasswordReset discards any pending reset token.
func (s *userService) ClearPasswordReset(userID string) error {
	err := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"reset_password_token":  "",
		"reset_password_expire": nil,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ValidateResetToken returns the user owning an unexpired token.
func (s *userService) ValidateResetToken(token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.ErrInvalidResetToken
	}
	var user models.User
	err := s.db.Where("reset_password_token = ?", hashResetToken(token)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidResetToken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.ResetPasswordExpire == nil || !user.ResetPasswordExpire.After(s.now()) {
		return nil, apperrors.ErrInvalidResetToken
	}
	return &user, nil
}

// ResetPassword sets a new password using a reset token and clears the token.
// A successful reset also lifts any login lockout.
func (s *userService) ResetPassword(token, newPassword string) (*models.User, error) {
	user, err := s.ValidateResetToken(token)
	if err != nil {
		return nil, err
	}
	hashed, err := hashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"password":              hashed,
		"reset_password_token":  "",
		"reset_password_expire": nil,
		"failed_login_attempts": 0,
		"locked_until":          nil,
	}).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.Password = hashed
	user.ResetPasswordToken = ""
	user.ResetPasswordExpire = nil
	return user, nil
}
