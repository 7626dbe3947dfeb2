package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kalhuss/property-manage/internal/apperr"
	"github.com/kalhuss/property-manage/internal/auth"
	"github.com/kalhuss/property-manage/internal/models"
	"github.com/kalhuss/property-manage/internal/repository"
)

var (
	emailPattern    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

type AuthService struct {
	repo *repository.Repository
}

func NewAuthService(repo *repository.Repository) *AuthService {
	return &AuthService{repo: repo}
}

// Register validates the sign-up request, hashes the password and creates
// the user.
func (s *AuthService) Register(ctx context.Context, req *models.SignUpRequest) (*models.User, error) {
	if err := validateCredentials(req.Username, req.Email, req.Password); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, apperr.New(apperr.Conflict, "User already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Persistence, "Error reading user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Surname:      req.Surname,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error adding entry to database", err)
	}

	return user, nil
}

// Login verifies the credentials and returns a signed token with the user.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (string, *models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperr.New(apperr.Authorization, "Invalid email or password")
		}
		return "", nil, apperr.Wrap(apperr.Persistence, "Error reading user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", nil, apperr.New(apperr.Authorization, "Invalid email or password")
	}

	token, err := auth.GenerateToken(user.ID.String(), user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}

// GetUser retrieves a user by id.
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		}
		return nil, apperr.Wrap(apperr.Persistence, "Error reading user", err)
	}
	return user, nil
}

// UpdateProfile applies profile field changes for the current user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Surname != "" {
		user.Surname = req.Surname
	}
	if req.Username != "" {
		if len(req.Username) < 3 || len(req.Username) > 20 || !usernamePattern.MatchString(req.Username) {
			return nil, apperr.New(apperr.Validation, "Username must be 3-20 letters and numbers")
		}
		user.Username = req.Username
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.Persistence, "Error updating user", err)
	}

	return user, nil
}

// validateCredentials mirrors the registration rules enforced on the client:
// 3-20 alphanumeric username, well-formed email, 6-20 char password mixing
// upper, lower, digit and special characters.
func validateCredentials(username, email, password string) error {
	if len(username) < 3 || len(username) > 20 || !usernamePattern.MatchString(username) {
		return apperr.New(apperr.Validation, "Username must be 3-20 letters and numbers")
	}

	if !emailPattern.MatchString(email) {
		return apperr.New(apperr.Validation, "Email is invalid")
	}

	if len(password) < 6 || len(password) > 20 || strings.Contains(password, " ") {
		return apperr.New(apperr.Validation, "Password must be 6-20 characters with no spaces")
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune("!@#$%^&*", r):
			hasSpecial = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit || !hasSpecial {
		return apperr.New(apperr.Validation,
			"Password must contain at least one lowercase letter, one uppercase letter, one number, and one special character")
	}

	return nil
}
