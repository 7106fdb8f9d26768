package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"auction-marketplace/internal/biddingerrors"
	"auction-marketplace/internal/models"
	"auction-marketplace/internal/repository"
	"auction-marketplace/utils"
)

// RegisterInput holds the fields of a new user account
type RegisterInput struct {
	FullName   string `validate:"required,max=120"`
	Email      string `validate:"required,email"`
	Password   string `validate:"required,min=8,max=72"`
	NationalID string `validate:"required"`
	Role       string `validate:"required,max=40"`
	ProfilePic string `validate:"omitempty,url"`
}

// UpdateInput holds the profile fields a user may change; the password is not one of them
type UpdateInput struct {
	FullName   string `validate:"required,max=120"`
	Email      string `validate:"required,email"`
	NationalID string `validate:"required"`
	Role       string `validate:"required,max=40"`
	ProfilePic string `validate:"omitempty,url"`
}

// UserService is the user registry
type UserService struct {
	repo  repository.UserDB
	clock utils.Clock
}

// NewUserService creates a new UserService instance
func NewUserService(repo repository.UserDB, clock utils.Clock) *UserService {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &UserService{repo: repo, clock: clock}
}

// Register validates the input, hashes the password and stores the user
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return models.User{}, fmt.Errorf("service: invalid registration: %w", err)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("service: failed to hash password: %w", err)
	}

	user := models.User{
		UserID:       utils.GenerateID(),
		FullName:     in.FullName,
		Email:        strings.TrimSpace(in.Email),
		NationalID:   in.NationalID,
		Role:         in.Role,
		ProfilePic:   in.ProfilePic,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("service: failed to register user: %w", err)
	}

	utils.Info("user registered", map[string]any{"user_id": user.UserID, "role": user.Role})
	return user, nil
}

// Login checks credentials. Unknown email and wrong password are reported identically.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, biddingerrors.ErrNotFound) {
			return models.User{}, fmt.Errorf("service: %w", biddingerrors.ErrInvalidCredentials)
		}
		return models.User{}, fmt.Errorf("service: failed to load user for login: %w", err)
	}

	if err := utils.ComparePassword(password, user.PasswordHash); err != nil {
		utils.Debug("password mismatch", map[string]any{"user_id": user.UserID})
		return models.User{}, fmt.Errorf("service: %w", biddingerrors.ErrInvalidCredentials)
	}
	return user, nil
}

// ListUsers returns every registered user
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list users: %w", err)
	}
	return users, nil
}

// GetUser returns a single user
func (s *UserService) GetUser(ctx context.Context, userID string) (models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("service: failed to get user %s: %w", userID, err)
	}
	return user, nil
}

// ResolveUser looks up a bidder for the bidding engine
func (s *UserService) ResolveUser(ctx context.Context, userID string) (models.User, error) {
	return s.GetUser(ctx, userID)
}

// UpdateUser replaces a user's profile fields
func (s *UserService) UpdateUser(ctx context.Context, userID string, in UpdateInput) (models.User, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return models.User{}, fmt.Errorf("service: invalid user update: %w", err)
	}

	updated, err := s.repo.UpdateUser(ctx, models.User{
		UserID:     userID,
		FullName:   in.FullName,
		Email:      strings.TrimSpace(in.Email),
		NationalID: in.NationalID,
		Role:       in.Role,
		ProfilePic: in.ProfilePic,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("service: failed to update user %s: %w", userID, err)
	}
	return updated, nil
}

// DeleteUser removes a user; bids they placed are kept
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("service: failed to delete user %s: %w", userID, err)
	}
	utils.Info("user deleted", map[string]any{"user_id": userID})
	return nil
}
