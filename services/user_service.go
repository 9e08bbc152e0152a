package services

import (
	"context"
	"errors"
	"strings"

	"shortlink/apperrors"
	"shortlink/models"
	"shortlink/repository"
)

// ProfileUpdate describes a partial edit of a user profile. Nil fields are
// left unchanged.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Mobile   *string
}

// UserService owns account registration, credential checks and the
// account-deletion cascade.
type UserService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, username, email, mobile, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperrors.Validationf("username is required")
	}
	if strings.TrimSpace(email) == "" {
		return nil, apperrors.Validationf("email is required")
	}
	if strings.TrimSpace(password) == "" {
		return nil, apperrors.Validationf("password is required")
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Mobile:   mobile,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			return nil, apperrors.Validationf("user already exists")
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks the email/password pair. Unknown email and wrong
// password return the same ErrAuth so neither case leaks which part failed.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrAuth
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, apperrors.ErrAuth
	}
	return user, nil
}

// Profile returns the account for the verified user id.
func (s *UserService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile applies a partial edit to username, email or mobile.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, upd ProfileUpdate) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Username != nil {
		if strings.TrimSpace(*upd.Username) == "" {
			return nil, apperrors.Validationf("username cannot be blank")
		}
		user.Username = *upd.Username
	}
	if upd.Email != nil {
		if strings.TrimSpace(*upd.Email) == "" {
			return nil, apperrors.Validationf("email cannot be blank")
		}
		user.Email = *upd.Email
	}
	if upd.Mobile != nil {
		user.Mobile = *upd.Mobile
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateKey) {
			return nil, apperrors.Validationf("email already in use")
		}
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user and cascades to every link the user owns.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	return s.users.DeleteWithLinks(ctx, userID)
}
