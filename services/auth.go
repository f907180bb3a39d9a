package services

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"

	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/repositories"
	"github.com/meinhoongagan/healthcoach-api/utils"
	"go.uber.org/zap"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)

type AuthService struct {
	users  repositories.IUserRepository
	tokens *utils.TokenManager
}

func NewAuthService(users repositories.IUserRepository, tokens *utils.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

type RegisterInput struct {
	Username *string         `json:"username"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	FullName *string         `json:"full_name"`
	UserType models.UserType `json:"user_type"`
}

type UpdateUserInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil || addr.Address != strings.TrimSpace(raw) {
		return "", validation("A valid email is required")
	}
	return strings.ToLower(addr.Address), nil
}

func checkUsername(u string) error {
	if !usernamePattern.MatchString(u) {
		return validation("username must be 3-50 characters of letters, digits, '.', '_' or '-'")
	}
	return nil
}

func checkPassword(pw string) error {
	if len(pw) < minPasswordLength {
		return validation("password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}

	username := strings.SplitN(email, "@", 2)[0]
	if in.Username != nil && strings.TrimSpace(*in.Username) != "" {
		username = strings.TrimSpace(*in.Username)
	}
	if err := checkUsername(username); err != nil {
		return nil, err
	}

	userType := in.UserType
	switch userType {
	case "":
		userType = models.UserTypeUser
	case models.UserTypeUser, models.UserTypeConsultant:
	default:
		return nil, validation("user_type must be one of [user consultant]")
	}

	taken, err := s.users.ExistsByUsernameOrEmail(ctx, username, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("Username or email already registered")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		FullName:     in.FullName,
		PasswordHash: hash,
		UserType:     userType,
	}
	if err := s.users.Create(ctx, user); err != nil {
		logger.Log.Error("AuthService.Register: create failed", zap.String("username", username), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// Login accepts a username or an email as identifier.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*utils.TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, validation("identifier and password are required")
	}
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, unauthorized("Invalid credentials")
	}
	return s.tokens.IssuePair(user.ID, user.UserType)
}

// Refresh trades a refresh token for a new pair. Access tokens are refused.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	claims, err := s.tokens.Parse(refreshToken, utils.TokenRefresh)
	if err != nil {
		return nil, unauthorized("Invalid refresh token")
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, unauthorized("Invalid refresh token")
	}
	if err != nil {
		return nil, err
	}
	return s.tokens.IssuePair(user.ID, user.UserType)
}

func (s *AuthService) Me(ctx context.Context, p models.Principal) (*models.User, error) {
	user, err := s.users.FindByID(ctx, p.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFound("User not found")
	}
	return user, err
}

func (s *AuthService) UpdateMe(ctx context.Context, p models.Principal, in UpdateUserInput) (*models.User, error) {
	user, err := s.Me(ctx, p)
	if err != nil {
		return nil, err
	}

	username, email := user.Username, user.Email
	if in.Username != nil {
		username = strings.TrimSpace(*in.Username)
		if err := checkUsername(username); err != nil {
			return nil, err
		}
	}
	if in.Email != nil {
		if email, err = normalizeEmail(*in.Email); err != nil {
			return nil, err
		}
	}
	if username != user.Username || email != user.Email {
		taken, err := s.users.ExistsByUsernameOrEmail(ctx, username, email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, conflict("Username or email already registered")
		}
	}
	if in.Password != nil {
		if err := checkPassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	user.Username, user.Email = username, email
	if in.FullName != nil {
		user.FullName = in.FullName
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
