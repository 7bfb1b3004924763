package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kishankumar2607/TechNova/internal/models"
	"github.com/kishankumar2607/TechNova/internal/util"
)

// AccountService handles registration, login and profile management.
// Passwords are stored as bcrypt hashes; a successful login yields a
// signed JWT carrying the user id and role.
type AccountService struct {
	users     UserStore
	publisher UserEventPublisher
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(users UserStore, publisher UserEventPublisher, jwtSecret string, tokenTTL time.Duration) *AccountService {
	return &AccountService{
		users:     users,
		publisher: publisher,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    util.GetLogger(),
	}
}

func validateRegistration(fullName, email, password string) error {
	fields := map[string]string{}

	if strings.TrimSpace(fullName) == "" {
		fields["full_name"] = "is required"
	} else if len(fullName) > 50 {
		fields["full_name"] = "cannot exceed 50 characters"
	}
	if strings.TrimSpace(email) == "" {
		fields["email"] = "is required"
	} else if !strings.Contains(email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(password) < 6 {
		fields["password"] = "must be at least 6 characters long"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Register creates a new customer account. The email must be unused.
func (as *AccountService) Register(ctx context.Context, fullName, email, password string) (*models.User, error) {
	if err := validateRegistration(fullName, email, password); err != nil {
		return nil, err
	}

	existing, err := as.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FullName: fullName,
		Email:    email,
		Password: string(hash),
		Role:     models.RoleCustomer,
	}

	if err := as.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	util.UsersRegisteredTotal.Inc()
	as.logger.Info("User registered", zap.Int64("user_id", user.ID))

	event := &models.UserRegisteredEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeUserRegistered,
			Timestamp: time.Now(),
		},
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	}
	if err := as.publisher.PublishUserRegistered(ctx, event); err != nil {
		as.logger.Error("Failed to publish UserRegistered event", zap.Error(err))
	}

	return user, nil
}

// Login verifies credentials and issues a signed token.
func (as *AccountService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := as.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := as.issueToken(user)
	if err != nil {
		return nil, "", err
	}

	as.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return user, token, nil
}

func (as *AccountService) issueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(as.tokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(as.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a token, returning the user id and role.
func (as *AccountService) VerifyToken(tokenString string) (int64, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return as.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", ErrUnauthorized
	}

	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, "", ErrUnauthorized
	}
	role, _ := claims["role"].(string)

	return int64(sub), role, nil
}

// UpdateProfile changes a user's name and email. A new email must be
// unused by any other account.
func (as *AccountService) UpdateProfile(ctx context.Context, userID int64, fullName, email string) error {
	user, err := as.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	fields := map[string]string{}
	if strings.TrimSpace(fullName) == "" {
		fields["full_name"] = "is required"
	}
	if strings.TrimSpace(email) == "" || !strings.Contains(email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	if email != user.Email {
		other, err := as.users.GetUserByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if other != nil && other.ID != userID {
			return ErrEmailTaken
		}
	}

	return as.users.UpdateUserProfile(ctx, userID, fullName, email)
}

// ChangePassword verifies the current password before storing a new hash.
func (as *AccountService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	user, err := as.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if len(next) < 6 {
		return &ValidationError{Fields: map[string]string{"password": "must be at least 6 characters long"}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return as.users.UpdateUserPassword(ctx, userID, string(hash))
}
