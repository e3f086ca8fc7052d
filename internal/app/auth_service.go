package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"detail-library/internal/model"
	"detail-library/internal/pkg/jwtutil"
)

var (
	ErrOperatorExists    = errors.New("operator already exists")
	ErrInvalidCredential = errors.New("invalid username or password")
)

const minPasswordLen = 8

type OperatorStore interface {
	Create(ctx context.Context, operator *model.Operator) error
	GetByUsername(ctx context.Context, username string) (*model.Operator, error)
}

// AuthService manages operator accounts and issues the bearer tokens that
// guard the admin endpoints.
type AuthService struct {
	operators     OperatorStore
	jwtSecret     string
	jwtExpiration time.Duration
	bcryptCost    int
}

type CreateOperatorInput struct {
	Username string
	Password string
	Role     string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token    string          `json:"token"`
	Operator *model.Operator `json:"operator"`
}

func NewAuthService(operators OperatorStore, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		operators:     operators,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		bcryptCost:    bcrypt.DefaultCost,
	}
}

func (s *AuthService) CreateOperator(ctx context.Context, input CreateOperatorInput) (*model.Operator, error) {
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	role := strings.TrimSpace(input.Role)
	if role == "" {
		role = jwtutil.RoleAdmin
	}
	if username == "" || len(password) < minPasswordLen {
		return nil, ErrInvalidInput
	}

	existing, err := s.operators.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrOperatorExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	operator := &model.Operator{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.operators.Create(ctx, operator); err != nil {
		return nil, err
	}
	return operator, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	password := strings.TrimSpace(input.Password)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	operator, err := s.operators.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if operator == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, err := jwtutil.GenerateToken(s.jwtSecret, s.jwtExpiration, operator.Username, operator.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Operator: operator}, nil
}
