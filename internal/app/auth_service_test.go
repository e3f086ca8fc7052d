package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"detail-library/internal/model"
	"detail-library/internal/pkg/jwtutil"
)

type memoryOperators struct {
	byName map[string]*model.Operator
}

func (m *memoryOperators) Create(_ context.Context, op *model.Operator) error {
	if m.byName == nil {
		m.byName = map[string]*model.Operator{}
	}
	op.ID = uint(len(m.byName) + 1)
	m.byName[op.Username] = op
	return nil
}

func (m *memoryOperators) GetByUsername(_ context.Context, username string) (*model.Operator, error) {
	return m.byName[username], nil
}

func newAuthService() *AuthService {
	svc := NewAuthService(&memoryOperators{}, "secret", time.Minute)
	svc.bcryptCost = bcrypt.MinCost
	return svc
}

func TestAuth_CreateAndLogin(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	op, err := svc.CreateOperator(ctx, CreateOperatorInput{Username: "ops", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, jwtutil.RoleAdmin, op.Role)
	assert.NotEqual(t, "correct-horse", op.PasswordHash)

	result, err := svc.Login(ctx, LoginInput{Username: "ops", Password: "correct-horse"})
	require.NoError(t, err)
	claims, err := jwtutil.ParseToken("secret", result.Token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, jwtutil.RoleAdmin, claims.Role)
}

func TestAuth_Rejections(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()
	_, err := svc.CreateOperator(ctx, CreateOperatorInput{Username: "ops", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.CreateOperator(ctx, CreateOperatorInput{Username: "ops", Password: "another-pass"})
	assert.ErrorIs(t, err, ErrOperatorExists)

	_, err = svc.CreateOperator(ctx, CreateOperatorInput{Username: "short", Password: "1234"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Login(ctx, LoginInput{Username: "ops", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}
