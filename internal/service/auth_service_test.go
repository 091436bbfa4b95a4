package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/order-system/internal/repository"
)

type stubVerifier struct {
	identity *Identity
	err      error
}

func (v *stubVerifier) Verify(context.Context, string) (*Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	return v.identity, nil
}

func (v *stubVerifier) LoginURL() string { return "https://idp.example.com/authorize?client_id=test" }

func newAuthFixture(t *testing.T, verifier IdentityVerifier, ttl time.Duration) (*AuthService, repository.CustomerRepository) {
	t.Helper()
	db := setupTestDB(t)
	customers := repository.NewCustomerRepository(db)
	return NewAuthService(customers, verifier, "test-secret", ttl), customers
}

func TestExchangeCreatesCustomerOnFirstLogin(t *testing.T) {
	ctx := context.Background()
	verifier := &stubVerifier{identity: &Identity{
		Subject: "google|1001", Email: "jane@example.com", Name: "Jane Doe", Phone: "+254700000001",
	}}
	svc, customers := newAuthFixture(t, verifier, time.Hour)

	token, customer, err := svc.Exchange(ctx, "assertion")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "jane@example.com", customer.Email)
	assert.True(t, customer.IsActive)

	// 二次登录复用既有档案
	_, again, err := svc.Exchange(ctx, "assertion")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, again.ID)

	got, err := customers.GetBySubject(ctx, "google|1001")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, got.ID)
}

func TestLoginURLFromProvider(t *testing.T) {
	svc, _ := newAuthFixture(t, &stubVerifier{}, time.Hour)
	assert.Equal(t, "https://idp.example.com/authorize?client_id=test", svc.LoginURL())
}

func TestExchangeRejectsBadAssertion(t *testing.T) {
	svc, _ := newAuthFixture(t, &stubVerifier{err: ErrInvalidToken}, time.Hour)
	_, _, err := svc.Exchange(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenPayload(t *testing.T) {
	ctx := context.Background()
	verifier := &stubVerifier{identity: &Identity{Subject: "google|1002", Email: "bob@example.com"}}
	svc, _ := newAuthFixture(t, verifier, 24*time.Hour)

	token, customer, err := svc.Exchange(ctx, "assertion")
	require.NoError(t, err)

	var claims tokenClaims
	_, err = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, customer.ID, claims.UserID)
	assert.Equal(t, "bob@example.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestAuthenticateRoundtrip(t *testing.T) {
	ctx := context.Background()
	verifier := &stubVerifier{identity: &Identity{Subject: "google|1003", Email: "eve@example.com"}}
	svc, _ := newAuthFixture(t, verifier, time.Hour)

	token, customer, err := svc.Exchange(ctx, "assertion")
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, got.ID)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	ctx := context.Background()
	verifier := &stubVerifier{identity: &Identity{Subject: "google|1004", Email: "old@example.com"}}
	svc, _ := newAuthFixture(t, verifier, time.Hour)

	_, customer, err := svc.Exchange(ctx, "assertion")
	require.NoError(t, err)

	// 手动签发一枚已过期令牌
	expired := tokenClaims{
		UserID: customer.ID,
		Email:  customer.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthenticateWrongSecret(t *testing.T) {
	ctx := context.Background()
	verifier := &stubVerifier{identity: &Identity{Subject: "google|1005", Email: "mallory@example.com"}}
	svc, _ := newAuthFixture(t, verifier, time.Hour)

	_, customer, err := svc.Exchange(ctx, "assertion")
	require.NoError(t, err)

	forged := tokenClaims{
		UserID: customer.ID,
		Email:  customer.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, forged).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestInactiveCustomerRejected(t *testing.T) {
	ctx := context.Background()
	verifier := &stubVerifier{identity: &Identity{Subject: "google|1006", Email: "gone@example.com"}}
	svc, customers := newAuthFixture(t, verifier, time.Hour)

	token, customer, err := svc.Exchange(ctx, "assertion")
	require.NoError(t, err)

	customer.IsActive = false
	require.NoError(t, customers.Update(ctx, customer))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, ErrCustomerInactive)

	_, _, err = svc.Exchange(ctx, "assertion")
	assert.ErrorIs(t, err, ErrCustomerInactive)
}
