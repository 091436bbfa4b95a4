package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-system/internal/model"
	"github.com/d60-Lab/order-system/internal/repository"
)

// Identity 外部身份断言解析结果
type Identity struct {
	Subject string
	Email   string
	Name    string
	Phone   string
}

// IdentityVerifier 校验外部身份断言；具体提供方（OIDC）视为黑盒
type IdentityVerifier interface {
	Verify(ctx context.Context, rawAssertion string) (*Identity, error)
	// LoginURL 提供方的授权入口，客户端从这里发起登录
	LoginURL() string
}

// oidcVerifier 基于 go-oidc 校验 ID Token
type oidcVerifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	clientID string
}

// NewOIDCVerifier 连接 issuer 并构造校验器
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (IdentityVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, err
	}
	return &oidcVerifier{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
		clientID: clientID,
	}, nil
}

// LoginURL 从 OIDC discovery 的 authorization_endpoint 拼出登录入口
func (v *oidcVerifier) LoginURL() string {
	q := url.Values{}
	q.Set("client_id", v.clientID)
	q.Set("response_type", "id_token")
	q.Set("scope", "openid email profile")
	return v.provider.Endpoint().AuthURL + "?" + q.Encode()
}

func (v *oidcVerifier) Verify(ctx context.Context, rawAssertion string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, rawAssertion)
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Phone string `json:"phone_number"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, ErrInvalidToken
	}
	return &Identity{Subject: idToken.Subject, Email: claims.Email, Name: claims.Name, Phone: claims.Phone}, nil
}

// tokenClaims 本地令牌载荷：仅 user_id / email / 过期信息，不携带敏感数据
type tokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService 外部身份换本地会话令牌
type AuthService struct {
	customers repository.CustomerRepository
	verifier  IdentityVerifier
	secret    []byte
	tokenTTL  time.Duration
}

func NewAuthService(customers repository.CustomerRepository, verifier IdentityVerifier, secret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{customers: customers, verifier: verifier, secret: []byte(secret), tokenTTL: tokenTTL}
}

// LoginURL 外部身份提供方的登录入口
func (s *AuthService) LoginURL() string { return s.verifier.LoginURL() }

// Exchange 校验外部断言，首登建档，签发 24h HS256 令牌
func (s *AuthService) Exchange(ctx context.Context, rawAssertion string) (string, *model.Customer, error) {
	identity, err := s.verifier.Verify(ctx, rawAssertion)
	if err != nil {
		return "", nil, err
	}

	customer, err := s.customers.GetBySubject(ctx, identity.Subject)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		customer, err = s.customers.Upsert(ctx, &model.Customer{
			ID:       uuid.New().String(),
			Subject:  identity.Subject,
			Email:    identity.Email,
			FullName: identity.Name,
			Phone:    identity.Phone,
			IsActive: true,
		})
	}
	if err != nil {
		return "", nil, err
	}
	if !customer.IsActive {
		return "", nil, ErrCustomerInactive
	}

	now := time.Now()
	claims := tokenClaims{
		UserID: customer.ID,
		Email:  customer.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return token, customer, nil
}

// Authenticate 校验签名与有效期并解析出顾客
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.Customer, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrInvalidToken
	}

	customer, err := s.customers.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !customer.IsActive {
		return nil, ErrCustomerInactive
	}
	return customer, nil
}
