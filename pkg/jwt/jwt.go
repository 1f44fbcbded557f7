package jwt

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims - CMS 편집자 액세스 토큰 페이로드
type Claims struct {
	jwt.RegisteredClaims
	MemberID uint64 `json:"member_id"`
	Email    string `json:"email,omitempty"`
}

// Manager 토큰 발급/검증
type Manager struct {
	secretKey []byte
	expiry    time.Duration
	issuer    string
}

// NewManager creates a manager; expirySeconds <= 0 means one hour
func NewManager(secret string, expirySeconds int) *Manager {
	expiry := time.Duration(expirySeconds) * time.Second
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Manager{secretKey: []byte(secret), expiry: expiry, issuer: "angple-elements"}
}

// GenerateToken issues an access token for a member
func (m *Manager) GenerateToken(memberID uint64, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(memberID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
		MemberID: memberID,
		Email:    email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

// VerifyToken 서명/만료 검증 후 클레임 반환
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.MemberID != 0 {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
