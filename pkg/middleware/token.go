package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/KaivDev4434/FairShare/pkg/response"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// BillAccessKey is the context key for the verified bill access claims
const BillAccessKey ContextKey = "bill_access"

// RoleEditor marks a token that may mutate the bill it was issued for.
const RoleEditor = "editor"

// BillClaims are the custom JWT claims carried by a bill link token.
type BillClaims struct {
	BillID string `json:"bill_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates bill link tokens. Bills have no user
// accounts; whoever holds a bill's token may act on it.
type TokenManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// NewTokenManager creates a token manager with the given secret and lifetime.
func NewTokenManager(secretKey string, tokenDuration time.Duration) *TokenManager {
	return &TokenManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// Generate creates a signed token granting the given role on one bill.
func (m *TokenManager) Generate(billID, role string) (string, error) {
	claims := &BillClaims{
		BillID: billID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate parses and validates a bill token, returning its claims if valid.
func (m *TokenManager) Validate(tokenString string) (*BillClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&BillClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*BillClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyBillAccess returns middleware that requires a valid bearer token for
// the bill named by the {id} route parameter. With required set to false the
// check is skipped, which keeps local development friction-free; valid tokens
// are still parsed into the context either way.
func VerifyBillAccess(manager *TokenManager, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				if required {
					response.Unauthorized(w, ErrMissingToken.Error())
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := manager.Validate(tokenString)
			if err != nil {
				if required {
					response.Unauthorized(w, ErrInvalidToken.Error())
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if required {
				if billID := chi.URLParam(r, "id"); billID != "" && billID != claims.BillID {
					response.Forbidden(w, "token was issued for a different bill")
					return
				}
			}

			ctx := context.WithValue(r.Context(), BillAccessKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetBillAccess extracts the verified bill claims from the request context.
func GetBillAccess(ctx context.Context) (*BillClaims, bool) {
	claims, ok := ctx.Value(BillAccessKey).(*BillClaims)
	return claims, ok
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
