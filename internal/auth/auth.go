// Package auth resolves the back-office operator from an HS256 bearer token.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/BearBump/FlashLane/internal/apperrors"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Issue mints an operator token. Used by the operator CLI and tests.
func (v *Verifier) Issue(op models.Operator, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: op.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   op.ID.String(),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return s, nil
}

func (v *Verifier) Operator(token string) (*models.Operator, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrUnauthorized, err.Error())
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrUnauthorized, "bad subject")
	}
	return &models.Operator{ID: id, Email: claims.Email}, nil
}

type ctxKey struct{}

func WithOperator(ctx context.Context, op *models.Operator) context.Context {
	return context.WithValue(ctx, ctxKey{}, op)
}

// FromContext returns nil when no operator was authenticated.
func FromContext(ctx context.Context) *models.Operator {
	op, _ := ctx.Value(ctxKey{}).(*models.Operator)
	return op
}

// Middleware rejects requests without a valid bearer token. onReject writes
// the 401 response so the HTTP layer keeps one error format.
func Middleware(v *Verifier, onReject func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				onReject(w, r, errors.Wrap(apperrors.ErrUnauthorized, "authorization header required"))
				return
			}
			op, err := v.Operator(strings.TrimSpace(parts[1]))
			if err != nil {
				onReject(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), op)))
		})
	}
}
