// Package token verifica los service tokens HS256 del API interno.
//
// El CMS no autentica TPPs (eso lo hace el gateway XS2A aguas arriba):
// estos tokens autentican a los servicios internos que consumen el API.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken indica un token ausente, malformado, expirado o con firma
// inválida.
var ErrInvalidToken = errors.New("token: invalid service token")

// Claims son las claims esperadas en un service token.
type Claims struct {
	jwt.RegisteredClaims
	// Service identifica al servicio llamante (ej: "xs2a-gateway").
	Service string `json:"svc,omitempty"`
}

// Verifier valida service tokens firmados con HS256.
type Verifier struct {
	secret []byte
}

// NewVerifier crea un Verifier con el secreto compartido.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parsea y valida el token. Retorna las claims si es válido.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: vacío", ErrInvalidToken)
	}
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("alg inesperado: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// Issue emite un token de servicio. Usado por la CLI y los tests.
func (v *Verifier) Issue(service string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Service: service,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
