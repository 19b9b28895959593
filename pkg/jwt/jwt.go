// Package jwt emite y valida los tokens de sesión de la API. El token lleva,
// además de los claims registrados, la identidad completa que necesita el
// middleware RBAC: usuario, empresa y rol, de forma que autorizar una petición
// no requiere consultar la base de datos.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenData identidad transportada dentro del token.
type TokenData struct {
	UserID    string
	CompanyID string
	Role      string // admin, gestor o lector
}

type sessionClaims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
}

// Generate firma un token HS256 con la identidad dada y vigencia ttl.
func Generate(secret, issuer string, ttl time.Duration, data TokenData) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   data.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    data.UserID,
		CompanyID: data.CompanyID,
		Role:      data.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve la identidad del token.
func Parse(secret, tokenString string) (TokenData, error) {
	if secret == "" {
		return TokenData{}, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{},
		func(t *jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return TokenData{}, err
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return TokenData{}, fmt.Errorf("jwt: claims inválidos")
	}
	return TokenData{UserID: claims.UserID, CompanyID: claims.CompanyID, Role: claims.Role}, nil
}
