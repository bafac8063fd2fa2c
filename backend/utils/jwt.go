package utils

import (
	"crypto/rsa"
	"fmt"
	"strings"
	"time"

	"coursemarket/backend/config"
	"coursemarket/backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// sessionCookie is where the identity provider's browser SDK keeps the
// short-lived session token.
const sessionCookie = "__session"

type SessionClaims struct {
	UserID string
	Role   models.UserType
}

func (s *SessionClaims) IsTeacher() bool {
	return s != nil && s.Role == models.UserTypeTeacher
}

// SessionVerifier checks identity-provider session tokens without a network
// round trip: RS256 against the provider's published PEM key, or HS256 with a
// shared secret for local development.
type SessionVerifier struct {
	publicKey *rsa.PublicKey
	secret    []byte
	issuer    string
}

func NewSessionVerifier(cfg *config.Config) (*SessionVerifier, error) {
	v := &SessionVerifier{issuer: cfg.SessionIssuer}
	if pem := strings.TrimSpace(cfg.SessionPublicKey); pem != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("parse session public key: %w", err)
		}
		v.publicKey = key
		return v, nil
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("either CLERK_JWT_KEY or JWT_SECRET is required")
	}
	v.secret = []byte(cfg.JWTSecret)
	return v, nil
}

func (v *SessionVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if v.publicKey != nil {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.publicKey, nil
	}
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return v.secret, nil
}

func (v *SessionVerifier) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, v.keyFunc)
	if err != nil {
		return nil, NewUnauthorizedError("Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, NewUnauthorizedError("Invalid token claims")
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, NewUnauthorizedError("Invalid token issuer")
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, NewUnauthorizedError("Invalid user ID in token")
	}

	return &SessionClaims{UserID: userID, Role: roleFromClaims(claims)}, nil
}

// roleFromClaims reads metadata.userType; anything unrecognised is a student.
func roleFromClaims(claims jwt.MapClaims) models.UserType {
	metadata, _ := claims["metadata"].(map[string]interface{})
	if metadata == nil {
		return models.UserTypeStudent
	}
	if role, _ := metadata["userType"].(string); models.UserType(role) == models.UserTypeTeacher {
		return models.UserTypeTeacher
	}
	return models.UserTypeStudent
}

func ExtractSessionFromRequest(c *fiber.Ctx, v *SessionVerifier) (*SessionClaims, error) {
	tokenString := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		tokenString = c.Cookies(sessionCookie)
	}
	if tokenString == "" {
		return nil, NewUnauthorizedError("Missing authorization token")
	}
	return v.Verify(tokenString)
}

// GenerateSessionToken signs an HS256 session token shaped like the identity
// provider's. Used for local development and tests.
func GenerateSessionToken(userID string, role models.UserType, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":      userID,
		"metadata": map[string]interface{}{"userType": string(role)},
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
