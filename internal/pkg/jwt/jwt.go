package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Token types carried in the "type" claim
const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"
)

// Claim names shared with the auth middleware
const (
	ClaimEmployeeID = "employee_id"
	ClaimIsAdmin    = "is_admin"
	ClaimType       = "type"
)

const sseTokenTTL = 5 * time.Minute

type Service interface {
	GenerateAccessToken(employeeID string, isAdmin bool) (token string, expiresAt int64, err error)
	GenerateSSEToken(employeeID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (employeeID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime time.Duration) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

// GenerateAccessToken issues the bearer token the API expects. Logins happen
// elsewhere; this is used by tooling and tests.
func (j *JWTService) GenerateAccessToken(employeeID string, isAdmin bool) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpirationTime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		ClaimEmployeeID: employeeID,
		ClaimIsAdmin:    isAdmin,
		ClaimType:       TokenTypeAccess,
		"exp":           expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateSSEToken generates a short-lived token for the decision stream
func (j *JWTService) GenerateSSEToken(employeeID string) (token string, expiresIn int, err error) {
	expiresAt := time.Now().Add(sseTokenTTL).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		ClaimEmployeeID: employeeID,
		ClaimType:       TokenTypeSSE,
		"exp":           expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(sseTokenTTL.Seconds()), nil
}

// ValidateSSEToken validates an SSE token and returns the employee ID
func (j *JWTService) ValidateSSEToken(tokenString string) (employeeID string, err error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get(ClaimType)
	if !ok || tokenType != TokenTypeSSE {
		return "", jwt.ErrInvalidJWT()
	}

	employeeIDVal, ok := token.Get(ClaimEmployeeID)
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}

	employeeID, ok = employeeIDVal.(string)
	if !ok || employeeID == "" {
		return "", jwt.ErrInvalidJWT()
	}

	return employeeID, nil
}
