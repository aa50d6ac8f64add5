package httpapi

import (
	"errors"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"importledger/backend/internal/domain"
)

// AuthManager verifies tokens minted by the identity service. It never issues
// tokens itself.
type AuthManager struct {
	secret      []byte
	issuer      string
	overridePIN string
}

type companyClaims struct {
	jwtlib.RegisteredClaims
	CompanyID string `json:"company_id"`
}

func NewAuthManager(secret string, issuer string, overridePIN string) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	// An empty PIN stays unhashed so every override attempt fails.
	overridePIN = strings.TrimSpace(overridePIN)
	if overridePIN != "" {
		hashedPIN, err := hashPIN(overridePIN)
		if err != nil {
			hashedPIN = ""
		}
		overridePIN = hashedPIN
	}

	return &AuthManager{
		secret:      []byte(secret),
		issuer:      strings.TrimSpace(issuer),
		overridePIN: overridePIN,
	}
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	options := []jwtlib.ParserOption{jwtlib.WithValidMethods([]string{"HS256"})}
	if a.issuer != "" {
		options = append(options, jwtlib.WithIssuer(a.issuer))
	}

	claims := &companyClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, options...)
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	companyID := strings.TrimSpace(claims.CompanyID)
	if companyID == "" {
		return domain.Actor{}, errors.New("token carries no company")
	}
	return domain.Actor{Subject: sub, CompanyID: companyID}, nil
}

func (a *AuthManager) ValidateOverridePIN(pin string) bool {
	input := strings.TrimSpace(pin)
	if input == "" || !isPINHash(a.overridePIN) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.overridePIN), []byte(input)) == nil
}

func hashPIN(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPINHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
