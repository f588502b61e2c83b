package echoapi

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sadhanalabs/sadhana/core"
	"github.com/sadhanalabs/sadhana/core/user"
)

const contextClaimsKey = "userClaims"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	UserID int    `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func (c *Claims) IsAdmin() bool {
	return c.Role == user.RoleAdmin
}

func GetUserClaims(usr user.User, conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(conf.Server.JWTExpirationDelta)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: usr.ID,
		Email:  usr.Email,
		Role:   usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims, conf *core.Config) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	return ss, errors.Wrap(err, "signing token")
}

// parseToken verifies the signature and expiry and returns the claims.
func parseToken(tokenStr string, conf *core.Config) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, errTokenInvalid
	}
	return claims, nil
}

func getContextClaims(ctx echo.Context) (*Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return claims, nil
	}
	return nil, errTokenMissing
}
