package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

// Claims are the JWT claims identifying the current user.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

func GetUserClaims(usr user.User, conf *core.Config) Claims {
	now := time.Now().UTC()
	return Claims{
		StandardClaims: jwt.StandardClaims{
			Subject:   usr.ID,
			Issuer:    conf.AppName,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
		},
		Username: usr.Username,
		Role:     usr.Role,
	}
}

// GenerateToken signs `claims` with the application secret.
func GenerateToken(claims Claims, conf *core.Config) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return signed, nil
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		Claims:        &Claims{},
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
	}
}

func getContextClaims(ctx echo.Context) (*Claims, bool) {
	token, ok := ctx.Get(contextTokenKey).(*jwt.Token)
	if !ok {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	return claims, ok
}

// currentUserMiddleware loads the token's user and rejects inactive accounts.
func currentUserMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, ok := getContextClaims(ctx)
			if !ok || claims.Subject == "" {
				return errUnauthorized
			}
			usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if core.KindOf(err) == core.KindNotFound || core.KindOf(err) == core.KindInvalidID {
					return errUnauthorized
				}
				return err
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

func getContextUser(ctx echo.Context) user.User {
	usr, _ := ctx.Get(contextUserKey).(user.User)
	return usr
}
