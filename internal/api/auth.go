package api

import (
	"errors"
	"net/http"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/service"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

var errForbidden = errors.New("forbidden")

// JwtCustomClaims is the token issued by the identity provider. Subject is the
// user id; Role decides what the caller may reach.
type JwtCustomClaims struct {
	Role  entity.Role `json:"role,omitempty"`
	Name  string      `json:"name,omitempty"`
	Email string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Validate runs after signature and expiry checks.
func (c *JwtCustomClaims) Validate() error {
	if c.Subject == "" {
		return errors.New("token has no subject")
	}
	if c.Role != "" && !c.Role.Valid() {
		return errors.New("token has an unknown role")
	}
	return nil
}

// EffectiveRole treats tokens without a role claim as customers.
func (c *JwtCustomClaims) EffectiveRole() entity.Role {
	if c.Role == "" {
		return entity.RoleUser
	}
	return c.Role
}

// IssueToken signs an HS256 token for subject.
func IssueToken(secret, subject string, role entity.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JwtCustomClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// JWTMiddleware rejects requests without a valid bearer token.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(secret),
		SigningMethod: echojwt.AlgorithmHS256,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(JwtCustomClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, errorBody("invalid or missing token"))
		},
	})
}

func currentClaims(c echo.Context) *JwtCustomClaims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return &JwtCustomClaims{}
	}
	claims, ok := token.Claims.(*JwtCustomClaims)
	if !ok {
		return &JwtCustomClaims{}
	}
	return claims
}

// Guard answers role questions that need the profile store.
type Guard struct {
	profiles *service.ProfileService
}

func NewGuard(profiles *service.ProfileService) *Guard {
	return &Guard{profiles: profiles}
}

// privileged reports whether the caller may act on other users' data: the
// admin, or staff whose profile is active.
func (g *Guard) privileged(c echo.Context) (bool, error) {
	claims := currentClaims(c)
	switch claims.EffectiveRole() {
	case entity.RoleAdmin:
		return true, nil
	case entity.RoleStaff:
		return g.profiles.IsActiveStaff(c.Request().Context(), claims.Subject)
	default:
		return false, nil
	}
}

// RequireRole lets through callers holding one of roles. Staff must also be
// active.
func (g *Guard) RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := currentClaims(c)
			role := claims.EffectiveRole()
			allowed := false
			for _, r := range roles {
				if r == role {
					allowed = true
					break
				}
			}
			if !allowed {
				return respondError(c, errForbidden)
			}
			if role == entity.RoleStaff {
				active, err := g.profiles.IsActiveStaff(c.Request().Context(), claims.Subject)
				if err != nil {
					return respondError(c, err)
				}
				if !active {
					return c.JSON(http.StatusForbidden, errorBody("staff account is inactive"))
				}
			}
			return next(c)
		}
	}
}

// targetUser resolves the user a request acts on. An empty request means the
// caller; anyone else needs privileged access.
func (g *Guard) targetUser(c echo.Context, requested string) (string, error) {
	subject := currentClaims(c).Subject
	if requested == "" || requested == subject {
		return subject, nil
	}
	ok, err := g.privileged(c)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errForbidden
	}
	return requested, nil
}
