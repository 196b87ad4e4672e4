package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/aurelia-app/aurelia/backend/pkg/graph"
)

func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		token := strings.Split(authHeader, " ")[1]
		app := c.(*AppContext).App

		user, err := resolveUser(app, token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}
		c.(*AppContext).User = user

		return next(c)
	}
}

// resolveUser authenticates a bearer token: the master API key maps to the
// configured master user, anything else must be a valid JWT with an id claim.
func resolveUser(app *App, token string) (*AppUser, error) {
	if app.MasterAPIKey != "" && app.MasterUserID != 0 && token == app.MasterAPIKey {
		return &AppUser{UserID: app.MasterUserID}, nil
	}

	k := *app.Key
	parsed, err := jwt.Parse(token, k.Keyfunc)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", graph.ErrUnauthenticated)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims", graph.ErrUnauthenticated)
	}

	switch id := claims["id"].(type) {
	case string:
		userID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed user id", graph.ErrUnauthenticated)
		}
		return &AppUser{UserID: userID}, nil
	case float64:
		return &AppUser{UserID: int64(id)}, nil
	}
	return nil, fmt.Errorf("%w: missing user id", graph.ErrUnauthenticated)
}
