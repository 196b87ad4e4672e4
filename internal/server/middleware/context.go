package middleware

import (
	"github.com/MicahParks/keyfunc/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/aurelia-app/aurelia/backend/pkg/ai"
	"github.com/aurelia-app/aurelia/backend/pkg/store"
)

// AppUser is the authenticated caller, attached by AuthMiddleware.
type AppUser struct {
	UserID int64
}

// App bundles the shared dependencies handlers pull off the request context.
type App struct {
	DBConn       *pgxpool.Pool
	Queue        *amqp091.Channel
	Key          *keyfunc.Keyfunc
	AiClient     ai.GraphAIClient
	Store        store.GraphStorage
	MasterAPIKey string
	MasterUserID int64
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
