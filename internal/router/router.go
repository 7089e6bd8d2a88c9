package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/shoplist/api/handler"
	"github.com/fastygo/shoplist/internal/middleware"
)

type Handlers struct {
	Item   *apiHandler.ItemHandler
	Health *apiHandler.HealthHandler
}

// New registers the item routes behind limit. Health checks bypass it.
func New(handlers Handlers, limit middleware.Middleware) *router.Router {
	if limit == nil {
		limit = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	r.GET("/items", limit(handlers.Item.ListItems))
	r.POST("/items", limit(handlers.Item.CreateItem))
	r.PUT("/items/{id}", limit(handlers.Item.UpdateItem))
	r.DELETE("/items/{id}", limit(handlers.Item.DeleteItem))

	return r
}
