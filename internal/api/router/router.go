package router

import (
	"net/http"

	"github.com/RoyceAzure/lab/ordercenter/internal/api"
	m "github.com/RoyceAzure/lab/ordercenter/internal/api/middleware"
	"github.com/RoyceAzure/lab/ordercenter/internal/api/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func SetupRouter(server *api.Server, limiter m.Limiter, logger zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// 全局中間件
	r.Use(m.RequestIdMiddleware)
	r.Use(middleware.RealIP)
	r.Use(m.LoggerMiddleware(logger))
	r.Use(m.RecoverMiddleware(logger))
	if limiter != nil {
		r.Use(m.NewRateLimitMiddleware(limiter))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.SuccessJSON(w, http.StatusOK, "ok")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			h := server.ProductHandler
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/stock", h.StockLevels)
			r.Get("/{productId}", h.GetProduct)
			r.Patch("/{productId}", h.UpdateProduct)
			r.Delete("/{productId}", h.DeleteProduct)
		})

		r.Route("/establishments", func(r chi.Router) {
			h := server.EstablishmentHandler
			r.Get("/", h.ListEstablishments)
			r.Post("/", h.CreateEstablishment)
			r.Get("/{establishmentId}", h.GetEstablishment)
			r.Delete("/{establishmentId}", h.DeleteEstablishment)
		})

		r.Route("/orders", func(r chi.Router) {
			h := server.OrderHandler
			r.Get("/", h.ListOrders)
			r.Post("/", h.CreateOrder)
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", h.GetOrder)
				r.Patch("/", h.UpdateOrder)
				r.Delete("/", h.DeleteOrder)
				r.Get("/products", h.ListLines)
				r.Post("/products", h.AddLine)
				r.Get("/products/{productId}", h.GetLine)
				r.Patch("/products/{productId}", h.UpdateLine)
				r.Delete("/products/{productId}", h.RemoveLine)
			})
		})
	})
	return r
}
