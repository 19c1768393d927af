package api

import "github.com/RoyceAzure/lab/ordercenter/internal/api/handler"

type Server struct {
	ProductHandler       *handler.ProductHandler
	EstablishmentHandler *handler.EstablishmentHandler
	OrderHandler         *handler.OrderHandler
}

func NewServer(
	productHandler *handler.ProductHandler,
	establishmentHandler *handler.EstablishmentHandler,
	orderHandler *handler.OrderHandler,
) *Server {
	return &Server{
		ProductHandler:       productHandler,
		EstablishmentHandler: establishmentHandler,
		OrderHandler:         orderHandler,
	}
}
