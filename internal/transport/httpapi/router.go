package httpapi

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/metrics"
)

// Services — сервисы, которые обслуживает REST API.
type Services struct {
	Cakes     CakeService
	Customers CustomerService
	Orders    OrderService
}

// NewRouter собирает gin.Engine с маршрутами /server/cakes, /server/customers
// и /server/customerOrders.
func NewRouter(services Services, logger *log.Entry, m *metrics.BakeryMetrics) *gin.Engine {
	if logger == nil {
		logger = log.New().WithField("component", "http-api")
	}

	router := gin.New()
	router.Use(
		RequestID(),
		AccessLog(logger),
		Metrics(m),
		Recovery(logger),
	)

	server := router.Group("/server")
	(&cakeHandler{svc: services.Cakes}).register(server.Group("/cakes"))
	(&customerHandler{svc: services.Customers}).register(server.Group("/customers"))
	(&orderHandler{svc: services.Orders}).register(server.Group("/customerOrders"))

	return router
}
