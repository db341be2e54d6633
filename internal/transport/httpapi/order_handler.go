package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// OrderService — операции над заказами, нужные HTTP-слою.
type OrderService interface {
	Create(ctx context.Context, order domain.CustomerOrder) (domain.CustomerOrder, error)
	Update(ctx context.Context, id int64, proposed domain.CustomerOrder) (domain.CustomerOrder, error)
	Get(ctx context.Context, id int64) (domain.CustomerOrder, bool, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.CustomerOrder, error)
}

type orderHandler struct {
	svc OrderService
}

func (h *orderHandler) register(group *gin.RouterGroup) {
	group.GET("/all", h.list)
	group.GET("/:id", h.get)
	group.POST("/new", h.create)
	group.PUT("/:id", h.update)
	group.DELETE("/:id", h.delete)
}

func (h *orderHandler) list(c *gin.Context) {
	orders, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersFromDomain(orders))
}

func (h *orderHandler) get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	order, found, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, nil)
		return
	}
	c.JSON(http.StatusOK, orderFromDomain(order))
}

func (h *orderHandler) create(c *gin.Context) {
	order, ok := h.bind(c)
	if !ok {
		return
	}
	if order.CustomerID <= 0 {
		writeError(c, domain.ErrCustomerRequired)
		return
	}
	created, err := h.svc.Create(c.Request.Context(), order)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderFromDomain(created))
}

// update не требует customerId: покупатель существующего заказа не меняется.
func (h *orderHandler) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	order, ok := h.bind(c)
	if !ok {
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), id, order)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderFromDomain(updated))
}

func (h *orderHandler) delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, id)
}

func (h *orderHandler) bind(c *gin.Context) (domain.CustomerOrder, bool) {
	var body CustomerOrderDTO
	if err := bindJSON(c, &body); err != nil {
		writeError(c, err)
		return domain.CustomerOrder{}, false
	}
	order, err := body.toDomain()
	if err != nil {
		writeError(c, err)
		return domain.CustomerOrder{}, false
	}
	if errs := order.Validate(); len(errs) > 0 {
		writeError(c, validationError(errs))
		return domain.CustomerOrder{}, false
	}
	return order, true
}
