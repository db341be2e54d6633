package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// CustomerService — операции над покупателями, нужные HTTP-слою.
type CustomerService interface {
	Create(ctx context.Context, customer domain.Customer) (domain.Customer, error)
	Update(ctx context.Context, id int64, proposed domain.Customer) (domain.Customer, error)
	Get(ctx context.Context, id int64) (domain.Customer, bool, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Customer, error)
	Orders(ctx context.Context, customerID int64) ([]domain.CustomerOrder, error)
}

type customerHandler struct {
	svc CustomerService
}

func (h *customerHandler) register(group *gin.RouterGroup) {
	group.GET("/all", h.list)
	group.GET("/:id", h.get)
	group.GET("/:id/orders", h.orders)
	group.POST("/new", h.create)
	group.PUT("/:id", h.update)
	group.DELETE("/:id", h.delete)
}

func (h *customerHandler) list(c *gin.Context) {
	customers, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	result := make([]CustomerDTO, 0, len(customers))
	for _, customer := range customers {
		result = append(result, customerFromDomain(customer))
	}
	c.JSON(http.StatusOK, result)
}

func (h *customerHandler) get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	customer, found, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, nil)
		return
	}

	orders, err := h.svc.Orders(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	dto := customerFromDomain(customer)
	dto.OrdersList = ordersFromDomain(orders)
	c.JSON(http.StatusOK, dto)
}

func (h *customerHandler) orders(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	orders, err := h.svc.Orders(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordersFromDomain(orders))
}

func (h *customerHandler) create(c *gin.Context) {
	customer, ok := h.bind(c)
	if !ok {
		return
	}
	created, err := h.svc.Create(c.Request.Context(), customer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customerFromDomain(created))
}

func (h *customerHandler) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	customer, ok := h.bind(c)
	if !ok {
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), id, customer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, customerFromDomain(updated))
}

func (h *customerHandler) delete(c *gin.Context) {
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

func (h *customerHandler) bind(c *gin.Context) (domain.Customer, bool) {
	var body CustomerDTO
	if err := bindJSON(c, &body); err != nil {
		writeError(c, err)
		return domain.Customer{}, false
	}
	customer := body.toDomain()
	if errs := customer.Validate(); len(errs) > 0 {
		writeError(c, validationError(errs))
		return domain.Customer{}, false
	}
	return customer, true
}
