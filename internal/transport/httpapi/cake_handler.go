package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// CakeService — операции над тортами, нужные HTTP-слою.
type CakeService interface {
	Create(ctx context.Context, cake domain.Cake) (domain.Cake, error)
	Update(ctx context.Context, id int64, proposed domain.Cake) (domain.Cake, error)
	Get(ctx context.Context, id int64) (domain.Cake, bool, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Cake, error)
}

type cakeHandler struct {
	svc CakeService
}

func (h *cakeHandler) register(group *gin.RouterGroup) {
	group.GET("/all", h.list)
	group.GET("/:id", h.get)
	group.POST("/new", h.create)
	group.PUT("/:id", h.update)
	group.DELETE("/:id", h.delete)
}

func (h *cakeHandler) list(c *gin.Context) {
	cakes, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	result := make([]CakeDTO, 0, len(cakes))
	for _, cake := range cakes {
		result = append(result, cakeFromDomain(cake))
	}
	c.JSON(http.StatusOK, result)
}

func (h *cakeHandler) get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	cake, found, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, nil)
		return
	}
	c.JSON(http.StatusOK, cakeFromDomain(cake))
}

func (h *cakeHandler) create(c *gin.Context) {
	cake, ok := h.bind(c)
	if !ok {
		return
	}
	created, err := h.svc.Create(c.Request.Context(), cake)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cakeFromDomain(created))
}

func (h *cakeHandler) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	cake, ok := h.bind(c)
	if !ok {
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), id, cake)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cakeFromDomain(updated))
}

func (h *cakeHandler) delete(c *gin.Context) {
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

func (h *cakeHandler) bind(c *gin.Context) (domain.Cake, bool) {
	var body CakeDTO
	if err := bindJSON(c, &body); err != nil {
		writeError(c, err)
		return domain.Cake{}, false
	}
	cake := body.toDomain()
	if errs := cake.Validate(); len(errs) > 0 {
		writeError(c, validationError(errs))
		return domain.Cake{}, false
	}
	return cake, true
}
