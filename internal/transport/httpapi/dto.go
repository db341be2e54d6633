package httpapi

import (
	"errors"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// CakeDTO — торт на проводе. Image передаётся в base64.
type CakeDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Image       []byte `json:"image,omitempty"`
}

// CustomerDTO — покупатель на проводе. OrdersList заполняется только
// при чтении одного покупателя.
type CustomerDTO struct {
	ID              int64              `json:"id"`
	FirstName       string             `json:"firstName" binding:"required"`
	LastName        string             `json:"lastName" binding:"required"`
	Email           string             `json:"email" binding:"required"`
	DeliveryAddress string             `json:"deliveryAddress" binding:"required"`
	OrdersList      []CustomerOrderDTO `json:"ordersList,omitempty"`
}

// CakeRef — ссылка на торт внутри заказа.
type CakeRef struct {
	ID int64 `json:"id"`
}

// CustomerOrderDTO — заказ на проводе. deliveryDate в формате yyyy-MM-dd.
type CustomerOrderDTO struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name" binding:"required"`
	DeliveryDate string    `json:"deliveryDate" binding:"required"`
	Status       string    `json:"status" binding:"required"`
	CustomerID   int64     `json:"customerId"`
	CakesOrdered []CakeRef `json:"cakesOrdered"`
}

func cakeFromDomain(c domain.Cake) CakeDTO {
	return CakeDTO{ID: c.ID, Name: c.Name, Description: c.Description, Image: c.Image}
}

func (d CakeDTO) toDomain() domain.Cake {
	return domain.Cake{ID: d.ID, Name: d.Name, Description: d.Description, Image: d.Image}
}

func customerFromDomain(c domain.Customer) CustomerDTO {
	return CustomerDTO{
		ID:              c.ID,
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Email:           c.Email,
		DeliveryAddress: c.DeliveryAddress,
	}
}

func (d CustomerDTO) toDomain() domain.Customer {
	return domain.Customer{
		ID:              d.ID,
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Email:           d.Email,
		DeliveryAddress: d.DeliveryAddress,
	}
}

func orderFromDomain(o domain.CustomerOrder) CustomerOrderDTO {
	cakes := make([]CakeRef, 0, len(o.CakeIDs))
	for _, id := range o.CakeIDs {
		cakes = append(cakes, CakeRef{ID: id})
	}
	return CustomerOrderDTO{
		ID:           o.ID,
		Name:         o.Name,
		DeliveryDate: o.DeliveryDate.String(),
		Status:       o.Status,
		CustomerID:   o.CustomerID,
		CakesOrdered: cakes,
	}
}

func ordersFromDomain(orders []domain.CustomerOrder) []CustomerOrderDTO {
	result := make([]CustomerOrderDTO, 0, len(orders))
	for _, o := range orders {
		result = append(result, orderFromDomain(o))
	}
	return result
}

// toDomain разбирает дату доставки; несуществующая дата даёт ErrDeliveryDateInvalid.
func (d CustomerOrderDTO) toDomain() (domain.CustomerOrder, error) {
	order := domain.CustomerOrder{
		ID:         d.ID,
		Name:       d.Name,
		Status:     d.Status,
		CustomerID: d.CustomerID,
	}

	raw := strings.TrimSpace(d.DeliveryDate)
	if raw == "" {
		return domain.CustomerOrder{}, domain.ErrDeliveryDateRequired
	}
	date, err := civil.ParseDate(raw)
	if err != nil {
		return domain.CustomerOrder{}, errors.Join(domain.ErrDeliveryDateInvalid, err)
	}
	order.DeliveryDate = date

	order.CakeIDs = make([]int64, 0, len(d.CakesOrdered))
	for _, ref := range d.CakesOrdered {
		order.CakeIDs = append(order.CakeIDs, ref.ID)
	}
	return order, nil
}
