package domain

import "strings"

// Customer описывает покупателя. Список его заказов не хранится на записи,
// а вычисляется запросом OrderRepository.ListByCustomer.
type Customer struct {
	ID              int64
	FirstName       string
	LastName        string
	Email           string
	DeliveryAddress string
	Version         int64
}

// Validate проверяет обязательные поля покупателя.
func (c Customer) Validate() []error {
	var errs []error
	if isBlank(c.FirstName) {
		errs = append(errs, ErrFirstNameRequired)
	}
	if isBlank(c.LastName) {
		errs = append(errs, ErrLastNameRequired)
	}
	if isBlank(c.Email) {
		errs = append(errs, ErrEmailRequired)
	}
	if isBlank(c.DeliveryAddress) {
		errs = append(errs, ErrDeliveryAddressRequired)
	}
	return errs
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
