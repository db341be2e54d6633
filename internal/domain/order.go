package domain

import "cloud.google.com/go/civil"

// CustomerOrder связывает покупателя с набором заказанных тортов.
//
// CakeIDs — мультимножество без порядка: один торт может встречаться несколько раз,
// количество по позициям модель не хранит.
type CustomerOrder struct {
	ID           int64
	Name         string
	DeliveryDate civil.Date
	// Status — произвольная строка, набор значений не фиксирован.
	Status     string
	CustomerID int64
	CakeIDs    []int64
	Version    int64
}

// Validate проверяет обязательные поля заказа.
// Ссылка на покупателя проверяется отдельно: при обновлении она игнорируется.
func (o CustomerOrder) Validate() []error {
	var errs []error
	if isBlank(o.Name) {
		errs = append(errs, ErrNameRequired)
	}
	if isBlank(o.Status) {
		errs = append(errs, ErrStatusRequired)
	}
	if o.DeliveryDate.IsZero() {
		errs = append(errs, ErrDeliveryDateRequired)
	} else if !o.DeliveryDate.IsValid() {
		errs = append(errs, ErrDeliveryDateInvalid)
	}
	return errs
}

// Clone возвращает копию без общих срезов.
func (o CustomerOrder) Clone() CustomerOrder {
	o.CakeIDs = cloneIDs(o.CakeIDs)
	return o
}

func cloneIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	return append(make([]int64, 0, len(ids)), ids...)
}
