package domain

// Функции слияния применяют к текущему сохранённому состоянию только изменяемые поля
// из предложенного. ID и Version всегда берутся из current.

// MergeCake переносит Name и Description. Image не переносится.
func MergeCake(current, proposed Cake) Cake {
	merged := current.Clone()
	merged.Name = proposed.Name
	merged.Description = proposed.Description
	return merged
}

// MergeCustomer переносит имя, фамилию, email и адрес доставки.
func MergeCustomer(current, proposed Customer) Customer {
	merged := current
	merged.FirstName = proposed.FirstName
	merged.LastName = proposed.LastName
	merged.Email = proposed.Email
	merged.DeliveryAddress = proposed.DeliveryAddress
	return merged
}

// MergeCustomerOrder переносит название, статус, дату доставки и набор тортов.
// Привязка к покупателю после создания не меняется, поэтому CustomerID не переносится.
func MergeCustomerOrder(current, proposed CustomerOrder) CustomerOrder {
	merged := current.Clone()
	merged.Name = proposed.Name
	merged.Status = proposed.Status
	merged.DeliveryDate = proposed.DeliveryDate
	merged.CakeIDs = cloneIDs(proposed.CakeIDs)
	return merged
}
