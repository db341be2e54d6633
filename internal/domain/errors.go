package domain

import "errors"

var (
	// ErrCakeNotFound возвращается, если торт не найден в хранилище.
	ErrCakeNotFound = errors.New("cake not found")
	// ErrCustomerNotFound возвращается, если покупатель не найден в хранилище.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("customer order not found")
	// ErrVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrVersionConflict = errors.New("version conflict")
	// ErrReferenceViolation возвращается хранилищем, если запись ссылается на
	// несуществующую сущность или удаляемая сущность ещё используется заказом.
	ErrReferenceViolation = errors.New("reference constraint violated")

	// Ошибка отсутствующего названия (торт, заказ).
	ErrNameRequired = errors.New("name is required")
	// Ошибка отсутствующего описания торта.
	ErrDescriptionRequired = errors.New("description is required")
	// Ошибка отсутствующего имени покупателя.
	ErrFirstNameRequired = errors.New("first name is required")
	// Ошибка отсутствующей фамилии покупателя.
	ErrLastNameRequired = errors.New("last name is required")
	// Ошибка отсутствующего email покупателя.
	ErrEmailRequired = errors.New("email is required")
	// Ошибка отсутствующего адреса доставки покупателя.
	ErrDeliveryAddressRequired = errors.New("delivery address is required")
	// Ошибка отсутствующего статуса заказа.
	ErrStatusRequired = errors.New("status is required")
	// Ошибка отсутствующей даты доставки.
	ErrDeliveryDateRequired = errors.New("delivery date is required")
	// Ошибка несуществующей календарной даты (например, 31 февраля).
	ErrDeliveryDateInvalid = errors.New("delivery date is invalid")
	// Ошибка отсутствующего идентификатора покупателя при создании заказа.
	ErrCustomerRequired = errors.New("customer id is required")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsNotFound проверяет, является ли ошибка отсутствием любой из сущностей.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCakeNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsReferenceViolation проверяет, нарушено ли ограничение ссылочной целостности хранилища.
func IsReferenceViolation(err error) bool {
	return errors.Is(err, ErrReferenceViolation)
}

// IsValidation проверяет, относится ли ошибка к нарушению обязательных полей.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var validationErrors = []error{
	ErrNameRequired,
	ErrDescriptionRequired,
	ErrFirstNameRequired,
	ErrLastNameRequired,
	ErrEmailRequired,
	ErrDeliveryAddressRequired,
	ErrStatusRequired,
	ErrDeliveryDateRequired,
	ErrDeliveryDateInvalid,
	ErrCustomerRequired,
}
