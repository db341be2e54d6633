package domain

// Cake — позиция каталога кондитерской, на которую ссылаются заказы.
type Cake struct {
	// ID назначается хранилищем при создании; 0 означает «ещё не сохранён».
	ID          int64
	Name        string
	Description string
	// Image — зарезервированный слот под изображение. В слиянии не участвует.
	Image []byte
	// Version используется хранилищем для optimistic locking.
	Version int64
}

// Validate проверяет обязательные поля торта.
func (c Cake) Validate() []error {
	var errs []error
	if isBlank(c.Name) {
		errs = append(errs, ErrNameRequired)
	}
	if isBlank(c.Description) {
		errs = append(errs, ErrDescriptionRequired)
	}
	return errs
}

// Clone возвращает копию без общих срезов.
func (c Cake) Clone() Cake {
	if c.Image != nil {
		c.Image = append([]byte(nil), c.Image...)
	}
	return c
}
