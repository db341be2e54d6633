package domain

import "context"

// CakeRepository описывает требования к хранилищу тортов.
type CakeRepository interface {
	// Create сохраняет новый торт; идентификатор назначает хранилище, ID во входе игнорируется.
	Create(ctx context.Context, cake Cake) (Cake, error)
	// Get возвращает торт по идентификатору или ErrCakeNotFound.
	Get(ctx context.Context, id int64) (Cake, error)
	// Save перезаписывает торт под cake.ID с учётом optimistic locking.
	Save(ctx context.Context, cake Cake) (Cake, error)
	// Delete удаляет торт; отсутствие записи не считается ошибкой.
	Delete(ctx context.Context, id int64) error
	// List возвращает все торты в порядке возрастания ID.
	List(ctx context.Context) ([]Cake, error)
}

// CustomerRepository описывает требования к хранилищу покупателей.
type CustomerRepository interface {
	Create(ctx context.Context, customer Customer) (Customer, error)
	// Get возвращает покупателя или ErrCustomerNotFound.
	Get(ctx context.Context, id int64) (Customer, error)
	Save(ctx context.Context, customer Customer) (Customer, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]Customer, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	Create(ctx context.Context, order CustomerOrder) (CustomerOrder, error)
	// Get возвращает заказ или ErrOrderNotFound.
	Get(ctx context.Context, id int64) (CustomerOrder, error)
	Save(ctx context.Context, order CustomerOrder) (CustomerOrder, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]CustomerOrder, error)
	// ListByCustomer возвращает заказы покупателя — производное представление «заказы клиента».
	ListByCustomer(ctx context.Context, customerID int64) ([]CustomerOrder, error)
}

// IDReserver — необязательная возможность хранилища: после ReserveID(id)
// Create больше не выдаёт идентификаторы, не превышающие id.
// Нужна, чтобы update отсутствующей записи не вернул запрошенный id.
type IDReserver interface {
	ReserveID(ctx context.Context, id int64) error
}
