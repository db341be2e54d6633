package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

func integrationCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestCakeRepository_PostgresLifecycle(t *testing.T) {
	store := bakeryIntegrationStore(t)
	repo := NewCakeRepository(store)
	ctx := integrationCtx(t)

	created, err := repo.Create(ctx, domain.Cake{
		ID:          77,
		Name:        "Chocolate Strawberry",
		Description: "Rich chocolate flavour",
		Image:       []byte{0xCA, 0xFE},
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, int64(1), created.Version)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)

	got.Description = "Even richer"
	saved, err := repo.Save(ctx, got)
	require.NoError(t, err)
	require.Equal(t, int64(2), saved.Version)

	_, err = repo.Save(ctx, got)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	_, err = repo.Save(ctx, domain.Cake{ID: created.ID + 1000, Name: "x", Description: "y", Version: 1})
	require.ErrorIs(t, err, domain.ErrCakeNotFound)

	require.NoError(t, repo.Delete(ctx, created.ID))
	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.Get(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrCakeNotFound)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestRepositories_PostgresReserveIDAdvancesSequence(t *testing.T) {
	store := bakeryIntegrationStore(t)
	ctx := integrationCtx(t)

	cakes := NewCakeRepository(store)
	require.NoError(t, cakes.(domain.IDReserver).ReserveID(ctx, 1))
	cake, err := cakes.Create(ctx, domain.Cake{Name: "Praga", Description: "Chocolate"})
	require.NoError(t, err)
	require.Greater(t, cake.ID, int64(1))

	require.NoError(t, cakes.(domain.IDReserver).ReserveID(ctx, 1))
	next, err := cakes.Create(ctx, domain.Cake{Name: "Medovik", Description: "Honey"})
	require.NoError(t, err)
	require.Equal(t, cake.ID+1, next.ID, "sequence never moves backwards")

	customers := NewCustomerRepository(store)
	require.NoError(t, customers.(domain.IDReserver).ReserveID(ctx, 10))
	customer, err := customers.Create(ctx, domain.Customer{
		FirstName:       "Anna",
		LastName:        "Petrova",
		Email:           "anna@example.com",
		DeliveryAddress: "Nevsky 1",
	})
	require.NoError(t, err)
	require.Greater(t, customer.ID, int64(10))

	orders := NewOrderRepository(store)
	require.NoError(t, orders.(domain.IDReserver).ReserveID(ctx, 3))
	order, err := orders.Create(ctx, domain.CustomerOrder{
		Name:         "Birthday",
		DeliveryDate: civil.Date{Year: 2024, Month: 5, Day: 17},
		Status:       "new",
		CustomerID:   customer.ID,
		CakeIDs:      []int64{cake.ID},
	})
	require.NoError(t, err)
	require.Greater(t, order.ID, int64(3))
}

func TestCustomerRepository_PostgresLifecycle(t *testing.T) {
	store := bakeryIntegrationStore(t)
	repo := NewCustomerRepository(store)
	ctx := integrationCtx(t)

	first, err := repo.Create(ctx, domain.Customer{FirstName: "Anna", LastName: "Petrova", Email: "anna@example.com", DeliveryAddress: "Nevsky 1"})
	require.NoError(t, err)
	second, err := repo.Create(ctx, domain.Customer{FirstName: "Oleg", LastName: "Sidorov", Email: "oleg@example.com", DeliveryAddress: "Liteyny 2"})
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	first.Email = "anna@new.example.com"
	saved, err := repo.Save(ctx, first)
	require.NoError(t, err)
	require.Equal(t, "anna@new.example.com", saved.Email)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, saved, all[0])
}

func TestOrderRepository_PostgresCakesAndCustomerView(t *testing.T) {
	store := bakeryIntegrationStore(t)
	cakes := NewCakeRepository(store)
	customers := NewCustomerRepository(store)
	orders := NewOrderRepository(store)
	ctx := integrationCtx(t)

	napoleon, err := cakes.Create(ctx, domain.Cake{Name: "Napoleon", Description: "Layered"})
	require.NoError(t, err)
	medovik, err := cakes.Create(ctx, domain.Cake{Name: "Medovik", Description: "Honey"})
	require.NoError(t, err)
	customer, err := customers.Create(ctx, domain.Customer{FirstName: "Anna", LastName: "Petrova", Email: "a@b", DeliveryAddress: "Nevsky 1"})
	require.NoError(t, err)

	created, err := orders.Create(ctx, domain.CustomerOrder{
		Name:         "Birthday",
		DeliveryDate: civil.Date{Year: 2024, Month: 5, Day: 17},
		Status:       "new",
		CustomerID:   customer.ID,
		CakeIDs:      []int64{medovik.ID, napoleon.ID, medovik.ID},
	})
	require.NoError(t, err)

	got, err := orders.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, []int64{medovik.ID, napoleon.ID, medovik.ID}, got.CakeIDs, "order and duplicates survive a round trip")
	require.Equal(t, civil.Date{Year: 2024, Month: 5, Day: 17}, got.DeliveryDate)

	got.CakeIDs = []int64{napoleon.ID}
	got.Status = "baking"
	saved, err := orders.Save(ctx, got)
	require.NoError(t, err)
	require.Equal(t, int64(2), saved.Version)

	view, err := orders.ListByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, view, 1)
	require.Equal(t, []int64{napoleon.ID}, view[0].CakeIDs)
	require.Equal(t, "baking", view[0].Status)

	err = cakes.Delete(ctx, napoleon.ID)
	require.True(t, errors.Is(err, domain.ErrReferenceViolation), "cake used by an order is guarded by the FK: %v", err)

	require.NoError(t, orders.Delete(ctx, created.ID))
	require.NoError(t, cakes.Delete(ctx, napoleon.ID))

	view, err = orders.ListByCustomer(ctx, customer.ID)
	require.NoError(t, err)
	require.Empty(t, view)
}

func TestOrderRepository_PostgresReferenceViolations(t *testing.T) {
	store := bakeryIntegrationStore(t)
	customers := NewCustomerRepository(store)
	orders := NewOrderRepository(store)
	ctx := integrationCtx(t)

	base := domain.CustomerOrder{
		Name:         "Wedding",
		DeliveryDate: civil.Date{Year: 2024, Month: 6, Day: 1},
		Status:       "new",
		CustomerID:   999,
	}
	_, err := orders.Create(ctx, base)
	require.ErrorIs(t, err, domain.ErrReferenceViolation)

	customer, err := customers.Create(ctx, domain.Customer{FirstName: "A", LastName: "B", Email: "c", DeliveryAddress: "d"})
	require.NoError(t, err)

	base.CustomerID = customer.ID
	base.CakeIDs = []int64{12345}
	_, err = orders.Create(ctx, base)
	require.ErrorIs(t, err, domain.ErrReferenceViolation)

	all, err := orders.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all, "failed order writes must roll back")
}
