package domain_test

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

func TestMergeCake_OnlyNameAndDescription(t *testing.T) {
	current := domain.Cake{ID: 4, Name: "Old", Description: "Old desc", Image: []byte{1, 2, 3}, Version: 2}
	proposed := domain.Cake{ID: 99, Name: "New", Description: "New desc", Image: []byte{9}, Version: 7}

	merged := domain.MergeCake(current, proposed)

	require.Equal(t, domain.Cake{ID: 4, Name: "New", Description: "New desc", Image: []byte{1, 2, 3}, Version: 2}, merged)

	merged.Image[0] = 42
	require.Equal(t, byte(1), current.Image[0], "merged cake must not share image bytes with current")
}

func TestMergeCake_Idempotent(t *testing.T) {
	current := domain.Cake{ID: 1, Name: "Chocolate Strawberry", Description: "Rich chocolate flavour"}
	proposed := domain.Cake{Name: "Chocolate Strawberry", Description: "Rich chocolate flavour"}

	once := domain.MergeCake(current, proposed)
	twice := domain.MergeCake(once, proposed)

	require.Equal(t, current, once)
	require.Equal(t, once, twice)
}

func TestMergeCustomer(t *testing.T) {
	current := domain.Customer{ID: 3, FirstName: "Ivan", LastName: "Ivanov", Email: "ivan@old", DeliveryAddress: "Old st", Version: 5}
	proposed := domain.Customer{ID: 8, FirstName: "Ivan", LastName: "Petrov", Email: "ivan@new", DeliveryAddress: "New st"}

	merged := domain.MergeCustomer(current, proposed)

	require.Equal(t, domain.Customer{ID: 3, FirstName: "Ivan", LastName: "Petrov", Email: "ivan@new", DeliveryAddress: "New st", Version: 5}, merged)
}

func TestMergeCustomerOrder_KeepsCustomer(t *testing.T) {
	current := domain.CustomerOrder{
		ID:           10,
		Name:         "Wedding",
		DeliveryDate: civil.Date{Year: 2024, Month: 6, Day: 1},
		Status:       "new",
		CustomerID:   3,
		CakeIDs:      []int64{1},
		Version:      1,
	}
	proposed := domain.CustomerOrder{
		ID:           55,
		Name:         "Wedding XL",
		DeliveryDate: civil.Date{Year: 2024, Month: 6, Day: 2},
		Status:       "baking",
		CustomerID:   42,
		CakeIDs:      []int64{2, 2, 5},
	}

	merged := domain.MergeCustomerOrder(current, proposed)

	require.Equal(t, int64(10), merged.ID)
	require.Equal(t, int64(1), merged.Version)
	require.Equal(t, int64(3), merged.CustomerID, "customer association must survive the merge")
	require.Equal(t, "Wedding XL", merged.Name)
	require.Equal(t, "baking", merged.Status)
	require.Equal(t, civil.Date{Year: 2024, Month: 6, Day: 2}, merged.DeliveryDate)
	require.Equal(t, []int64{2, 2, 5}, merged.CakeIDs, "duplicates are kept as-is")

	proposed.CakeIDs[0] = 100
	require.Equal(t, int64(2), merged.CakeIDs[0], "merged order must not share cake ids with proposed")
}

func TestMergeCustomerOrder_EmptyCakeSet(t *testing.T) {
	current := domain.CustomerOrder{ID: 1, CustomerID: 2, CakeIDs: []int64{1, 2}}

	merged := domain.MergeCustomerOrder(current, domain.CustomerOrder{Name: "x", Status: "y"})

	require.Empty(t, merged.CakeIDs)
	require.Equal(t, []int64{1, 2}, current.CakeIDs)
}
