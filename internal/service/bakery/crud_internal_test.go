package bakery

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// countingCakes фиксирует обращения к хранилищу и позволяет подменять ошибки.
type countingCakes struct {
	stored  map[int64]domain.Cake
	getErr  error
	saveErr error

	creates, saves int
	reserved       []int64
}

func (c *countingCakes) ReserveID(_ context.Context, id int64) error {
	c.reserved = append(c.reserved, id)
	return nil
}

func (c *countingCakes) Create(_ context.Context, cake domain.Cake) (domain.Cake, error) {
	c.creates++
	cake.ID = int64(100 + c.creates)
	cake.Version = 1
	c.stored[cake.ID] = cake
	return cake, nil
}

func (c *countingCakes) Get(_ context.Context, id int64) (domain.Cake, error) {
	if c.getErr != nil {
		return domain.Cake{}, c.getErr
	}
	cake, ok := c.stored[id]
	if !ok {
		return domain.Cake{}, domain.ErrCakeNotFound
	}
	return cake, nil
}

func (c *countingCakes) Save(_ context.Context, cake domain.Cake) (domain.Cake, error) {
	c.saves++
	if c.saveErr != nil {
		return domain.Cake{}, c.saveErr
	}
	cake.Version++
	c.stored[cake.ID] = cake
	return cake, nil
}

func (c *countingCakes) Delete(_ context.Context, id int64) error {
	delete(c.stored, id)
	return nil
}

func (c *countingCakes) List(_ context.Context) ([]domain.Cake, error) {
	return nil, nil
}

func TestUpdate_MergedPathWritesExactlyOnce(t *testing.T) {
	repo := &countingCakes{stored: map[int64]domain.Cake{
		1: {ID: 1, Name: "Napoleon", Description: "Layered", Version: 3},
	}}
	svc := NewCakeService(repo)

	updated, err := svc.Update(context.Background(), 1, domain.Cake{ID: 9, Name: "Napoleon", Description: "Extra layered"})
	require.NoError(t, err)
	require.Equal(t, 1, repo.saves)
	require.Zero(t, repo.creates)
	require.Empty(t, repo.reserved)
	require.Equal(t, int64(1), updated.ID)
	require.Equal(t, int64(4), updated.Version)
}

func TestUpdate_NotFoundCreatesWithoutSave(t *testing.T) {
	repo := &countingCakes{stored: map[int64]domain.Cake{}}
	svc := NewCakeService(repo)

	created, err := svc.Update(context.Background(), 5, domain.Cake{ID: 5, Name: "Medovik", Description: "Honey"})
	require.NoError(t, err)
	require.Zero(t, repo.saves)
	require.Equal(t, 1, repo.creates)
	require.Equal(t, []int64{5}, repo.reserved)
	require.NotEqual(t, int64(5), created.ID)
}

func TestUpdate_StorageErrorsPropagateUnmodified(t *testing.T) {
	storageErr := errors.New("connection reset")

	t.Run("lookup", func(t *testing.T) {
		repo := &countingCakes{stored: map[int64]domain.Cake{}, getErr: storageErr}
		svc := NewCakeService(repo)

		_, err := svc.Update(context.Background(), 1, domain.Cake{Name: "a", Description: "b"})
		require.Same(t, storageErr, err)
		require.Zero(t, repo.creates, "a failed lookup must not fall back to create")
	})

	t.Run("save", func(t *testing.T) {
		repo := &countingCakes{
			stored:  map[int64]domain.Cake{1: {ID: 1, Name: "a", Description: "b", Version: 1}},
			saveErr: domain.ErrVersionConflict,
		}
		svc := NewCakeService(repo)

		_, err := svc.Update(context.Background(), 1, domain.Cake{Name: "c", Description: "d"})
		require.ErrorIs(t, err, domain.ErrVersionConflict)
		require.Equal(t, 1, repo.saves, "no retries")
	})
}

func TestGet_StorageErrorIsNotAbsence(t *testing.T) {
	storageErr := errors.New("timeout")
	svc := NewCakeService(&countingCakes{stored: map[int64]domain.Cake{}, getErr: storageErr})

	_, found, err := svc.Get(context.Background(), 1)
	require.False(t, found)
	require.Same(t, storageErr, err)
}
