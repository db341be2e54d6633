package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

// accessors описывает, как таблица читает и проставляет служебные поля сущности.
type accessors[T any] struct {
	id      func(T) int64
	version func(T) int64
	// stamp возвращает копию сущности с заданными ID и версией.
	stamp func(T, int64, int64) T
}

// table — общая in-memory таблица с последовательностью идентификаторов.
// Ограничений ссылочной целостности здесь нет.
type table[T any] struct {
	mu       sync.RWMutex
	seq      int64
	items    map[int64]T
	acc      accessors[T]
	notFound error
}

func newTable[T any](acc accessors[T], notFound error) *table[T] {
	return &table[T]{
		items:    make(map[int64]T),
		acc:      acc,
		notFound: notFound,
	}
}

// create назначает новый идентификатор, игнорируя ID во входе.
func (t *table[T]) create(entity T) T {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	stored := t.acc.stamp(entity, t.seq, 1)
	t.items[t.seq] = stored
	return t.acc.stamp(stored, t.seq, 1)
}

// reserve сдвигает последовательность так, что create больше не выдаст id
// и меньшие значения.
func (t *table[T]) reserve(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id > t.seq {
		t.seq = id
	}
}

func (t *table[T]) get(id int64) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entity, ok := t.items[id]
	if !ok {
		var zero T
		return zero, t.notFound
	}
	return t.acc.stamp(entity, id, t.acc.version(entity)), nil
}

// save перезаписывает запись, проверяя версию (optimistic locking).
func (t *table[T]) save(entity T) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	id := t.acc.id(entity)
	current, ok := t.items[id]
	if !ok {
		return zero, t.notFound
	}
	if t.acc.version(current) != t.acc.version(entity) {
		return zero, domain.ErrVersionConflict
	}

	next := t.acc.version(entity) + 1
	stored := t.acc.stamp(entity, id, next)
	t.items[id] = stored
	return t.acc.stamp(stored, id, next), nil
}

func (t *table[T]) delete(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.items, id)
}

// list возвращает копии всех записей, отфильтрованные keep (если задан), по возрастанию ID.
func (t *table[T]) list(keep func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int64, 0, len(t.items))
	for id, entity := range t.items {
		if keep != nil && !keep(entity) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]T, 0, len(ids))
	for _, id := range ids {
		entity := t.items[id]
		result = append(result, t.acc.stamp(entity, id, t.acc.version(entity)))
	}
	return result
}
