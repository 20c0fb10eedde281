package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cppla/caltrack/models"
)

// MemoryRepository keeps everything in process. It enforces the same date uniqueness,
// foreign key and cascade rules as the SQL schema, which makes it suitable for local runs and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[int64]models.DailyCalorieEntry
	items   map[int64]models.FoodItem
	nextID  struct{ entry, item int64 }
	now     func() time.Time
}

// NewMemoryRepository creates an empty store using the wall clock.
func NewMemoryRepository() *MemoryRepository {
	return NewMemoryRepositoryWithClock(time.Now)
}

// NewMemoryRepositoryWithClock creates an empty store whose timestamps come from now.
func NewMemoryRepositoryWithClock(now func() time.Time) *MemoryRepository {
	return &MemoryRepository{
		entries: map[int64]models.DailyCalorieEntry{},
		items:   map[int64]models.FoodItem{},
		now:     now,
	}
}

func (m *MemoryRepository) CreateEntry(ctx context.Context, entry *models.DailyCalorieEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	date := models.NormalizeDate(entry.Date)
	for _, e := range m.entries {
		if e.Date.Equal(date) {
			return ErrDuplicateDate
		}
	}

	m.nextID.entry++
	now := m.now()
	entry.ID = m.nextID.entry
	entry.Date = date
	entry.CreatedAt = now
	entry.UpdatedAt = now
	entry.FoodItems = nil
	m.entries[entry.ID] = *entry
	return nil
}

func (m *MemoryRepository) FindEntryByID(ctx context.Context, id int64) (*models.DailyCalorieEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *MemoryRepository) FindEntryByDate(ctx context.Context, date time.Time) (*models.DailyCalorieEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	date = models.NormalizeDate(date)
	for _, e := range m.entries {
		if e.Date.Equal(date) {
			found := e
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) ListEntries(ctx context.Context) ([]models.DailyCalorieEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.DailyCalorieEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (m *MemoryRepository) UpdateEntry(ctx context.Context, id int64, totalCalories *int) (*models.DailyCalorieEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	if totalCalories != nil {
		e.TotalCalories = *totalCalories
	}
	e.UpdatedAt = m.now()
	m.entries[id] = e
	return &e, nil
}

func (m *MemoryRepository) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return false, nil
	}
	for itemID, it := range m.items {
		if it.DailyEntryID == id {
			delete(m.items, itemID)
		}
	}
	delete(m.entries, id)
	return true, nil
}

func (m *MemoryRepository) CreateFoodItem(ctx context.Context, item *models.FoodItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[item.DailyEntryID]; !ok {
		return ErrMissingParent
	}

	m.nextID.item++
	item.ID = m.nextID.item
	item.CreatedAt = m.now()
	m.items[item.ID] = *item
	return nil
}

func (m *MemoryRepository) FindFoodItemByID(ctx context.Context, id int64) (*models.FoodItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &it, nil
}

func (m *MemoryRepository) ListFoodItems(ctx context.Context, entryID int64) ([]models.FoodItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.FoodItem{}
	for _, it := range m.items {
		if it.DailyEntryID == entryID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryRepository) UpdateFoodItem(ctx context.Context, id int64, patch models.FoodItemPatch) (*models.FoodItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(&it)
	m.items[id] = it
	return &it, nil
}

func (m *MemoryRepository) DeleteFoodItem(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return false, nil
	}
	delete(m.items, id)
	return true, nil
}

func (m *MemoryRepository) Stats(ctx context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{EntryCount: int64(len(m.entries)), FoodItemCount: int64(len(m.items))}
	for _, e := range m.entries {
		s.TotalCaloriesSum += int64(e.TotalCalories)
	}
	for _, it := range m.items {
		s.FoodItemCaloriesSum += int64(it.Calories)
	}
	return s, nil
}

func (m *MemoryRepository) Close() error {
	return nil
}
