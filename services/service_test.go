package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cppla/caltrack/models"
	"github.com/cppla/caltrack/repository"
	"github.com/cppla/caltrack/utils"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (c *mapCache) GetJSON(_ context.Context, key string, dst interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	return ok && json.Unmarshal(b, dst) == nil
}

func (c *mapCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, _ := json.Marshal(v)
	c.data[key] = b
	c.sets++
}

func (c *mapCache) InvalidateByPrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
}

func (c *mapCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickingClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestService(t *testing.T, opts Options) (*CalorieService, *repository.MemoryRepository) {
	t.Helper()
	clock := &tickingClock{t: time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)}
	repo := repository.NewMemoryRepositoryWithClock(clock.now)
	return NewCalorieService(repo, opts), repo
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestCreateEntryNormalizesDateAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	loc := time.FixedZone("UTC+2", 2*3600)
	entry, err := svc.CreateEntry(ctx, CreateEntryInput{Date: time.Date(2024, time.January, 15, 9, 0, 0, 0, loc), TotalCalories: 2000})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", models.FormatDate(entry.Date))
	assert.True(t, entry.Date.Equal(day(15)))
	assert.Equal(t, 2000, entry.TotalCalories)
	assert.Equal(t, entry.CreatedAt, entry.UpdatedAt)

	_, err = svc.CreateEntry(ctx, CreateEntryInput{Date: day(15).Add(20 * time.Hour), TotalCalories: 100})
	var dup *DuplicateDateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "daily calorie entry for date 2024-01-15 already exists", err.Error())

	list, err := svc.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCreateEntryValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	_, err := svc.CreateEntry(ctx, CreateEntryInput{Date: day(1), TotalCalories: -1})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "total_calories", verr.Field)

	_, err = svc.CreateEntry(ctx, CreateEntryInput{TotalCalories: 10})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)

	entry, err := svc.CreateEntry(ctx, CreateEntryInput{Date: day(1), TotalCalories: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, entry.TotalCalories)
}

func TestListEntriesNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	for _, in := range []CreateEntryInput{
		{Date: day(1), TotalCalories: 1800},
		{Date: day(3), TotalCalories: 2000},
		{Date: day(2), TotalCalories: 1900},
	} {
		_, err := svc.CreateEntry(ctx, in)
		require.NoError(t, err)
	}

	list, err := svc.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{2000, 1900, 1800}, []int{list[0].TotalCalories, list[1].TotalCalories, list[2].TotalCalories})
}

func TestListEntriesEmptyIsNotNil(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	list, err := svc.ListEntries(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestGetEntryWithFoodItems(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	missing, err := svc.GetEntryWithFoodItems(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	entry, err := svc.CreateEntry(ctx, CreateEntryInput{Date: day(15), TotalCalories: 2000})
	require.NoError(t, err)

	view, err := svc.GetEntryWithFoodItems(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.NotNil(t, view.FoodItems)
	assert.Empty(t, view.FoodItems)

	for _, name := range []string{"Oatmeal", "Banana", "Coffee"} {
		_, err := svc.CreateFoodItem(ctx, CreateFoodItemInput{DailyEntryID: entry.ID, FoodName: name, Calories: 100})
		require.NoError(t, err)
	}

	view, err = svc.GetEntryWithFoodItems(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, view.FoodItems, 3)
	assert.Equal(t, "Oatmeal", view.FoodItems[0].FoodName)
	assert.Equal(t, "Coffee", view.FoodItems[2].FoodName)
	assert.Equal(t, entry.ID, view.ID)
}

func TestUpdateEntry(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	missing, err := svc.UpdateEntry(ctx, UpdateEntryInput{ID: 42, TotalCalories: intPtr(10)})
	require.NoError(t, err)
	assert.Nil(t, missing)

	entry, err := svc.CreateEntry(ctx, CreateEntryInput{Date: day(15), TotalCalories: 2000})
	require.NoError(t, err)

	touched, err := svc.UpdateEntry(ctx, UpdateEntryInput{ID: entry.ID})
	require.NoError(t, err)
	assert.Equal(t, 2000, touched.TotalCalories)
	assert.True(t, touched.UpdatedAt.After(entry.UpdatedAt))

	updated, err := svc.UpdateEntry(ctx, UpdateEntryInput{ID: entry.ID, TotalCalories: intPtr(2500)})
	require.NoError(t, err)
	assert.Equal(t, 2500, updated.TotalCalories)
	assert.True(t, updated.Date.Equal(entry.Date))
	assert.True(t, updated.UpdatedAt.After(touched.UpdatedAt))

	_, err = svc.UpdateEntry(ctx, UpdateEntryInput{ID: entry.ID, TotalCalories: intPtr(-5)})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCreateFoodItem(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	_, err := svc.CreateFoodItem(ctx, CreateFoodItemInput{DailyEntryID: 7, FoodName: "Toast", Calories: 80})
	var perr *ParentNotFoundError
	require.ErrorAs(t, err, &perr)
	assert.EqualValues(t, 7, perr.EntryID)

	entry, err := svc.CreateEntry(ctx, CreateEntryInput{Date: day(15), TotalCalories: 2000})
	require.NoError(t, err)

	item, err := svc.CreateFoodItem(ctx, CreateFoodItemInput{DailyEntryID: entry.ID, FoodName: "Fish & Chips", Calories: 0})
	require.NoError(t, err)
	assert.Equal(t, "Fish & Chips", item.FoodName)
	assert.Equal(t, entry.ID, item.DailyEntryID)
	assert.False(t, item.CreatedAt.IsZero())

	var verr *ValidationError
	for _, in := range []CreateFoodItemInput{
		{DailyEntryID: entry.ID, FoodName: "", Calories: 10},
		{DailyEntryID: entry.ID, FoodName: "Toast", Calories: -1},
	} {
		_, err := svc.CreateFoodItem(ctx, in)
		assert.ErrorAs(t, err, &verr, in.FoodName)
	}

	for _, name := range []string{"   ", "Pasta <homemade>", "<b>Toast</b>"} {
		item, err := svc.CreateFoodItem(ctx, CreateFoodItemInput{DailyEntryID: entry.ID, FoodName: name, Calories: 10})
		require.NoError(t, err, name)
		assert.Equal(t, name, item.FoodName)
	}
}

func TestListFoodItemsUnknownEntryIsEmpty(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	items, err := svc.ListFoodItems(context.Background(), 404)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestUpdateFoodItemOutcomes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, Options{})

	entry, err := svc.CreateEntry(ctx, CreateEntryInput{Date: day(15), TotalCalories: 2000})
	require.NoError(t, err)
	item, err := svc.CreateFoodItem(ctx, CreateFoodItemInput{DailyEntryID: entry.ID, FoodName: "Toast", Calories: 80})
	require.NoError(t, err)

	got, outcome, err := svc.UpdateFoodItem(ctx, UpdateFoodItemInput{ID: item.ID})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, Unchanged, outcome)

	got, outcome, err = svc.UpdateFoodItem(ctx, UpdateFoodItemInput{ID: 999, Calories: intPtr(1)})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, NotFound, outcome)

	got, outcome, err = svc.UpdateFoodItem(ctx, UpdateFoodItemInput{ID: 999})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, NotFound, outcome)

	got, outcome, err = svc.UpdateFoodItem(ctx, UpdateFoodItemInput{ID: item.ID, Calories: intPtr(120)})
	require.NoError(t, err)
	assert.Equal(t, Updated, outcome)
	assert.Equal(t, "Toast", got.FoodName)
	assert.Equal(t, 120, got.Calories)
	assert.True(t, got.CreatedAt.Equal(item.CreatedAt))

	got, _, err = svc.UpdateFoodItem(ctx, UpdateFoodItemInput{ID: item.ID, FoodName: strPtr("Rye toast")})
	require.NoError(t, err)
	assert.Equal(t, "Rye toast", got.FoodName)
	assert.Equal(t, 120, got.Calories)

	_, _, err = svc.UpdateFoodItem(ctx, UpdateFoodItemInput{ID: item.ID, FoodName: strPtr("")})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.Equal(t, "unchanged", Unchanged.String())
}

func TestDeleteFoodItemAndEntryCascade(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t, Options{})

	entry, err := svc.CreateEntry(ctx, CreateEntryInput{Date: day(15), TotalCalories: 2000})
	require.NoError(t, err)
	a, err := svc.CreateFoodItem(ctx, CreateFoodItemInput{DailyEntryID: entry.ID, FoodName: "Apple", Calories: 50})
	require.NoError(t, err)
	_, err = svc.CreateFoodItem(ctx, CreateFoodItemInput{DailyEntryID: entry.ID, FoodName: "Pear", Calories: 60})
	require.NoError(t, err)

	ok, err := svc.DeleteFoodItem(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.DeleteFoodItem(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.DeleteEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.EntryCount)
	assert.Zero(t, stats.FoodItemCount)

	ok, err = svc.DeleteEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheIsInvalidatedByMutations(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	svc, _ := newTestService(t, Options{Cache: cache})

	entry, err := svc.CreateEntry(ctx, CreateEntryInput{Date: day(15), TotalCalories: 2000})
	require.NoError(t, err)

	_, err = svc.ListEntries(ctx)
	require.NoError(t, err)
	_, err = svc.GetEntryWithFoodItems(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.len())

	_, err = svc.CreateFoodItem(ctx, CreateFoodItemInput{DailyEntryID: entry.ID, FoodName: "Soup", Calories: 300})
	require.NoError(t, err)
	assert.Equal(t, 0, cache.len())

	view, err := svc.GetEntryWithFoodItems(ctx, entry.ID)
	require.NoError(t, err)
	assert.Len(t, view.FoodItems, 1)

	// Served from cache the second time.
	sets := cache.sets
	again, err := svc.GetEntryWithFoodItems(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, sets, cache.sets)
	assert.Equal(t, "Soup", again.FoodItems[0].FoodName)

	_, err = svc.UpdateEntry(ctx, UpdateEntryInput{ID: entry.ID, TotalCalories: intPtr(1)})
	require.NoError(t, err)
	list, err := svc.ListEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, list[0].TotalCalories)
}

// pausingRepo holds ListEntries after the read until release is closed.
type pausingRepo struct {
	repository.Repository
	read    chan struct{}
	release chan struct{}
}

func (r *pausingRepo) ListEntries(ctx context.Context) ([]models.DailyCalorieEntry, error) {
	entries, err := r.Repository.ListEntries(ctx)
	if r.read != nil {
		close(r.read)
		r.read = nil
		<-r.release
	}
	return entries, err
}

func TestSlowReadDoesNotCacheOverInvalidation(t *testing.T) {
	ctx := context.Background()
	cache := newMapCache()
	clock := &tickingClock{t: time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)}
	repo := &pausingRepo{
		Repository: repository.NewMemoryRepositoryWithClock(clock.now),
		read:       make(chan struct{}),
		release:    make(chan struct{}),
	}
	svc := NewCalorieService(repo, Options{Cache: cache})
	read := repo.read

	done := make(chan []models.DailyCalorieEntry)
	go func() {
		entries, err := svc.ListEntries(ctx)
		assert.NoError(t, err)
		done <- entries
	}()

	<-read
	_, err := svc.CreateEntry(ctx, CreateEntryInput{Date: day(15), TotalCalories: 2000})
	require.NoError(t, err)
	close(repo.release)

	stale := <-done
	assert.Empty(t, stale)
	assert.Equal(t, 0, cache.len())

	list, err := svc.ListEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type failingRepo struct {
	repository.Repository
}

func (failingRepo) ListEntries(context.Context) ([]models.DailyCalorieEntry, error) {
	return nil, errors.New("connection refused")
}

func TestFailuresAreLoggedByKind(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := utils.WithRequestID(context.Background(), "req-1")

	svc := NewCalorieService(failingRepo{repository.NewMemoryRepository()}, Options{Logger: zap.New(core)})
	_, err := svc.ListEntries(ctx)
	require.Error(t, err)

	_, err = svc.CreateEntry(ctx, CreateEntryInput{Date: day(1), TotalCalories: -3})
	require.Error(t, err)

	all := logs.All()
	require.Len(t, all, 2)
	assert.Equal(t, zapcore.ErrorLevel, all[0].Level)
	assert.Equal(t, "list_entries", all[0].ContextMap()["op"])
	assert.Equal(t, "req-1", all[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.WarnLevel, all[1].Level)
}
