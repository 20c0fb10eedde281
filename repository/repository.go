// Package repository is the data-access layer for daily calorie entries and their food items.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cppla/caltrack/models"
)

var (
	// ErrNotFound is returned when a keyed lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateDate is returned when an insert would create a second entry for a date.
	ErrDuplicateDate = errors.New("daily calorie entry date already exists")
	// ErrMissingParent is returned when a food item references an entry that does not exist.
	ErrMissingParent = errors.New("daily calorie entry does not exist")
)

// Stats aggregates table level counters.
type Stats struct {
	EntryCount          int64 `json:"entry_count"`
	FoodItemCount       int64 `json:"food_item_count"`
	TotalCaloriesSum    int64 `json:"total_calories_sum"`
	FoodItemCaloriesSum int64 `json:"food_item_calories_sum"`
}

// Repository abstracts the store so gorm and memory backends are interchangeable.
type Repository interface {
	CreateEntry(ctx context.Context, entry *models.DailyCalorieEntry) error
	FindEntryByID(ctx context.Context, id int64) (*models.DailyCalorieEntry, error)
	FindEntryByDate(ctx context.Context, date time.Time) (*models.DailyCalorieEntry, error)
	ListEntries(ctx context.Context) ([]models.DailyCalorieEntry, error)
	// UpdateEntry refreshes updated_at and sets total_calories when non-nil.
	UpdateEntry(ctx context.Context, id int64, totalCalories *int) (*models.DailyCalorieEntry, error)
	// DeleteEntry removes the entry together with its food items.
	DeleteEntry(ctx context.Context, id int64) (bool, error)

	CreateFoodItem(ctx context.Context, item *models.FoodItem) error
	FindFoodItemByID(ctx context.Context, id int64) (*models.FoodItem, error)
	// ListFoodItems returns the items of an entry ordered by creation time, then id.
	ListFoodItems(ctx context.Context, entryID int64) ([]models.FoodItem, error)
	UpdateFoodItem(ctx context.Context, id int64, patch models.FoodItemPatch) (*models.FoodItem, error)
	DeleteFoodItem(ctx context.Context, id int64) (bool, error)

	Stats(ctx context.Context) (Stats, error)
	Close() error
}

var (
	_ Repository = (*GormRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
