package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/caltrack/models"
)

// GormRepository stores entries and food items in MySQL or PostgreSQL through gorm.
// The DB handle should be opened with TranslateError so constraint violations map to gorm sentinels.
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRepository wraps an opened gorm handle. The repository owns it from now on.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db, now: time.Now}
}

func (r *GormRepository) CreateEntry(ctx context.Context, entry *models.DailyCalorieEntry) error {
	now := r.now()
	entry.Date = models.NormalizeDate(entry.Date)
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateDate
		}
		return fmt.Errorf("create daily calorie entry: %w", err)
	}
	return nil
}

func (r *GormRepository) FindEntryByID(ctx context.Context, id int64) (*models.DailyCalorieEntry, error) {
	var entry models.DailyCalorieEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, notFound(err, "find daily calorie entry")
	}
	return &entry, nil
}

func (r *GormRepository) FindEntryByDate(ctx context.Context, date time.Time) (*models.DailyCalorieEntry, error) {
	var entry models.DailyCalorieEntry
	// String equality keeps DATE comparisons independent of the driver's time zone handling.
	if err := r.db.WithContext(ctx).Where("date = ?", models.FormatDate(date)).First(&entry).Error; err != nil {
		return nil, notFound(err, "find daily calorie entry by date")
	}
	return &entry, nil
}

func (r *GormRepository) ListEntries(ctx context.Context) ([]models.DailyCalorieEntry, error) {
	entries := []models.DailyCalorieEntry{}
	if err := r.db.WithContext(ctx).Order("date DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list daily calorie entries: %w", err)
	}
	return entries, nil
}

func (r *GormRepository) UpdateEntry(ctx context.Context, id int64, totalCalories *int) (*models.DailyCalorieEntry, error) {
	var updated models.DailyCalorieEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.DailyCalorieEntry
		if err := tx.First(&current, id).Error; err != nil {
			return err
		}

		cols := map[string]interface{}{"updated_at": r.now()}
		if totalCalories != nil {
			cols["total_calories"] = *totalCalories
		}
		if err := tx.Model(&models.DailyCalorieEntry{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return err
		}

		return tx.First(&updated, id).Error
	})
	if err != nil {
		return nil, notFound(err, "update daily calorie entry")
	}
	return &updated, nil
}

func (r *GormRepository) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The foreign key cascades as well; deleting explicitly keeps legacy schemas consistent.
		if err := tx.Where("daily_entry_id = ?", id).Delete(&models.FoodItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.DailyCalorieEntry{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete daily calorie entry: %w", err)
	}
	return deleted, nil
}

func (r *GormRepository) CreateFoodItem(ctx context.Context, item *models.FoodItem) error {
	item.CreatedAt = r.now()
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrMissingParent
		}
		return fmt.Errorf("create food item: %w", err)
	}
	return nil
}

func (r *GormRepository) FindFoodItemByID(ctx context.Context, id int64) (*models.FoodItem, error) {
	var item models.FoodItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, notFound(err, "find food item")
	}
	return &item, nil
}

func (r *GormRepository) ListFoodItems(ctx context.Context, entryID int64) ([]models.FoodItem, error) {
	items := []models.FoodItem{}
	if err := r.db.WithContext(ctx).
		Where("daily_entry_id = ?", entryID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list food items: %w", err)
	}
	return items, nil
}

func (r *GormRepository) UpdateFoodItem(ctx context.Context, id int64, patch models.FoodItemPatch) (*models.FoodItem, error) {
	var item models.FoodItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			return err
		}
		if patch.Empty() {
			return nil
		}
		if err := tx.Model(&models.FoodItem{}).Where("id = ?", id).Updates(patch.Columns()).Error; err != nil {
			return err
		}
		patch.Apply(&item)
		return nil
	})
	if err != nil {
		return nil, notFound(err, "update food item")
	}
	return &item, nil
}

func (r *GormRepository) DeleteFoodItem(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.FoodItem{}, id)
	if res.Error != nil {
		return false, fmt.Errorf("delete food item: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	db := r.db.WithContext(ctx)

	if err := db.Model(&models.DailyCalorieEntry{}).Count(&s.EntryCount).Error; err != nil {
		return s, fmt.Errorf("count daily calorie entries: %w", err)
	}
	if err := db.Model(&models.FoodItem{}).Count(&s.FoodItemCount).Error; err != nil {
		return s, fmt.Errorf("count food items: %w", err)
	}
	if err := db.Model(&models.DailyCalorieEntry{}).
		Select("COALESCE(SUM(total_calories),0)").
		Scan(&s.TotalCaloriesSum).Error; err != nil {
		return s, fmt.Errorf("sum entry calories: %w", err)
	}
	if err := db.Model(&models.FoodItem{}).
		Select("COALESCE(SUM(calories),0)").
		Scan(&s.FoodItemCaloriesSum).Error; err != nil {
		return s, fmt.Errorf("sum food item calories: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
