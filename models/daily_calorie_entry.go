package models

import (
	"time"

	"gorm.io/gorm"
)

// DailyCalorieEntry is one calendar day's calorie record. At most one row exists per date.
type DailyCalorieEntry struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	Date          time.Time  `gorm:"type:date;uniqueIndex:idx_daily_calorie_entries_date;not null" json:"date"`
	TotalCalories int        `gorm:"not null" json:"total_calories"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	FoodItems     []FoodItem `gorm:"foreignKey:DailyEntryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (DailyCalorieEntry) TableName() string {
	return "daily_calorie_entries"
}

// BeforeCreate strips the time of day from Date and fills missing timestamps.
func (e *DailyCalorieEntry) BeforeCreate(tx *gorm.DB) error {
	e.Date = NormalizeDate(e.Date)
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	return nil
}

// AfterFind re-anchors the DATE column at UTC midnight regardless of driver location.
func (e *DailyCalorieEntry) AfterFind(tx *gorm.DB) error {
	e.Date = NormalizeDate(e.Date)
	return nil
}

// DailyCalorieEntryWithFoodItems is the composed read view of an entry and its items,
// items ordered by creation time.
type DailyCalorieEntryWithFoodItems struct {
	DailyCalorieEntry
	FoodItems []FoodItem `json:"food_items"`
}

// WithFoodItems composes the read view. A nil slice is rendered as an empty list.
func (e DailyCalorieEntry) WithFoodItems(items []FoodItem) *DailyCalorieEntryWithFoodItems {
	if items == nil {
		items = []FoodItem{}
	}
	e.FoodItems = nil
	return &DailyCalorieEntryWithFoodItems{DailyCalorieEntry: e, FoodItems: items}
}
