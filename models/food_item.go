package models

import "time"

// FoodItem is one logged food owned by exactly one DailyCalorieEntry.
// Items carry no update timestamp; their content is mutable, their creation time is not.
type FoodItem struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	DailyEntryID int64     `gorm:"index;not null" json:"daily_entry_id"`
	FoodName     string    `gorm:"type:text;not null" json:"food_name"`
	Calories     int       `gorm:"not null" json:"calories"`
	CreatedAt    time.Time `json:"created_at"`
}

func (FoodItem) TableName() string {
	return "food_items"
}

// FoodItemPatch lists the fields of a partial food item update. Nil means "leave as is".
type FoodItemPatch struct {
	FoodName *string
	Calories *int
}

// Empty reports whether the patch would change nothing.
func (p FoodItemPatch) Empty() bool {
	return p.FoodName == nil && p.Calories == nil
}

// Columns maps the supplied fields to column names for a partial update.
func (p FoodItemPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{}, 2)
	if p.FoodName != nil {
		cols["food_name"] = *p.FoodName
	}
	if p.Calories != nil {
		cols["calories"] = *p.Calories
	}
	return cols
}

// Apply copies the supplied fields onto item.
func (p FoodItemPatch) Apply(item *FoodItem) {
	if p.FoodName != nil {
		item.FoodName = *p.FoodName
	}
	if p.Calories != nil {
		item.Calories = *p.Calories
	}
}
