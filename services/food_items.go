package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/cppla/caltrack/models"
	"github.com/cppla/caltrack/repository"
	"github.com/cppla/caltrack/utils"
)

// UpdateOutcome tells apart the results of updateFoodItem that share a null wire value.
type UpdateOutcome int

const (
	Updated UpdateOutcome = iota
	Unchanged
	NotFound
)

func (o UpdateOutcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// CreateFoodItemInput is the payload of createFoodItem.
type CreateFoodItemInput struct {
	DailyEntryID int64
	FoodName     string
	Calories     int
}

// UpdateFoodItemInput is the payload of updateFoodItem. Nil fields are left unchanged.
type UpdateFoodItemInput struct {
	ID       int64
	FoodName *string
	Calories *int
}

// CreateFoodItem attaches a new item to an existing entry.
func (s *CalorieService) CreateFoodItem(ctx context.Context, in CreateFoodItemInput) (*models.FoodItem, error) {
	if err := checkFoodName(in.FoodName); err != nil {
		return nil, s.fail(ctx, "create_food_item", err)
	}
	if err := checkCalories("calories", in.Calories); err != nil {
		return nil, s.fail(ctx, "create_food_item", err)
	}

	if _, err := s.repo.FindEntryByID(ctx, in.DailyEntryID); err != nil {
		if isNotFound(err) {
			err = &ParentNotFoundError{EntryID: in.DailyEntryID}
		}
		return nil, s.fail(ctx, "create_food_item", err,
			zap.Int64("entry_id", in.DailyEntryID), zap.String("food_name", utils.LogText(in.FoodName)))
	}

	item := &models.FoodItem{
		DailyEntryID: in.DailyEntryID,
		FoodName:     in.FoodName,
		Calories:     in.Calories,
	}
	if err := s.repo.CreateFoodItem(ctx, item); err != nil {
		// The entry was deleted between the check and the insert.
		if errors.Is(err, repository.ErrMissingParent) {
			err = &ParentNotFoundError{EntryID: in.DailyEntryID}
		}
		return nil, s.fail(ctx, "create_food_item", err,
			zap.Int64("entry_id", in.DailyEntryID), zap.String("food_name", utils.LogText(in.FoodName)))
	}

	s.invalidate(ctx)
	return item, nil
}

// ListFoodItems returns the items of one entry in creation order. An unknown entry yields an empty list.
func (s *CalorieService) ListFoodItems(ctx context.Context, entryID int64) ([]models.FoodItem, error) {
	items, err := s.repo.ListFoodItems(ctx, entryID)
	if err != nil {
		return nil, s.fail(ctx, "list_food_items", err, zap.Int64("entry_id", entryID))
	}
	if items == nil {
		items = []models.FoodItem{}
	}
	return items, nil
}

// UpdateFoodItem applies the provided fields. The item is returned only when the outcome is Updated.
func (s *CalorieService) UpdateFoodItem(ctx context.Context, in UpdateFoodItemInput) (*models.FoodItem, UpdateOutcome, error) {
	if in.FoodName != nil {
		if err := checkFoodName(*in.FoodName); err != nil {
			return nil, NotFound, s.fail(ctx, "update_food_item", err)
		}
	}
	if in.Calories != nil {
		if err := checkCalories("calories", *in.Calories); err != nil {
			return nil, NotFound, s.fail(ctx, "update_food_item", err)
		}
	}

	patch := models.FoodItemPatch{FoodName: in.FoodName, Calories: in.Calories}
	if patch.Empty() {
		if _, err := s.repo.FindFoodItemByID(ctx, in.ID); err != nil {
			if isNotFound(err) {
				return nil, NotFound, nil
			}
			return nil, NotFound, s.fail(ctx, "update_food_item", err, zap.Int64("food_item_id", in.ID))
		}
		return nil, Unchanged, nil
	}

	item, err := s.repo.UpdateFoodItem(ctx, in.ID, patch)
	if err != nil {
		if isNotFound(err) {
			return nil, NotFound, nil
		}
		return nil, NotFound, s.fail(ctx, "update_food_item", err, zap.Int64("food_item_id", in.ID))
	}

	s.invalidate(ctx)
	return item, Updated, nil
}

// DeleteFoodItem reports whether a row was removed.
func (s *CalorieService) DeleteFoodItem(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.DeleteFoodItem(ctx, id)
	if err != nil {
		return false, s.fail(ctx, "delete_food_item", err, zap.Int64("food_item_id", id))
	}
	if deleted {
		s.invalidate(ctx)
	}
	return deleted, nil
}

// checkFoodName only rejects the empty string. Whitespace and angle brackets are stored as sent.
func checkFoodName(name string) error {
	if len(name) == 0 {
		return &ValidationError{Field: "food_name", Reason: "must not be empty"}
	}
	return nil
}
