package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/caltrack/models"
	"github.com/cppla/caltrack/repository"
)

// CreateEntryInput is the payload of createDailyCalorieEntry.
type CreateEntryInput struct {
	Date          time.Time
	TotalCalories int
}

// UpdateEntryInput is the payload of updateDailyCalorieEntry. A nil TotalCalories leaves it unchanged.
type UpdateEntryInput struct {
	ID            int64
	TotalCalories *int
}

// CreateEntry inserts a new entry unless one already exists for the same calendar day.
func (s *CalorieService) CreateEntry(ctx context.Context, in CreateEntryInput) (*models.DailyCalorieEntry, error) {
	if in.Date.IsZero() {
		return nil, s.fail(ctx, "create_entry", &ValidationError{Field: "date", Reason: "is required"})
	}
	if err := checkCalories("total_calories", in.TotalCalories); err != nil {
		return nil, s.fail(ctx, "create_entry", err)
	}
	date := models.NormalizeDate(in.Date)

	existing, err := s.repo.FindEntryByDate(ctx, date)
	switch {
	case err == nil && existing != nil:
		return nil, s.fail(ctx, "create_entry", &DuplicateDateError{Date: date})
	case err != nil && !isNotFound(err):
		return nil, s.fail(ctx, "create_entry", err)
	}

	entry := &models.DailyCalorieEntry{Date: date, TotalCalories: in.TotalCalories}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		// Lost a race against a concurrent insert for the same day.
		if errors.Is(err, repository.ErrDuplicateDate) {
			err = &DuplicateDateError{Date: date}
		}
		return nil, s.fail(ctx, "create_entry", err)
	}
	entry.Date = models.NormalizeDate(entry.Date)

	s.invalidate(ctx)
	return entry, nil
}

// ListEntries returns every entry, most recent date first.
func (s *CalorieService) ListEntries(ctx context.Context) ([]models.DailyCalorieEntry, error) {
	var cached []models.DailyCalorieEntry
	if s.cache.GetJSON(ctx, cacheKeyEntryList, &cached) && cached != nil {
		return cached, nil
	}

	gen := s.cacheGen()
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, s.fail(ctx, "list_entries", err)
	}
	if entries == nil {
		entries = []models.DailyCalorieEntry{}
	}
	s.fillCache(ctx, cacheKeyEntryList, gen, entries)
	return entries, nil
}

// GetEntryWithFoodItems composes an entry with its items. A missing entry yields (nil, nil).
func (s *CalorieService) GetEntryWithFoodItems(ctx context.Context, id int64) (*models.DailyCalorieEntryWithFoodItems, error) {
	key := detailKey(id)
	var cached models.DailyCalorieEntryWithFoodItems
	if s.cache.GetJSON(ctx, key, &cached) && cached.ID == id {
		return &cached, nil
	}

	gen := s.cacheGen()
	entry, err := s.repo.FindEntryByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, s.fail(ctx, "get_entry_with_food_items", err, zap.Int64("entry_id", id))
	}

	items, err := s.repo.ListFoodItems(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "get_entry_with_food_items", err, zap.Int64("entry_id", id))
	}

	view := entry.WithFoodItems(items)
	s.fillCache(ctx, key, gen, view)
	return view, nil
}

// UpdateEntry applies a partial update and always refreshes updated_at.
// A missing entry yields (nil, nil).
func (s *CalorieService) UpdateEntry(ctx context.Context, in UpdateEntryInput) (*models.DailyCalorieEntry, error) {
	if in.TotalCalories != nil {
		if err := checkCalories("total_calories", *in.TotalCalories); err != nil {
			return nil, s.fail(ctx, "update_entry", err)
		}
	}

	entry, err := s.repo.UpdateEntry(ctx, in.ID, in.TotalCalories)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, s.fail(ctx, "update_entry", err, zap.Int64("entry_id", in.ID))
	}

	s.invalidate(ctx)
	return entry, nil
}

// DeleteEntry removes an entry and, through the cascade, all of its food items.
func (s *CalorieService) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.DeleteEntry(ctx, id)
	if err != nil {
		return false, s.fail(ctx, "delete_entry", err, zap.Int64("entry_id", id))
	}
	if deleted {
		s.invalidate(ctx)
	}
	return deleted, nil
}

func checkCalories(field string, v int) error {
	if v < 0 {
		return &ValidationError{Field: field, Reason: "must be a non-negative integer"}
	}
	return nil
}
