package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/caltrack/models"
	"github.com/cppla/caltrack/services"
	"github.com/cppla/caltrack/utils"
)

// EntryController serves the daily calorie entry procedures.
type EntryController struct {
	svc *services.CalorieService
}

// NewEntryController creates a new EntryController instance.
func NewEntryController(svc *services.CalorieService) *EntryController {
	return &EntryController{svc: svc}
}

// GetDailyCalorieEntries lists every entry, most recent date first.
func (e *EntryController) GetDailyCalorieEntries(ctx *gin.Context) {
	entries, err := e.svc.ListEntries(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, entries)
}

// GetDailyCalorieEntryWithFoodItems returns the entry named by ?entryId= with its food items, or null.
func (e *EntryController) GetDailyCalorieEntryWithFoodItems(ctx *gin.Context) {
	id, ok := queryID(ctx, "entryId")
	if !ok {
		return
	}
	view, err := e.svc.GetEntryWithFoodItems(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if view == nil {
		utils.Success(ctx, nil)
		return
	}
	utils.Success(ctx, view)
}

// CreateDailyCalorieEntry creates the entry for a calendar day.
func (e *EntryController) CreateDailyCalorieEntry(ctx *gin.Context) {
	var req struct {
		Date          string `json:"date" binding:"required"`
		TotalCalories *int   `json:"total_calories" binding:"required,min=0"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		rejectInput(ctx, codeInvalidDate, err.Error(), err)
		return
	}

	entry, err := e.svc.CreateEntry(ctx.Request.Context(), services.CreateEntryInput{
		Date:          date,
		TotalCalories: *req.TotalCalories,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, entry)
}

// UpdateDailyCalorieEntry sets total_calories when given and always refreshes updated_at.
func (e *EntryController) UpdateDailyCalorieEntry(ctx *gin.Context) {
	var req struct {
		ID            *int64 `json:"id" binding:"required"`
		TotalCalories *int   `json:"total_calories" binding:"omitempty,min=0"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	entry, err := e.svc.UpdateEntry(ctx.Request.Context(), services.UpdateEntryInput{
		ID:            *req.ID,
		TotalCalories: req.TotalCalories,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	if entry == nil {
		utils.SuccessWithMessage(ctx, "daily calorie entry not found", nil)
		return
	}
	utils.Success(ctx, entry)
}

// DeleteDailyCalorieEntry removes an entry together with its food items.
func (e *EntryController) DeleteDailyCalorieEntry(ctx *gin.Context) {
	var req struct {
		ID *int64 `json:"id" binding:"required"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	deleted, err := e.svc.DeleteEntry(ctx.Request.Context(), *req.ID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, deleted)
}
