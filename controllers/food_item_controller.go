package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/caltrack/services"
	"github.com/cppla/caltrack/utils"
)

// FoodItemController serves the food item procedures.
type FoodItemController struct {
	svc *services.CalorieService
}

// NewFoodItemController creates a new FoodItemController instance.
func NewFoodItemController(svc *services.CalorieService) *FoodItemController {
	return &FoodItemController{svc: svc}
}

// GetFoodItemsByDailyEntry lists the items of ?dailyEntryId= in creation order.
func (f *FoodItemController) GetFoodItemsByDailyEntry(ctx *gin.Context) {
	id, ok := queryID(ctx, "dailyEntryId")
	if !ok {
		return
	}
	items, err := f.svc.ListFoodItems(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, items)
}

// CreateFoodItem attaches an item to an existing entry.
func (f *FoodItemController) CreateFoodItem(ctx *gin.Context) {
	var req struct {
		DailyEntryID *int64 `json:"daily_entry_id" binding:"required"`
		FoodName     string `json:"food_name" binding:"required,min=1"`
		Calories     *int   `json:"calories" binding:"required,min=0"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	item, err := f.svc.CreateFoodItem(ctx.Request.Context(), services.CreateFoodItemInput{
		DailyEntryID: *req.DailyEntryID,
		FoodName:     req.FoodName,
		Calories:     *req.Calories,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, item)
}

// UpdateFoodItem applies the provided fields. Both "nothing to update" and "no such item" answer null.
func (f *FoodItemController) UpdateFoodItem(ctx *gin.Context) {
	var req struct {
		ID       *int64  `json:"id" binding:"required"`
		FoodName *string `json:"food_name" binding:"omitempty,min=1"`
		Calories *int    `json:"calories" binding:"omitempty,min=0"`
	}
	if !bindJSON(ctx, &req) {
		return
	}

	item, outcome, err := f.svc.UpdateFoodItem(ctx.Request.Context(), services.UpdateFoodItemInput{
		ID:       *req.ID,
		FoodName: req.FoodName,
		Calories: req.Calories,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	switch outcome {
	case services.Unchanged:
		utils.SuccessWithMessage(ctx, "no fields to update", nil)
	case services.NotFound:
		utils.SuccessWithMessage(ctx, "food item not found", nil)
	default:
		utils.Success(ctx, item)
	}
}

// DeleteFoodItem reports whether the item existed.
func (f *FoodItemController) DeleteFoodItem(ctx *gin.Context) {
	var req struct {
		FoodItemID *int64 `json:"foodItemId" binding:"required"`
	}
	if !bindJSON(ctx, &req) {
		return
	}
	deleted, err := f.svc.DeleteFoodItem(ctx.Request.Context(), *req.FoodItemID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, deleted)
}
