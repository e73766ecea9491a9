package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tandoor-system/internal/database/models"
	"tandoor-system/internal/events"
)

const (
	MENU_ITEMS_CACHE_KEY      = "menu:items"
	MENU_CATEGORIES_CACHE_KEY = "menu:categories"

	CACHE_TTL_SHORT = 5 * time.Minute
)

type MenuHandler struct {
	db    *gorm.DB
	redis *redis.Client
	bus   events.Bus
}

func NewMenuHandler(db *gorm.DB, redisClient *redis.Client, bus events.Bus) *MenuHandler {
	return &MenuHandler{
		db:    db,
		redis: redisClient,
		bus:   bus,
	}
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data}
}

func errorResponse(message string) APIResponse {
	return APIResponse{Success: false, Message: message}
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

type FoodItemRequest struct {
	Name        string          `json:"name" binding:"required,max=128"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	CategoryID  string          `json:"category_id" binding:"required"`
	Status      string          `json:"status" binding:"omitempty,oneof=available unavailable"`
	ImageURL    *string         `json:"image_url,omitempty"`
}

type ListFoodItemsQuery struct {
	CategoryID string `form:"category,omitempty"`
	Search     string `form:"search,omitempty"`
	Status     string `form:"status" binding:"omitempty,oneof=available unavailable"`
}

func (h *MenuHandler) InvalidateMenuCaches(ctx context.Context) {
	if h.redis == nil {
		return
	}
	_ = h.redis.Del(ctx, MENU_ITEMS_CACHE_KEY, MENU_CATEGORIES_CACHE_KEY)
}

func (h *MenuHandler) publish(c *gin.Context, table, kind string) {
	if err := h.bus.Publish(c.Request.Context(), events.Event{Table: table, Kind: kind}); err != nil {
		log.Printf("menu: failed to publish %s/%s change token: %v", table, kind, err)
	}
}

// -- Categories --

func (h *MenuHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	category := models.FoodCategory{Name: strings.TrimSpace(req.Name)}
	if err := h.db.Create(&category).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create category"))
		return
	}

	h.InvalidateMenuCaches(c.Request.Context())
	h.publish(c, events.TableFoodCategories, events.KindInsert)
	c.JSON(http.StatusCreated, successResponse("Category created", category))
}

func (h *MenuHandler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()

	if h.redis != nil {
		if cached, err := h.redis.Get(ctx, MENU_CATEGORIES_CACHE_KEY).Result(); err == nil {
			var categories []models.FoodCategory
			if json.Unmarshal([]byte(cached), &categories) == nil {
				c.JSON(http.StatusOK, successResponse("Categories fetched", categories))
				return
			}
		}
	}

	var categories []models.FoodCategory
	if err := h.db.Order("name asc").Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch categories"))
		return
	}

	if h.redis != nil {
		if payload, err := json.Marshal(categories); err == nil {
			_ = h.redis.Set(ctx, MENU_CATEGORIES_CACHE_KEY, payload, CACHE_TTL_SHORT)
		}
	}

	c.JSON(http.StatusOK, successResponse("Categories fetched", categories))
}

func (h *MenuHandler) DeleteCategory(c *gin.Context) {
	var count int64
	if err := h.db.Model(&models.FoodItem{}).Where("category_id = ?", c.Param("id")).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, errorResponse("Category still has food items"))
		return
	}

	res := h.db.Where("id = ?", c.Param("id")).Delete(&models.FoodCategory{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete category"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Category not found"))
		return
	}

	h.InvalidateMenuCaches(c.Request.Context())
	h.publish(c, events.TableFoodCategories, events.KindDelete)
	c.JSON(http.StatusOK, successResponse("Category deleted", nil))
}

// -- Food items --

func (h *MenuHandler) CreateFoodItem(c *gin.Context) {
	var req FoodItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, errorResponse("Price must be greater than 0"))
		return
	}

	var category models.FoodCategory
	if err := h.db.Where("id = ?", req.CategoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, errorResponse("Category not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	status := req.Status
	if status == "" {
		status = models.FoodItemStatusAvailable
	}

	item := models.FoodItem{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Status:      status,
		ImageURL:    req.ImageURL,
	}
	if err := h.db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to create food item"))
		return
	}

	h.InvalidateMenuCaches(c.Request.Context())
	h.publish(c, events.TableFoodItems, events.KindInsert)
	c.JSON(http.StatusCreated, successResponse("Food item created", item))
}

func (h *MenuHandler) ListFoodItems(c *gin.Context) {
	var q ListFoodItemsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}
	ctx := c.Request.Context()

	unfiltered := q.CategoryID == "" && q.Search == "" && q.Status == ""
	if unfiltered && h.redis != nil {
		if cached, err := h.redis.Get(ctx, MENU_ITEMS_CACHE_KEY).Result(); err == nil {
			var items []models.FoodItem
			if json.Unmarshal([]byte(cached), &items) == nil {
				c.JSON(http.StatusOK, successResponse("Food items fetched", items))
				return
			}
		}
	}

	tx := h.db.Preload("Category").Order("created_at desc")
	if q.CategoryID != "" {
		tx = tx.Where("category_id = ?", q.CategoryID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}

	var items []models.FoodItem
	if err := tx.Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch food items"))
		return
	}

	if unfiltered && h.redis != nil {
		if payload, err := json.Marshal(items); err == nil {
			_ = h.redis.Set(ctx, MENU_ITEMS_CACHE_KEY, payload, CACHE_TTL_SHORT)
		}
	}

	c.JSON(http.StatusOK, successResponse("Food items fetched", items))
}

func (h *MenuHandler) UpdateFoodItem(c *gin.Context) {
	var req FoodItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}
	if !req.Price.IsPositive() {
		c.JSON(http.StatusBadRequest, errorResponse("Price must be greater than 0"))
		return
	}

	var item models.FoodItem
	if err := h.db.Where("id = ?", c.Param("id")).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Food item not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	patch := map[string]interface{}{
		"name":        strings.TrimSpace(req.Name),
		"description": req.Description,
		"price":       req.Price,
		"category_id": req.CategoryID,
		"image_url":   req.ImageURL,
	}
	if req.Status != "" {
		patch["status"] = req.Status
	}
	if err := h.db.Model(&item).Updates(patch).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update food item"))
		return
	}

	h.InvalidateMenuCaches(c.Request.Context())
	h.publish(c, events.TableFoodItems, events.KindUpdate)
	c.JSON(http.StatusOK, successResponse("Food item updated", item))
}

func (h *MenuHandler) DeleteFoodItem(c *gin.Context) {
	res := h.db.Where("id = ?", c.Param("id")).Delete(&models.FoodItem{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to delete food item"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Food item not found"))
		return
	}

	h.InvalidateMenuCaches(c.Request.Context())
	h.publish(c, events.TableFoodItems, events.KindDelete)
	c.JSON(http.StatusOK, successResponse("Food item deleted", nil))
}
