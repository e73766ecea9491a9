package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tandoor-system/internal/database/models"
)

type DashboardHandler struct {
	db *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
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

type DashboardStats struct {
	TodaySales    decimal.Decimal `json:"today_sales"`
	WeeklySales   decimal.Decimal `json:"weekly_sales"`
	MonthlySales  decimal.Decimal `json:"monthly_sales"`
	TodayOrders   int             `json:"today_orders"`
	WeeklyOrders  int             `json:"weekly_orders"`
	MonthlyOrders int             `json:"monthly_orders"`
}

// startOfWeek returns the preceding Monday midnight; the business week runs
// Monday through Sunday.
func startOfWeek(now time.Time) time.Time {
	day := now
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day = day.AddDate(0, 0, -(weekday - 1))
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
}

func startOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func startOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

func (h *DashboardHandler) completedSince(from time.Time) (decimal.Decimal, int, error) {
	var bills []models.Bill
	err := h.db.Select("total").
		Where("status = ? AND created_at >= ?", models.BillStatusCompleted, from).
		Find(&bills).Error
	if err != nil {
		return decimal.Zero, 0, err
	}

	sum := decimal.Zero
	for _, b := range bills {
		sum = sum.Add(b.Total)
	}
	return sum, len(bills), nil
}

// Stats aggregates completed-bill sales for the current day, week and month.
func (h *DashboardHandler) Stats(c *gin.Context) {
	now := time.Now()

	todaySales, todayOrders, err := h.completedSince(startOfDay(now))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch dashboard data"))
		return
	}
	weeklySales, weeklyOrders, err := h.completedSince(startOfWeek(now))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch dashboard data"))
		return
	}
	monthlySales, monthlyOrders, err := h.completedSince(startOfMonth(now))
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch dashboard data"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Dashboard stats fetched", DashboardStats{
		TodaySales:    todaySales,
		WeeklySales:   weeklySales,
		MonthlySales:  monthlySales,
		TodayOrders:   todayOrders,
		WeeklyOrders:  weeklyOrders,
		MonthlyOrders: monthlyOrders,
	}))
}
