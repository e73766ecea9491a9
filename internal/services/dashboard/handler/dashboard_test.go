package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"tandoor-system/internal/database/models"
)

func newTestEnv(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Bill{}, &models.BillItem{}))

	h := NewDashboardHandler(db)

	r := gin.New()
	r.GET("/dashboard/stats", h.Stats)
	return r, db
}

func seedCompleted(t *testing.T, db *gorm.DB, total int64, createdAt time.Time) {
	t.Helper()
	mode := models.PaymentModeCash
	bill := models.Bill{
		MobileLastDigit: "0000",
		Status:          models.BillStatusCompleted,
		Total:           decimal.NewFromInt(total),
		PaymentMode:     &mode,
	}
	require.NoError(t, db.Create(&bill).Error)
	require.NoError(t, db.Model(&models.Bill{}).Where("id = ?", bill.ID).
		Update("created_at", createdAt).Error)
}

func TestStatsBucketsByDayWeekMonth(t *testing.T) {
	r, db := newTestEnv(t)
	now := time.Now()

	seeds := []struct {
		total int64
		at    time.Time
	}{
		{100, now.Add(-time.Minute)},        // today
		{200, now.Add(-26 * time.Hour)},     // yesterday-ish
		{400, now.Add(-40 * 24 * time.Hour)}, // well outside the month
	}
	for _, s := range seeds {
		seedCompleted(t, db, s.total, s.at)
	}

	// Drafts and active orders never count as sales.
	draft := models.Bill{MobileLastDigit: "1111", Status: models.BillStatusDraft, Total: decimal.NewFromInt(999)}
	require.NoError(t, db.Create(&draft).Error)

	// Expected bucket contents depend on when the test runs, so derive them
	// from the same window starts the handler uses.
	expect := func(from time.Time) (decimal.Decimal, int) {
		sum, n := decimal.Zero, 0
		for _, s := range seeds {
			if !s.at.Before(from) {
				sum = sum.Add(decimal.NewFromInt(s.total))
				n++
			}
		}
		return sum, n
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data DashboardStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	todaySales, todayOrders := expect(startOfDay(now))
	weeklySales, weeklyOrders := expect(startOfWeek(now))
	monthlySales, monthlyOrders := expect(startOfMonth(now))

	assert.True(t, resp.Data.TodaySales.Equal(todaySales), "today: %s", resp.Data.TodaySales)
	assert.Equal(t, todayOrders, resp.Data.TodayOrders)
	assert.True(t, resp.Data.WeeklySales.Equal(weeklySales), "week: %s", resp.Data.WeeklySales)
	assert.Equal(t, weeklyOrders, resp.Data.WeeklyOrders)
	assert.True(t, resp.Data.MonthlySales.Equal(monthlySales), "month: %s", resp.Data.MonthlySales)
	assert.Equal(t, monthlyOrders, resp.Data.MonthlyOrders)
}

func TestWindowBoundaries(t *testing.T) {
	wed := time.Date(2025, 3, 12, 15, 30, 0, 0, time.Local) // a Wednesday
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.Local), startOfDay(wed))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local), startOfWeek(wed), "week starts Monday")
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.Local), startOfMonth(wed))

	sun := time.Date(2025, 3, 16, 9, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local), startOfWeek(sun), "Sunday belongs to the preceding Monday's week")

	mon := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	assert.Equal(t, mon, startOfWeek(mon))
}
