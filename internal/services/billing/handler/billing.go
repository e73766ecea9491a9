package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tandoor-system/internal/database/models"
	"tandoor-system/internal/events"
	"tandoor-system/internal/receipt"
	"tandoor-system/internal/services/billing/aggregator"
)

// -- Handler --

type BillingHandler struct {
	db  *gorm.DB
	bus events.Bus
}

func NewBillingHandler(db *gorm.DB, bus events.Bus) *BillingHandler {
	return &BillingHandler{
		db:  db,
		bus: bus,
	}
}

// -- Request / query structs --

type BillItemRequest struct {
	FoodItemID   string          `json:"food_item_id" binding:"required"`
	FoodItemName string          `json:"food_item_name" binding:"required"`
	Price        decimal.Decimal `json:"price" binding:"required"`
	Quantity     int             `json:"quantity" binding:"required,min=1"`
}

type CreateBillRequest struct {
	CustomerName    *string           `json:"customer_name,omitempty"`
	MobileLastDigit string            `json:"mobile_last_digit" binding:"required,max=32"`
	Items           []BillItemRequest `json:"items" binding:"required,min=1,dive"`
	SendToKitchen   bool              `json:"send_to_kitchen"`
}

type UpdateDraftRequest struct {
	CustomerName    *string           `json:"customer_name,omitempty"`
	MobileLastDigit string            `json:"mobile_last_digit" binding:"required,max=32"`
	Items           []BillItemRequest `json:"items" binding:"dive"`
}

type FinalizeBillRequest struct {
	CustomerName *string           `json:"customer_name,omitempty"`
	PaymentMode  string            `json:"payment_mode" binding:"required,oneof=cash online"`
	Items        []BillItemRequest `json:"items" binding:"required,min=1,dive"`
}

type ListBillsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=draft active completed"`
	Search string `form:"search,omitempty"`
	Date   string `form:"date,omitempty"` // YYYY-MM-DD, completed history only
}

type ActiveOrdersQuery struct {
	Search   string `form:"search,omitempty"`
	Priority string `form:"priority" binding:"omitempty,oneof=normal medium high urgent"`
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

func toBillItems(reqs []BillItemRequest) []models.BillItem {
	items := make([]models.BillItem, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, models.BillItem{
			FoodItemID:   r.FoodItemID,
			FoodItemName: r.FoodItemName,
			Price:        r.Price,
			Quantity:     r.Quantity,
		})
	}
	return aggregator.Normalize(items)
}

func (h *BillingHandler) publish(c *gin.Context, table, kind string) {
	if err := h.bus.Publish(c.Request.Context(), events.Event{Table: table, Kind: kind}); err != nil {
		log.Printf("billing: failed to publish %s/%s change token: %v", table, kind, err)
	}
}

// -- Lifecycle operations --

// CreateBill persists a fresh bill. With send_to_kitchen it goes straight to
// the active queue, otherwise it is saved as a draft (the print-first path).
func (h *BillingHandler) CreateBill(c *gin.Context) {
	var req CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	items := toBillItems(req.Items)
	status := models.BillStatusDraft
	if req.SendToKitchen {
		status = models.BillStatusActive
	}

	bill := models.Bill{
		CustomerName:    req.CustomerName,
		MobileLastDigit: strings.TrimSpace(req.MobileLastDigit),
		Status:          status,
		Total:           aggregator.SumTotals(items),
		BillItems:       items,
	}

	if err := h.db.Create(&bill).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to save bill"))
		return
	}

	h.publish(c, events.TableBills, events.KindInsert)
	h.publish(c, events.TableBillItems, events.KindInsert)

	msg := "Order saved as draft"
	if req.SendToKitchen {
		msg = "Order sent to kitchen"
	}
	c.JSON(http.StatusCreated, successResponse(msg, bill))
}

// UpdateDraft handles a biller re-sending an edited draft. Newly added or
// increased items are split off into a fresh active order marked with the
// additional marker; the original draft stays untouched. When nothing new
// needs cooking the draft is updated in place instead.
func (h *BillingHandler) UpdateDraft(c *gin.Context) {
	var req UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var draft models.Bill
	if err := h.db.Preload("BillItems").Where("id = ?", c.Param("id")).First(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Draft not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}
	if draft.Status != models.BillStatusDraft {
		c.JSON(http.StatusConflict, errorResponse("Only draft bills can be edited"))
		return
	}

	current := toBillItems(req.Items)
	diff := aggregator.Diff(draft.BillItems, current)

	if len(diff) > 0 {
		for i := range diff {
			diff[i].ID = ""
			diff[i].BillID = ""
		}
		additional := models.Bill{
			CustomerName:    req.CustomerName,
			MobileLastDigit: strings.TrimSpace(req.MobileLastDigit) + models.AdditionalMarker,
			Status:          models.BillStatusActive,
			Total:           aggregator.SumTotals(diff),
			BillItems:       diff,
		}
		if err := h.db.Create(&additional).Error; err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("Failed to send additional items to kitchen"))
			return
		}

		h.publish(c, events.TableBills, events.KindInsert)
		h.publish(c, events.TableBillItems, events.KindInsert)
		c.JSON(http.StatusCreated, successResponse("Additional items sent to kitchen", additional))
		return
	}

	// Pure edit (e.g. quantity decreases): replace the draft's items in place,
	// nothing new to cook.
	err := h.db.Transaction(func(tx *gorm.DB) error {
		patch := map[string]interface{}{
			"customer_name":     req.CustomerName,
			"mobile_last_digit": strings.TrimSpace(req.MobileLastDigit),
			"total":             aggregator.SumTotals(current),
		}
		if err := tx.Model(&models.Bill{}).Where("id = ?", draft.ID).Updates(patch).Error; err != nil {
			return err
		}
		if err := tx.Where("bill_id = ?", draft.ID).Delete(&models.BillItem{}).Error; err != nil {
			return err
		}
		for i := range current {
			current[i].ID = ""
			current[i].BillID = draft.ID
		}
		if len(current) == 0 {
			return nil
		}
		return tx.Create(&current).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to update draft"))
		return
	}

	h.publish(c, events.TableBills, events.KindUpdate)
	h.publish(c, events.TableBillItems, events.KindUpdate)
	c.JSON(http.StatusOK, successResponse("Draft updated, no new items to send to kitchen", nil))
}

// CompleteOrder marks a kitchen order as prepared and reconciles it with the
// biller's drafts: plain orders convert to a draft in place, supplemental
// orders are absorbed into the base draft when one exists.
func (h *BillingHandler) CompleteOrder(c *gin.Context) {
	var order models.Bill
	if err := h.db.Preload("BillItems").Where("id = ?", c.Param("id")).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Order not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}
	if order.Status != models.BillStatusActive {
		c.JSON(http.StatusConflict, errorResponse("Order is not in the kitchen queue"))
		return
	}

	if !order.IsAdditional() {
		var count int64
		if err := h.db.Model(&models.Bill{}).
			Where("status = ? AND mobile_last_digit = ?", models.BillStatusDraft, order.MobileLastDigit).
			Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
			return
		}
		if count > 0 {
			c.JSON(http.StatusConflict, errorResponse("Order already exists in drafts. Cannot add duplicate."))
			return
		}

		if err := h.db.Model(&models.Bill{}).Where("id = ?", order.ID).
			Update("status", models.BillStatusDraft).Error; err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("Failed to complete order"))
			return
		}

		h.publish(c, events.TableBills, events.KindUpdate)
		c.JSON(http.StatusOK, successResponse("Order completed and sent to biller as draft", nil))
		return
	}

	baseNumber := order.BaseNumber()

	var baseDraft models.Bill
	err := h.db.Preload("BillItems").
		Where("status = ? AND mobile_last_digit = ?", models.BillStatusDraft, baseNumber).
		First(&baseDraft).Error
	switch {
	case err == nil:
		// Absorb the supplemental order into the base draft, then drop it.
		merged := aggregator.Merge(baseDraft.BillItems, order.BillItems)
		txErr := h.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("bill_id = ?", baseDraft.ID).Delete(&models.BillItem{}).Error; err != nil {
				return err
			}
			for i := range merged {
				merged[i].ID = ""
				merged[i].BillID = baseDraft.ID
			}
			if len(merged) > 0 {
				if err := tx.Create(&merged).Error; err != nil {
					return err
				}
			}
			if err := tx.Model(&models.Bill{}).Where("id = ?", baseDraft.ID).
				Update("total", aggregator.SumTotals(merged)).Error; err != nil {
				return err
			}
			if err := tx.Where("bill_id = ?", order.ID).Delete(&models.BillItem{}).Error; err != nil {
				return err
			}
			return tx.Where("id = ?", order.ID).Delete(&models.Bill{}).Error
		})
		if txErr != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("Failed to merge additional items"))
			return
		}

		h.publish(c, events.TableBills, events.KindDelete)
		h.publish(c, events.TableBillItems, events.KindUpdate)
		c.JSON(http.StatusOK, successResponse("Additional items merged into existing draft bill", nil))

	case errors.Is(err, gorm.ErrRecordNotFound):
		// No base draft anymore: this order becomes the draft, under the
		// base number.
		patch := map[string]interface{}{
			"status":            models.BillStatusDraft,
			"mobile_last_digit": baseNumber,
		}
		if err := h.db.Model(&models.Bill{}).Where("id = ?", order.ID).Updates(patch).Error; err != nil {
			c.JSON(http.StatusInternalServerError, errorResponse("Failed to complete order"))
			return
		}

		h.publish(c, events.TableBills, events.KindUpdate)
		c.JSON(http.StatusOK, successResponse("Order completed and added to draft under original bill number", nil))

	default:
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
	}
}

// ReturnOrder hands an active order back to the biller for modifications.
func (h *BillingHandler) ReturnOrder(c *gin.Context) {
	res := h.db.Model(&models.Bill{}).
		Where("id = ? AND status = ?", c.Param("id"), models.BillStatusActive).
		Update("status", models.BillStatusDraft)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to send order back to draft"))
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, errorResponse("Order not found"))
		return
	}

	h.publish(c, events.TableBills, events.KindUpdate)
	c.JSON(http.StatusOK, successResponse("Order sent back to biller for modifications", nil))
}

// CancelBill deletes a bill and its items. Irreversible; the other dashboard
// learns about it through the change stream.
func (h *BillingHandler) CancelBill(c *gin.Context) {
	var bill models.Bill
	if err := h.db.Where("id = ?", c.Param("id")).First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Bill not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bill_id = ?", bill.ID).Delete(&models.BillItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", bill.ID).Delete(&models.Bill{}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to cancel order"))
		return
	}

	h.publish(c, events.TableBillItems, events.KindDelete)
	h.publish(c, events.TableBills, events.KindDelete)
	c.JSON(http.StatusOK, successResponse("Order #"+bill.MobileLastDigit+" cancelled", nil))
}

// FinalizeBill settles a draft: stamps the payment mode, persists the final
// item set, marks it completed and returns the printable receipt. Terminal.
func (h *BillingHandler) FinalizeBill(c *gin.Context) {
	var req FinalizeBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var draft models.Bill
	if err := h.db.Where("id = ?", c.Param("id")).First(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Draft not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}
	if draft.Status != models.BillStatusDraft {
		c.JSON(http.StatusConflict, errorResponse("Only draft bills can be finalized"))
		return
	}

	items := toBillItems(req.Items)
	total := aggregator.SumTotals(items)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		patch := map[string]interface{}{
			"status":       models.BillStatusCompleted,
			"payment_mode": req.PaymentMode,
			"total":        total,
		}
		if req.CustomerName != nil {
			patch["customer_name"] = req.CustomerName
		}
		if err := tx.Model(&models.Bill{}).Where("id = ?", draft.ID).Updates(patch).Error; err != nil {
			return err
		}
		if err := tx.Where("bill_id = ?", draft.ID).Delete(&models.BillItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = ""
			items[i].BillID = draft.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to finalize bill"))
		return
	}

	var final models.Bill
	if err := h.db.Preload("BillItems").Where("id = ?", draft.ID).First(&final).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	doc, err := receipt.Render(final, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to render receipt"))
		return
	}

	h.publish(c, events.TableBills, events.KindUpdate)
	h.publish(c, events.TableBillItems, events.KindUpdate)
	c.JSON(http.StatusOK, successResponse("Bill has been moved to history", gin.H{
		"bill":    final,
		"receipt": doc,
	}))
}

// -- Queries --

func (h *BillingHandler) ListBills(c *gin.Context) {
	var q ListBillsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	tx := h.db.Preload("BillItems")
	switch q.Status {
	case models.BillStatusDraft:
		tx = tx.Where("status = ?", q.Status).Order("updated_at desc")
	case models.BillStatusActive:
		tx = tx.Where("status = ?", q.Status).Order("created_at asc")
	case models.BillStatusCompleted:
		tx = tx.Where("status = ?", q.Status).Order("created_at desc")
	default:
		tx = tx.Order("created_at desc")
	}

	if q.Search != "" {
		needle := "%" + strings.ToLower(q.Search) + "%"
		tx = tx.Where("mobile_last_digit LIKE ? OR LOWER(customer_name) LIKE ?", "%"+q.Search+"%", needle)
	}

	if q.Date != "" && q.Status == models.BillStatusCompleted {
		day, err := time.ParseInLocation("2006-01-02", q.Date, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid date filter, expected YYYY-MM-DD"))
			return
		}
		tx = tx.Where("created_at >= ? AND created_at < ?", day, day.AddDate(0, 0, 1))
	}

	var bills []models.Bill
	if err := tx.Find(&bills).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch bills"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Bills fetched", bills))
}

type activeOrderView struct {
	models.Bill
	Priority   string `json:"priority"`
	AgeMinutes int    `json:"age_minutes"`
	AgeLabel   string `json:"age_label"`
}

// ActiveQueue returns the kitchen queue in FIFO order with priority computed
// from order age at read time.
func (h *BillingHandler) ActiveQueue(c *gin.Context) {
	var q ActiveOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	var orders []models.Bill
	if err := h.db.Preload("BillItems").
		Where("status = ?", models.BillStatusActive).
		Order("created_at asc").
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch active orders"))
		return
	}

	now := time.Now()
	views := make([]activeOrderView, 0, len(orders))
	for _, o := range orders {
		if q.Search != "" {
			needle := strings.ToLower(q.Search)
			name := ""
			if o.CustomerName != nil {
				name = strings.ToLower(*o.CustomerName)
			}
			if !strings.Contains(strings.ToLower(o.MobileLastDigit), needle) &&
				!strings.Contains(name, needle) {
				continue
			}
		}
		p := PriorityFor(o.CreatedAt, now)
		if q.Priority != "" && p != q.Priority {
			continue
		}
		views = append(views, activeOrderView{
			Bill:       o,
			Priority:   p,
			AgeMinutes: AgeMinutes(o.CreatedAt, now),
			AgeLabel:   AgeLabel(o.CreatedAt, now),
		})
	}

	c.JSON(http.StatusOK, successResponse("Active orders fetched", views))
}

// Receipt renders a stored bill as a printable document. amounts=false yields
// the kitchen ticket variant without prices.
func (h *BillingHandler) Receipt(c *gin.Context) {
	showAmounts := c.DefaultQuery("amounts", "true") != "false"

	var bill models.Bill
	if err := h.db.Preload("BillItems").Where("id = ?", c.Param("id")).First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, errorResponse("Bill not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	doc, err := receipt.Render(bill, showAmounts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to render receipt"))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}
