package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tailor-app/internal/models"
	"tailor-app/internal/services"
	"tailor-app/internal/utils"
)

const (
	dateLayout        = "2006-01-02"
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	idempotencyHeader = "Idempotency-Key"
)

type OrderHandler struct {
	service services.OrderService
}

func NewOrderHandler(service services.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// CreateOrder is the public intake endpoint.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var draft models.OrderDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
	order, replayed, err := h.service.CreateOrder(c.Request.Context(), &draft, key)
	if err != nil {
		handleServiceError(c, err, "Failed to submit order.")
		return
	}

	if replayed {
		c.JSON(http.StatusOK, gin.H{"message": "Order submitted successfully!", "order": gin.H{"_id": order.ID}})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order submitted successfully!", "order": order})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date filter", "error": err.Error()})
		return
	}
	page, limit := utils.ParsePaginationParams(c.Request.URL.Query())

	result, err := h.service.ListOrders(c.Request.Context(), models.OrderQuery{Filter: filter, Page: page, Limit: limit})
	if err != nil {
		handleServiceError(c, err, "Failed to fetch orders.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders fetched successfully!",
		"page":    result.Page,
		"limit":   result.Limit,
		"total":   result.Total,
		"pages":   result.Pages(),
		"orders":  result.Items,
	})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err, "Failed to fetch order")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order fetched successfully!", "order": order})
}

// ExportOrders streams the filtered orders as a spreadsheet.
func (h *OrderHandler) ExportOrders(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid date filter", "error": err.Error()})
		return
	}

	data, _, err := h.service.ExportOrders(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err, "Failed to export orders.")
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// parseFilter reads shop, category, subcategory, startDate and endDate. "all" means no
// category/subcategory filter. Dates are only read when both are given, so a lone
// bound is ignored whatever its value. A date-only endDate covers the whole day.
func parseFilter(c *gin.Context) (models.OrderFilter, error) {
	filter := models.OrderFilter{
		Shop:        strings.TrimSpace(c.Query("shop")),
		Category:    allToEmpty(c.Query("category")),
		Subcategory: allToEmpty(c.Query("subcategory")),
	}

	rawStart := strings.TrimSpace(c.Query("startDate"))
	rawEnd := strings.TrimSpace(c.Query("endDate"))
	if rawStart == "" || rawEnd == "" {
		return filter, nil
	}

	start, _, err := parseDate(rawStart)
	if err != nil {
		return filter, fmt.Errorf("invalid startDate %q", rawStart)
	}
	end, dateOnly, err := parseDate(rawEnd)
	if err != nil {
		return filter, fmt.Errorf("invalid endDate %q", rawEnd)
	}
	if dateOnly {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	filter.StartDate = &start
	filter.EndDate = &end

	return filter, nil
}

func parseDate(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, false, err
}

func allToEmpty(v string) string {
	v = strings.TrimSpace(v)
	if v == "all" {
		return ""
	}
	return v
}
