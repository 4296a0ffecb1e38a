// internal/handlers/export.go
package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/tealeg/xlsx/v3"

	redis_a "github.com/chainflow/chainflow-be/internal/adapters/redis_adapter"
	"github.com/chainflow/chainflow-be/internal/core/domain"
	"github.com/chainflow/chainflow-be/internal/core/ports"
)

// ExportParams defines parameters for export operations
type ExportParams struct {
	Format   string     `json:"format"`
	Category string     `json:"category"`
	Status   string     `json:"status"`
	Type     string     `json:"type"`
	DateFrom *time.Time `json:"date_from"`
	DateTo   *time.Time `json:"date_to"`
}

// ExportMetadata contains metadata about the export
type ExportMetadata struct {
	ExportDate time.Time `json:"export_date"`
	TotalRows  int       `json:"total_rows"`
	Truncated  bool      `json:"truncated"`
}

// ExportHandler streams inventory and order data as XLSX, CSV or JSON.
type ExportHandler struct {
	inventoryService ports.InventoryService
	orderService     ports.OrderService
	cache            ports.CacheRepository
	maxRows          int
	logger           *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(inventoryService ports.InventoryService, orderService ports.OrderService, cache ports.CacheRepository, maxRows int, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		inventoryService: inventoryService,
		orderService:     orderService,
		cache:            cache,
		maxRows:          maxRows,
		logger:           logger.With(slog.String("handler", "export")),
	}
}

// ExportInventory handles GET /api/v1/export/inventory
func (h *ExportHandler) ExportInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseExportParams(r)

	h.logger.InfoContext(ctx, "starting inventory export",
		slog.String("format", params.Format))

	items, truncated, err := h.collectInventory(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to collect inventory for export",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve data")
		return
	}

	headers := inventoryExportHeaders()
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, inventoryExportRow(item))
	}

	h.write(w, r, "inventory", params, headers, rows, func() any {
		return struct {
			Items    []*domain.InventoryItem `json:"items"`
			Metadata ExportMetadata          `json:"metadata"`
		}{items, ExportMetadata{ExportDate: time.Now(), TotalRows: len(items), Truncated: truncated}}
	})
}

// ExportOrders handles GET /api/v1/export/orders
func (h *ExportHandler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseExportParams(r)

	h.logger.InfoContext(ctx, "starting order export",
		slog.String("format", params.Format))

	orders, truncated, err := h.collectOrders(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to collect orders for export",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "Failed to retrieve data")
		return
	}

	headers := orderExportHeaders()
	rows := make([][]string, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, orderExportRow(order))
	}

	h.write(w, r, "orders", params, headers, rows, func() any {
		return struct {
			Orders   []*domain.Order `json:"orders"`
			Metadata ExportMetadata  `json:"metadata"`
		}{orders, ExportMetadata{ExportDate: time.Now(), TotalRows: len(orders), Truncated: truncated}}
	})
}

// write renders the collected rows in the requested format. JSON responses
// are cached briefly so repeated dashboard downloads skip the DB.
func (h *ExportHandler) write(w http.ResponseWriter, r *http.Request, name string, params *ExportParams, headers []string, rows [][]string, jsonBody func() any) {
	ctx := r.Context()
	timestamp := time.Now().Format("20060102_150405")

	switch params.Format {
	case "csv":
		filename := fmt.Sprintf("%s_export_%s.csv", name, timestamp)
		var buf bytes.Buffer
		cw := csv.NewWriter(&buf)
		if err := cw.Write(headers); err != nil {
			respondError(w, h.logger, http.StatusInternalServerError, "Failed to generate CSV")
			return
		}
		if err := cw.WriteAll(rows); err != nil {
			respondError(w, h.logger, http.StatusInternalServerError, "Failed to generate CSV")
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Write(buf.Bytes())

	case "json":
		cacheKey := redis_a.BuildKey(redis_a.PrefixExport, name, exportCacheKey(params))
		var cached []byte
		if err := h.cache.Get(ctx, cacheKey, &cached); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "HIT")
			w.Write(cached)
			return
		}

		data, err := json.Marshal(jsonBody())
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to marshal export",
				slog.String("error", err.Error()))
			respondError(w, h.logger, http.StatusInternalServerError, "Failed to generate JSON")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "MISS")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Write(data)

		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := h.cache.SetWithTTL(cacheCtx, cacheKey, data, 5*time.Minute); err != nil {
				h.logger.WarnContext(cacheCtx, "failed to cache export",
					slog.String("error", err.Error()))
			}
		}()

	default:
		filename := fmt.Sprintf("%s_export_%s.xlsx", name, timestamp)
		data, err := generateWorkbook(name, headers, rows)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to generate workbook",
				slog.String("error", err.Error()))
			respondError(w, h.logger, http.StatusInternalServerError, "Failed to generate Excel file")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Write(data)
	}

	h.logger.InfoContext(ctx, "export completed",
		slog.String("dataset", name),
		slog.String("format", params.Format),
		slog.Int("rows", len(rows)))
}

// collectInventory pages through the inventory list until exhausted or the
// export cap is hit.
func (h *ExportHandler) collectInventory(ctx context.Context, params *ExportParams) ([]*domain.InventoryItem, bool, error) {
	var items []*domain.InventoryItem

	listParams := ports.InventoryListParams{
		Category:  params.Category,
		Status:    params.Status,
		SortBy:    "created_at",
		SortOrder: "desc",
		Page:      1,
		PageSize:  exportPageSize,
	}

	for {
		page, err := h.inventoryService.List(ctx, listParams)
		if err != nil {
			return nil, false, err
		}
		items = append(items, page.Items...)

		if len(items) >= h.maxRows {
			return items[:h.maxRows], true, nil
		}
		if listParams.Page >= page.TotalPages {
			return items, false, nil
		}
		listParams.Page++
	}
}

func (h *ExportHandler) collectOrders(ctx context.Context, params *ExportParams) ([]*domain.Order, bool, error) {
	var orders []*domain.Order

	listParams := ports.OrderListParams{
		Type:      params.Type,
		Status:    params.Status,
		DateFrom:  params.DateFrom,
		DateTo:    params.DateTo,
		SortBy:    "created_at",
		SortOrder: "desc",
		Page:      1,
		PageSize:  exportPageSize,
	}

	for {
		page, err := h.orderService.List(ctx, listParams)
		if err != nil {
			return nil, false, err
		}
		orders = append(orders, page.Orders...)

		if len(orders) >= h.maxRows {
			return orders[:h.maxRows], true, nil
		}
		if listParams.Page >= page.TotalPages {
			return orders, false, nil
		}
		listParams.Page++
	}
}

const exportPageSize = 500

func parseExportParams(r *http.Request) *ExportParams {
	q := r.URL.Query()
	params := &ExportParams{
		Format:   q.Get("format"),
		Category: q.Get("category"),
		Status:   q.Get("status"),
		Type:     q.Get("type"),
	}

	switch params.Format {
	case "csv", "json", "xlsx":
	default:
		params.Format = "xlsx"
	}

	if from := q.Get("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			params.DateFrom = &t
		}
	}
	if to := q.Get("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			params.DateTo = &t
		}
	}

	return params
}

func exportCacheKey(params *ExportParams) string {
	key := fmt.Sprintf("cat_%s_st_%s_typ_%s", params.Category, params.Status, params.Type)
	if params.DateFrom != nil {
		key += "_from_" + params.DateFrom.Format("20060102")
	}
	if params.DateTo != nil {
		key += "_to_" + params.DateTo.Format("20060102")
	}
	return key
}

func generateWorkbook(sheetName string, headers []string, rows [][]string) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	for _, row := range rows {
		dataRow := sheet.AddRow()
		for _, value := range row {
			dataRow.AddCell().Value = value
		}
	}

	// SetColWidth is 1-based.
	for i := range headers {
		sheet.SetColWidth(i+1, i+1, 18)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func inventoryExportHeaders() []string {
	return []string{
		"SKU", "Name", "Category", "Quantity", "Unit", "Reorder Point",
		"Reorder Quantity", "Unit Cost", "Total Value", "Status",
		"Warehouse", "Zone", "Bin", "Supplier ID", "Last Restocked",
		"Batch Number", "Created At", "Updated At",
	}
}

func inventoryExportRow(item *domain.InventoryItem) []string {
	return []string{
		item.SKU,
		item.Name,
		string(item.Category),
		strconv.Itoa(item.Quantity),
		item.Unit,
		strconv.Itoa(item.ReorderPoint),
		strconv.Itoa(item.ReorderQuantity),
		item.UnitCost.StringFixed(2),
		item.TotalValue.StringFixed(2),
		string(item.Status),
		item.Warehouse.Location,
		item.Warehouse.Zone,
		item.Warehouse.Bin,
		uuidString(item.SupplierID),
		dateString(item.LastRestocked),
		item.BatchNumber,
		item.CreatedAt.Format("2006-01-02 15:04:05"),
		item.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func orderExportHeaders() []string {
	return []string{
		"Order Number", "Type", "Status", "Priority", "Customer",
		"Supplier ID", "Line Items", "Subtotal", "Tax", "Shipping",
		"Discount", "Total", "Currency", "Payment Status", "Carrier",
		"Tracking Number", "Order Date", "Created At",
	}
}

func orderExportRow(order *domain.Order) []string {
	return []string{
		order.OrderNumber,
		string(order.Type),
		string(order.Status),
		string(order.Priority),
		order.Customer.Name,
		uuidString(order.SupplierID),
		strconv.Itoa(len(order.Items)),
		order.Pricing.Subtotal.StringFixed(2),
		order.Pricing.Tax.StringFixed(2),
		order.Pricing.Shipping.StringFixed(2),
		order.Pricing.Discount.StringFixed(2),
		order.Pricing.Total.StringFixed(2),
		order.Pricing.Currency,
		string(order.Payment.Status),
		order.Shipping.Carrier,
		order.Shipping.TrackingNumber,
		order.Dates.OrderDate.Format("2006-01-02"),
		order.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func dateString(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
