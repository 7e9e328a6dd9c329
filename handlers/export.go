package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"p9e.in/fleetparts/config"
	"p9e.in/fleetparts/middleware"
	"p9e.in/fleetparts/models"
)

// ExportHandler produces spreadsheet downloads of orders and quote
// requests
type ExportHandler struct {
	db *gorm.DB
}

// NewExportHandler creates a new export handler
func NewExportHandler() *ExportHandler {
	return &ExportHandler{db: config.DB}
}

var orderExportHeaders = []string{
	"Order Number", "Status", "Supplier", "Fulfillment", "Tracking Number",
	"Total Amount", "Created", "Items",
}

var quoteExportHeaders = []string{
	"Quote Number", "Title", "Status", "Supplier", "Total Amount",
	"Expiry Date", "Created",
}

// Orders exports the organization's orders as xlsx or csv, selected by
// the format query parameter.
func (h *ExportHandler) Orders(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	query := h.db.Preload("Supplier").Preload("Items").
		Where("organization_id = ?", auth.OrganizationID)
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch orders", nil)
		return
	}

	rows := make([][]string, 0, len(orders))
	for _, order := range orders {
		supplierName := ""
		if order.Supplier != nil {
			supplierName = order.Supplier.Name
		}
		rows = append(rows, []string{
			order.OrderNumber,
			string(order.Status),
			supplierName,
			string(order.FulfillmentMethod),
			order.TrackingNumber,
			strconv.FormatFloat(order.TotalAmount, 'f', 2, 64),
			order.CreatedAt.Format("2006-01-02"),
			strconv.Itoa(len(order.Items)),
		})
	}

	h.write(w, r, "orders", orderExportHeaders, rows)
}

// QuoteRequests exports the organization's quote requests as xlsx or
// csv.
func (h *ExportHandler) QuoteRequests(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuthContext(r)
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}

	query := h.db.Preload("Supplier").
		Where("organization_id = ?", auth.OrganizationID)
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.QuoteRequest
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch quote requests", nil)
		return
	}

	rows := make([][]string, 0, len(requests))
	for _, qr := range requests {
		supplierName := ""
		if qr.Supplier != nil {
			supplierName = qr.Supplier.Name
		}
		expiry := ""
		if qr.ExpiryDate != nil {
			expiry = qr.ExpiryDate.Format("2006-01-02")
		}
		rows = append(rows, []string{
			qr.QuoteNumber,
			qr.Title,
			string(qr.Status),
			supplierName,
			strconv.FormatFloat(qr.TotalAmount, 'f', 2, 64),
			expiry,
			qr.CreatedAt.Format("2006-01-02"),
		})
	}

	h.write(w, r, "quote_requests", quoteExportHeaders, rows)
}

// write renders the rows in the requested format and streams the
// download. The format comes from the route's file extension.
func (h *ExportHandler) write(w http.ResponseWriter, r *http.Request, name string, headers []string, rows [][]string) {
	format := strings.ToLower(mux.Vars(r)["format"])
	if format == "" {
		format = "xlsx"
	}

	filename := fmt.Sprintf("%s_%s.%s", name, time.Now().Format("20060102_150405"), format)

	switch format {
	case "csv":
		data, err := buildCSV(headers, rows)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to generate CSV file", nil)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		w.Write(data)

	case "xlsx":
		f, err := buildWorkbook(name, headers, rows)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to generate Excel file", nil)
			return
		}
		buffer, err := f.WriteToBuffer()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to write Excel file", nil)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
		w.Header().Set("Content-Length", strconv.Itoa(buffer.Len()))
		w.WriteHeader(http.StatusOK)
		w.Write(buffer.Bytes())

	default:
		respondError(w, http.StatusBadRequest, "validation failed", map[string]string{"format": "must be xlsx or csv"})
	}
}

func buildCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(headers); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildWorkbook(title string, headers []string, rows [][]string) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Export"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "center",
		},
	})
	f.SetCellValue(sheetName, "A1", title)
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.SetRowHeight(sheetName, 1, 30)
	f.SetCellValue(sheetName, "A2", fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})

	for colIdx, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 4)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
		col, _ := excelize.ColumnNumberToName(colIdx + 1)
		f.SetColWidth(sheetName, col, col, 20)
	}

	for rowIdx, row := range rows {
		for colIdx, value := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+5)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	return f, nil
}
