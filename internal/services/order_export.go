package services

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"tailor-app/internal/models"
)

const (
	exportSheet   = "Orders"
	exportMaxRows = 5000
)

var exportColumns = []string{
	"Order ID", "Created At", "Shop", "Client", "Client Number",
	"Category", "Subcategory", "Pickup Date", "Delivery Date",
}

// ExportOrders renders every order matching filter, newest first, as an XLSX workbook.
// It returns the workbook bytes and the number of orders written.
func (s *orderService) ExportOrders(ctx context.Context, filter models.OrderFilter) ([]byte, int, error) {
	orders, err := s.repo.FindAll(ctx, s.resolveFilter(filter), exportMaxRows)
	if err != nil {
		return nil, 0, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, 0, err
	}

	keys := measurementKeys(orders)
	header := make([]interface{}, 0, len(exportColumns)+len(keys))
	for _, c := range exportColumns {
		header = append(header, c)
	}
	for _, k := range keys {
		header = append(header, k)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, 0, err
	}

	for i, o := range orders {
		row := []interface{}{
			o.ID.Hex(),
			o.CreatedAt.UTC().Format("2006-01-02 15:04"),
			o.ShopName,
			o.ClientName,
			o.ClientNumber,
			s.categoryName(o.Category),
			o.Subcategory,
			o.PickupDate,
			o.DeliveryDate,
		}
		for _, k := range keys {
			if v, ok := o.Measurements[k]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, 0, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, 0, err
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, 0, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, 0, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), len(orders), nil
}

func (s *orderService) categoryName(id string) string {
	if c, err := s.taxonomy.Category(id); err == nil {
		return c.Name
	}
	return id
}

func measurementKeys(orders []models.Order) []string {
	seen := make(map[string]struct{})
	for _, o := range orders {
		for k := range o.Measurements {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
