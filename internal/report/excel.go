package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
)

// Workbook данные для выгрузки отчёта в Excel.
type Workbook struct {
	Title     string
	Generated time.Time
	Batches   []Summary
	Months    []Summary
	Customers []CustomerTrend
}

func (e *Engine) BuildWorkbook(title string, list []orders.Order, costs []batches.Cost, now time.Time) Workbook {
	return Workbook{
		Title:     title,
		Generated: now,
		Batches:   e.Batches(list, costs),
		Months:    e.Months(list, costs),
		Customers: e.Customers(list, costs),
	}
}

var summaryHeader = []string{
	"Batch", "Month", "Orders", "Items", "Sales", "Cost price", "Delivery", "Oat", "Net profit",
}

var customerHeader = []string{
	"Customer", "Phone", "Address", "Orders", "Sales", "Cost price", "Oat", "Delivery", "Net profit", "Last order",
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func headerRow(f *excelize.File, sheet string, row int, cols []string) error {
	values := make([]any, len(cols))
	for i, c := range cols {
		values[i] = c
	}
	if err := setRow(f, sheet, row, values...); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(len(cols), row)
	return f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), last, style)
}

func writeSummarySheet(f *excelize.File, sheet, title string, rows []Summary) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "I1"); err != nil {
		return err
	}

	rowIdx := 3
	if err := headerRow(f, sheet, rowIdx, summaryHeader); err != nil {
		return err
	}
	rowIdx++

	for _, r := range rows {
		if err := setRow(f, sheet, rowIdx,
			r.BatchName, r.MonthYear, r.OrderCount, r.TotalItems, r.TotalSales,
			r.TotalCostPrice, r.DeliveryFee, r.OatPayment, r.NetProfit,
		); err != nil {
			return err
		}
		rowIdx++
	}

	t := Totals(rows)
	return setRow(f, sheet, rowIdx,
		t.BatchName, "", t.OrderCount, t.TotalItems, t.TotalSales,
		t.TotalCostPrice, t.DeliveryFee, t.OatPayment, t.NetProfit,
	)
}

func writeCustomerSheet(f *excelize.File, sheet, title string, rows []CustomerTrend, loc *time.Location) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "A1", "J1"); err != nil {
		return err
	}

	rowIdx := 3
	if err := headerRow(f, sheet, rowIdx, customerHeader); err != nil {
		return err
	}
	rowIdx++

	for _, r := range rows {
		last := ""
		if r.LastOrderDate > 0 {
			last = time.UnixMilli(r.LastOrderDate).In(loc).Format("02.01.2006")
		}
		if err := setRow(f, sheet, rowIdx,
			r.CustomerName, r.PhoneNumber, r.PrimaryAddress, r.TotalOrders, r.TotalSales,
			r.TotalCostPrice, r.TotalOat, r.TotalDelivery, r.NetProfit, last,
		); err != nil {
			return err
		}
		rowIdx++
	}

	t := CustomerTotals(rows)
	return setRow(f, sheet, rowIdx,
		t.CustomerName, "", "", t.TotalOrders, t.TotalSales,
		t.TotalCostPrice, t.TotalOat, t.TotalDelivery, t.NetProfit, "",
	)
}

// WriteWorkbook пишет xlsx с листами Batches / Months / Customers.
func (e *Engine) WriteWorkbook(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// дефолтный лист удалим после создания своих
	defaultSheet := f.GetSheetName(f.GetActiveSheetIndex())

	stamp := wb.Generated.In(e.loc).Format("02.01.2006 15:04")
	if err := writeSummarySheet(f, "Batches", fmt.Sprintf("%s: batch report (%s)", wb.Title, stamp), wb.Batches); err != nil {
		return err
	}
	if err := writeSummarySheet(f, "Months", fmt.Sprintf("%s: monthly report (%s)", wb.Title, stamp), wb.Months); err != nil {
		return err
	}
	if err := writeCustomerSheet(f, "Customers", fmt.Sprintf("%s: customer trends (%s)", wb.Title, stamp), wb.Customers, e.loc); err != nil {
		return err
	}

	if defaultSheet != "" {
		_ = f.DeleteSheet(defaultSheet)
	}
	if idx, err := f.GetSheetIndex("Batches"); err == nil {
		f.SetActiveSheet(idx)
	}

	return f.Write(w)
}
