package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/batchbook/internal/domain/batches"
	"github.com/Spok95/batchbook/internal/domain/orders"
	"github.com/Spok95/batchbook/internal/store"
)

const (
	OrdersSheet = "Orders"
	CostsSheet  = "BatchCosts"
)

// Workbook xlsx-файл с листами Orders и BatchCosts, та же раскладка колонок, что и в таблице.
// Первая строка каждого листа: заголовок.
type Workbook struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewWorkbook(path string) (*Workbook, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrNotConfigured
	}
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return nil, fmt.Errorf("bridge: workbook %q: expected .xlsx", path)
	}
	return &Workbook{path: path, now: time.Now}, nil
}

func (w *Workbook) Name() string { return "workbook" }

func (w *Workbook) Load(_ context.Context) (store.Snapshot, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	orderRows, costRows, err := w.read()
	if err != nil {
		return store.Snapshot{}, err
	}
	return store.Snapshot{
		Orders:     ParseOrderRows(orderRows, w.now().UnixMilli()),
		BatchCosts: ParseCostRows(costRows),
	}, nil
}

func (w *Workbook) SaveOrders(_ context.Context, list []orders.Order) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, costRows, err := w.read()
	if err != nil {
		return err
	}
	return w.write(OrderRows(list), costRows)
}

func (w *Workbook) SaveBatchCosts(_ context.Context, list []batches.Cost) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	orderRows, _, err := w.read()
	if err != nil {
		return err
	}
	return w.write(orderRows, CostRows(list))
}

// read строки обоих листов без заголовков. Нет файла: пустая книга.
func (w *Workbook) read() (orderRows, costRows [][]any, err error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("bridge: open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if orderRows, err = readSheet(f, OrdersSheet); err != nil {
		return nil, nil, err
	}
	if costRows, err = readSheet(f, CostsSheet); err != nil {
		return nil, nil, err
	}
	return orderRows, costRows, nil
}

func readSheet(f *excelize.File, sheet string) ([][]any, error) {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, nil
	}
	// сырые значения: без форматирования чисел и с 1/0 для булевых ячеек
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("bridge: read sheet %s: %w", sheet, err)
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		row := make([]any, len(r))
		for i, v := range r {
			row[i] = v
		}
		out = append(out, row)
	}
	return out, nil
}

// write собирает книгу заново и подменяет файл через rename.
func (w *Workbook) write(orderRows, costRows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), OrdersSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(CostsSheet); err != nil {
		return err
	}
	if err := writeSheet(f, OrdersSheet, OrderHeader, orderRows); err != nil {
		return err
	}
	if err := writeSheet(f, CostsSheet, CostHeader, costRows); err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".batchbook-*.xlsx")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := f.Write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("bridge: write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), w.path)
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	for i, r := range rows {
		row := r
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
