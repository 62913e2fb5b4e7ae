package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Spok95/batchbook/internal/dialog"
	"github.com/Spok95/batchbook/internal/domain/orders"
)

// orderDraft черновик заказа между шагами диалога (лежит в payload["draft"]).
type orderDraft struct {
	EditID    string      `json:"edit_id,omitempty"`
	Batch     string      `json:"batch"`
	Customer  string      `json:"customer"`
	Address   string      `json:"address"`
	Phone     string      `json:"phone"`
	Transport string      `json:"transport"`
	Items     []draftItem `json:"items"`
	Advance   float64     `json:"advance"`
	Paid      bool        `json:"paid"`
	Note      string      `json:"note"`
	// шаг открыт из подтверждения: после него сразу обратно к подтверждению
	Jump bool `json:"jump,omitempty"`
}

type draftItem struct {
	Product string  `json:"product"`
	Price   float64 `json:"price"` // без надбавки
	Qty     int     `json:"qty"`
}

func loadDraft(p dialog.Payload) orderDraft {
	var d orderDraft
	raw, err := json.Marshal(p["draft"])
	if err != nil {
		return d
	}
	_ = json.Unmarshal(raw, &d)
	return d
}

func (d orderDraft) payload() dialog.Payload {
	raw, _ := json.Marshal(d)
	m := map[string]any{}
	_ = json.Unmarshal(raw, &m)
	return dialog.Payload{"draft": m}
}

func (d orderDraft) common() orders.Common {
	return orders.Common{
		BatchName:             d.Batch,
		CustomerName:          strings.TrimSpace(d.Customer),
		Address:               d.Address,
		PhoneNumber:           d.Phone,
		TransportMode:         orders.ParseTransport(d.Transport),
		Note:                  d.Note,
		IsFullPaymentReceived: d.Paid,
	}
}

func (d orderDraft) itemInputs() []orders.ItemInput {
	out := make([]orders.ItemInput, 0, len(d.Items))
	for _, it := range d.Items {
		out = append(out, orders.ItemInput{ProductName: it.Product, BasePrice: it.Price, Quantity: it.Qty})
	}
	return out
}

// inputs готовые формы с распределённым авансом, уже проверенные.
func (d orderDraft) inputs(surcharge float64) ([]orders.Input, error) {
	in, err := orders.BuildInputs(d.common(), d.itemInputs(), surcharge, d.Advance)
	if err != nil {
		return nil, err
	}
	if err := orders.ValidateAll(in); err != nil {
		return nil, err
	}
	return in, nil
}

// draftFromOrder заготовка для /add: клиент и партия из существующего заказа.
func draftFromOrder(o orders.Order) orderDraft {
	return orderDraft{
		Batch:     o.BatchName,
		Customer:  o.CustomerName,
		Address:   o.Address,
		Phone:     o.PhoneNumber,
		Transport: string(o.TransportMode),
	}
}

// draftForEdit для /edit: одна позиция, цена без надбавки.
func draftForEdit(o orders.Order, surcharge float64) orderDraft {
	d := draftFromOrder(o)
	d.EditID = o.ID
	d.Items = []draftItem{{Product: o.ProductName, Price: o.SellingPrice - surcharge, Qty: o.Quantity}}
	d.Advance = o.AdvancePaid
	d.Paid = o.IsFullPaymentReceived
	d.Note = o.Note
	return d
}

var shortBatchRe = regexp.MustCompile(`^(\d{6})-(\d{2})$`)

// normalizeBatch принимает BATCH-YYYYMM-NN или короткое YYYYMM-NN.
func normalizeBatch(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if _, _, _, ok := orders.ParseBatchName(s); ok {
		return s, true
	}
	if m := shortBatchRe.FindStringSubmatch(s); m != nil {
		name := "BATCH-" + m[1] + "-" + m[2]
		if _, _, _, ok := orders.ParseBatchName(name); ok {
			return name, true
		}
	}
	return "", false
}

// parseMoney "1 500", "1500,50", "1500.5"; отрицательные не принимаются.
func parseMoney(s string) (float64, error) {
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, errors.New("пустое значение")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("не число: %q", s)
	}
	if v < 0 {
		return 0, errors.New("отрицательное значение")
	}
	return v, nil
}

// parseItems по строке на позицию: "товар; цена; кол-во".
func parseItems(text string) ([]draftItem, error) {
	var out []draftItem
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ";")
		if len(parts) != 3 {
			return nil, fmt.Errorf("строка %d: нужно «товар; цена; кол-во»", i+1)
		}
		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, fmt.Errorf("строка %d: пустое название", i+1)
		}
		price, err := parseMoney(parts[1])
		if err != nil {
			return nil, fmt.Errorf("строка %d: цена: %w", i+1, err)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || qty < 1 {
			return nil, fmt.Errorf("строка %d: количество должно быть целым ≥ 1", i+1)
		}
		out = append(out, draftItem{Product: name, Price: price, Qty: qty})
	}
	if len(out) == 0 {
		return nil, orders.ErrEmptySubmission
	}
	return out, nil
}

// optional "-" в необязательном поле означает пусто.
func optional(s string) string {
	s = strings.TrimSpace(s)
	if s == "-" {
		return ""
	}
	return s
}
