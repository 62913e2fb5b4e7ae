package orders

import "math"

// ItemInput позиция в форме нового заказа (цена без надбавки).
type ItemInput struct {
	ProductName string
	BasePrice   float64
	Quantity    int
}

// Common общие для всех позиций поля одной отправки формы.
type Common struct {
	BatchName             string
	CustomerName          string
	Address               string
	PhoneNumber           string
	TransportMode         TransportMode
	Note                  string
	IsFullPaymentReceived bool
}

func (it ItemInput) subtotal(surcharge float64) float64 {
	return (it.BasePrice + surcharge) * float64(it.Quantity)
}

// Allocate делит один аванс между позициями пропорционально их сумме.
// Все позиции, кроме последней, получают floor(advance*share), последняя: остаток,
// так что сумма всегда равна advance. При полной оплате каждая позиция получает свою сумму.
func Allocate(items []ItemInput, surcharge, advance float64, fullyPaid bool) []float64 {
	out := make([]float64, len(items))
	if len(items) == 0 {
		return out
	}

	total := 0.0
	for _, it := range items {
		total += it.subtotal(surcharge)
	}

	if fullyPaid {
		for i, it := range items {
			out[i] = it.subtotal(surcharge)
		}
		return out
	}
	if total == 0 {
		return out
	}

	distributed := 0.0
	last := len(items) - 1
	for i, it := range items[:last] {
		out[i] = math.Floor(advance * it.subtotal(surcharge) / total)
		distributed += out[i]
	}
	out[last] = advance - distributed
	return out
}

// BuildInputs собирает формы позиций одной отправки с распределённым авансом.
func BuildInputs(c Common, items []ItemInput, surcharge, advance float64) ([]Input, error) {
	if len(items) == 0 {
		return nil, ErrEmptySubmission
	}
	adv := Allocate(items, surcharge, advance, c.IsFullPaymentReceived)

	out := make([]Input, 0, len(items))
	for i, it := range items {
		out = append(out, Input{
			BatchName:             c.BatchName,
			CustomerName:          c.CustomerName,
			Address:               c.Address,
			PhoneNumber:           c.PhoneNumber,
			ProductName:           it.ProductName,
			SellingPrice:          it.BasePrice + surcharge,
			Quantity:              it.Quantity,
			AdvancePaid:           adv[i],
			TransportMode:         c.TransportMode,
			Note:                  c.Note,
			IsFullPaymentReceived: c.IsFullPaymentReceived,
		})
	}
	return out, nil
}
