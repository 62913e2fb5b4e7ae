package batches

const (
	DefaultOatRate            = 28.0
	DefaultDeliveryFeePerItem = 100.0
)

// Cost затраты по партии; не больше одной записи на имя партии.
type Cost struct {
	BatchName      string  `json:"batchName"`
	TotalCostPrice float64 `json:"totalCostPrice"`
	OatInputValue  float64 `json:"oatInputValue"`
	// nil: считать доставку по количеству штук в партии
	DeliveryFeeQuantity *float64 `json:"deliveryFeeQuantity,omitempty"`
}

type Rates struct {
	OatRate            float64
	DeliveryFeePerItem float64
}

func DefaultRates() Rates {
	return Rates{OatRate: DefaultOatRate, DeliveryFeePerItem: DefaultDeliveryFeePerItem}
}

func (c Cost) OatPayment(r Rates) float64 { return c.OatInputValue * r.OatRate }

// DeliveryQty количество для расчёта доставки: ручное значение или штуки партии.
func (c Cost) DeliveryQty(items int) float64 {
	if c.DeliveryFeeQuantity != nil {
		return *c.DeliveryFeeQuantity
	}
	return float64(items)
}

func (c Cost) DeliveryFee(items int, r Rates) float64 { return c.DeliveryQty(items) * r.DeliveryFeePerItem }

// Expenses все затраты партии: себестоимость + oat + доставка.
func (c Cost) Expenses(items int, r Rates) float64 {
	return c.TotalCostPrice + c.OatPayment(r) + c.DeliveryFee(items, r)
}

// Find запись затрат по имени партии; при отсутствии: нулевые затраты без ручного количества.
func Find(list []Cost, batchName string) (Cost, bool) {
	for _, c := range list {
		if c.BatchName == batchName {
			return c, true
		}
	}
	return Cost{BatchName: batchName}, false
}

func Qty(v float64) *float64 { return &v }
