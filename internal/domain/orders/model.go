package orders

import (
	"errors"
	"math"
	"strings"
	"time"
)

type TransportMode string

const (
	TransportBus  TransportMode = "Bus"
	TransportTaxi TransportMode = "Taxi"
	TransportPost TransportMode = "Post"
	TransportKeep TransportMode = "Keep at Shop"
)

const DefaultTransport = TransportKeep

// FixedCharge сервисная надбавка, прибавляется к базовой цене каждой позиции при вводе.
const FixedCharge = 150.0

var TransportModes = []TransportMode{TransportBus, TransportTaxi, TransportPost, TransportKeep}

var ErrEmptySubmission = errors.New("orders: empty submission")

// ParseTransport возвращает режим доставки; пустое/неизвестное значение -> Keep at Shop
func ParseTransport(s string) TransportMode {
	s = strings.TrimSpace(s)
	for _, m := range TransportModes {
		if strings.EqualFold(s, string(m)) {
			return m
		}
	}
	return DefaultTransport
}

// Order одна позиция заказа клиента.
type Order struct {
	ID        string `json:"id"`
	GroupID   string `json:"groupId,omitempty"`
	CreatedAt int64  `json:"createdAt"` // epoch ms

	BatchName string `json:"batchName"`

	CustomerName string `json:"customerName"`
	Address      string `json:"address"`
	PhoneNumber  string `json:"phoneNumber"`

	ProductName  string  `json:"productName"`
	SellingPrice float64 `json:"sellingPrice"` // уже с FixedCharge
	Quantity     int     `json:"quantity"`

	AdvancePaid   float64       `json:"advancePaid"`
	TransportMode TransportMode `json:"transportMode"`
	Note          string        `json:"note,omitempty"`

	IsFullPaymentReceived bool `json:"isFullPaymentReceived"`
}

// Input данные формы: всё, кроме ID, CreatedAt и GroupID (их назначает store).
type Input struct {
	BatchName             string        `json:"batchName" validate:"required"`
	CustomerName          string        `json:"customerName" validate:"required"`
	Address               string        `json:"address"`
	PhoneNumber           string        `json:"phoneNumber"`
	ProductName           string        `json:"productName"`
	SellingPrice          float64       `json:"sellingPrice" validate:"gte=0"`
	Quantity              int           `json:"quantity" validate:"gte=1"`
	AdvancePaid           float64       `json:"advancePaid" validate:"gte=0"`
	TransportMode         TransportMode `json:"transportMode" validate:"required,oneof=Bus Taxi Post 'Keep at Shop'"`
	Note                  string        `json:"note,omitempty"`
	IsFullPaymentReceived bool          `json:"isFullPaymentReceived"`
}

func (o Order) Total() float64 { return o.SellingPrice * float64(o.Quantity) }

// Due остаток к оплате; при полной оплате всегда 0, отрицательным не бывает.
func (o Order) Due() float64 {
	if o.IsFullPaymentReceived {
		return 0
	}
	return math.Max(0, o.Total()-o.AdvancePaid)
}

func (o Order) Paid() float64 {
	if o.IsFullPaymentReceived {
		return o.Total()
	}
	return o.AdvancePaid
}

func (o Order) Created() time.Time { return time.UnixMilli(o.CreatedAt) }

func (o Order) Key() CustomerKey { return NewCustomerKey(o.CustomerName, o.PhoneNumber) }

// Input форма, из которой можно заново собрать эту позицию (для редактирования).
func (o Order) Input() Input {
	return Input{
		BatchName:             o.BatchName,
		CustomerName:          o.CustomerName,
		Address:               o.Address,
		PhoneNumber:           o.PhoneNumber,
		ProductName:           o.ProductName,
		SellingPrice:          o.SellingPrice,
		Quantity:              o.Quantity,
		AdvancePaid:           o.AdvancePaid,
		TransportMode:         o.TransportMode,
		Note:                  o.Note,
		IsFullPaymentReceived: o.IsFullPaymentReceived,
	}
}

// Apply переносит поля формы в заказ, не трогая ID/CreatedAt/GroupID.
func (o Order) Apply(in Input) Order {
	o.BatchName = in.BatchName
	o.CustomerName = in.CustomerName
	o.Address = in.Address
	o.PhoneNumber = in.PhoneNumber
	o.ProductName = in.ProductName
	o.SellingPrice = in.SellingPrice
	o.Quantity = in.Quantity
	o.AdvancePaid = in.AdvancePaid
	o.TransportMode = in.TransportMode
	o.Note = in.Note
	o.IsFullPaymentReceived = in.IsFullPaymentReceived
	return o
}

// SameID сравнение идентификаторов как обрезанных строк (из таблицы приходят с пробелами).
func SameID(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
