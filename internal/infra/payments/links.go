package payments

import (
	"net/url"
	"strings"
)

type Links struct {
	baseURL string
	token   string
}

// NewLinks baseURL или token пустой: ссылки не строятся (страница оплаты закрыта токеном).
func NewLinks(baseURL, token string) *Links {
	return &Links{baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// PaidURL ссылка на страницу подтверждения оплаты заказа.
func (l *Links) PaidURL(orderID string) string {
	return l.build("order", strings.TrimSpace(orderID))
}

// CustomerPaidURL то же для всех заказов клиента.
func (l *Links) CustomerPaidURL(key string) string {
	return l.build("customer", key)
}

func (l *Links) build(param, value string) string {
	if l == nil || l.baseURL == "" || l.token == "" {
		return ""
	}
	q := url.Values{}
	q.Set(param, value)
	q.Set("token", l.token)
	return l.baseURL + "/payments/paid?" + q.Encode()
}
