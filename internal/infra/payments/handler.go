package payments

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Spok95/batchbook/internal/domain/orders"
	"github.com/Spok95/batchbook/internal/store"
)

type Handler struct {
	log   *slog.Logger
	store *store.Store
}

func NewHandler(log *slog.Logger, st *store.Store) *Handler {
	return &Handler{
		log:   log,
		store: st,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("/payments/paid", h)
}

// ServeHTTP отметка полной оплаты по ссылке:
// /payments/paid?order=<id>: один заказ, /payments/paid?customer=<name_phone>: все заказы клиента.
// GET только показывает страницу подтверждения (по ссылке ходят и превью мессенджеров),
// отмечает оплату POST.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	orderID := strings.TrimSpace(q.Get("order"))
	customer := q.Get("customer")

	var ids []string
	switch {
	case orderID != "":
		if _, ok := h.store.Order(orderID); !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("order not found"))
			return
		}
		ids = []string{orderID}
	case customer != "":
		ids = h.store.CustomerOrderIDs(orders.ParseCustomerKey(customer))
		if len(ids) == 0 {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("customer not found"))
			return
		}
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("missing order or customer parameter"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	subject := html.EscapeString(orderID + customer)

	if r.Method == http.MethodGet {
		_, _ = fmt.Fprintf(w,
			`<html><body><h1>Подтвердите оплату</h1><p>Заказов: %d (%s).</p>`+
				`<form method="post" action="%s"><button type="submit">Оплата получена</button></form></body></html>`,
			len(ids), subject, html.EscapeString(r.URL.RequestURI()),
		)
		return
	}

	n := h.store.MarkPaid(ids...)
	h.log.Info("orders marked as paid",
		"order_id", orderID,
		"customer", customer,
		"updated", n,
	)

	_, _ = fmt.Fprintf(w,
		"<html><body><h1>Оплата получена</h1><p>Отмечено оплаченными: %d из %d (%s).</p></body></html>",
		n, len(ids), subject,
	)
}
