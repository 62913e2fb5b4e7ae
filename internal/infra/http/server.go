package http

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Metrics bool
	// Token общий ключ для /api и /payments; пустой: эти маршруты не подключаются
	Token string
}

type Server struct {
	srv *http.Server
}

// New routes: дополнительные обработчики (API отчётов, оплаты); nil допускается.
func New(addr string, opts Options, routes ...func(*http.ServeMux)) *Server {
	return &Server{srv: &http.Server{Addr: addr, Handler: NewMux(opts, routes...)}}
}

// NewMux /health и /metrics открыты, всё из routes только с токеном.
func NewMux(opts Options, routes ...func(*http.ServeMux)) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if opts.Metrics {
		mux.Handle("/metrics", promhttp.Handler())
	}

	if opts.Token == "" {
		return mux
	}
	guarded := http.NewServeMux()
	for _, r := range routes {
		if r != nil {
			r(guarded)
		}
	}
	mux.Handle("/", RequireToken(opts.Token, guarded))
	return mux
}

// RequireToken пропускает запрос с "Authorization: Bearer <token>" или ?token=<token>.
func RequireToken(token string, next http.Handler) http.Handler {
	want := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.URL.Query().Get("token")
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			got = strings.TrimPrefix(h, "Bearer ")
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="batchbook"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
