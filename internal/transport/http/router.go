package http

import (
	"net/http"
	"strings"
	"time"

	"veriscan/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	CORSOrigins string // comma-separated; empty means allow all
	RateLimit   int    // requests per minute per IP; 0 disables
}

func NewRouter(auth service.AuthService, analysis service.AnalysisService, tokens service.TokenService, cfg RouterConfig) http.Handler {
	ah := NewAuthHandler(auth)
	xh := NewAnalysisHandler(analysis)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(2 * time.Minute))
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(cfg.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		// OTP issuance is the abuse magnet; keep its own tighter limit.
		r.With(httprate.LimitByIP(10, 1*time.Minute)).Post("/send-otp", ah.SendOTP)
		r.Post("/verify-otp", ah.VerifyOTP)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(RequireSession(tokens))

		pr.Post("/api/analyze", xh.Analyze)
		pr.Post("/api/webscan", xh.WebScan)
		pr.Post("/api/summarize", xh.Summarize)
		pr.Get("/api/history", xh.History)
	})

	return r
}

func splitOrigins(in string) []string {
	out := []string{}
	for _, o := range strings.Split(in, ",") {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
