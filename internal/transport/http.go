package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotegen/quote-service/internal/config"
	"github.com/quotegen/quote-service/internal/handler"
	"github.com/quotegen/quote-service/internal/notify"
	"github.com/quotegen/quote-service/internal/pdf"
	"github.com/quotegen/quote-service/internal/quote"
)

// NewService wires the repository, notifier and PDF generator into the quote
// service.
func NewService(pool *pgxpool.Pool, cfg *config.Config) quote.Service {
	repo := quote.NewRepository(pool)

	var notifier quote.Notifier = notify.Nop{}
	if cfg.Email.ServiceURL != "" {
		notifier = notify.NewEmailNotifier(cfg.Email.ServiceURL, cfg.Email.From)
	}

	return quote.NewService(repo, notifier, pdf.New(cfg.App.CompanyName))
}

func NewRouter(svc quote.Service) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	h := handler.NewQuoteHandler(svc)
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r)
	})

	return r
}
