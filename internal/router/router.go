package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lavapp/api/internal/config"
	"github.com/lavapp/api/internal/database"
	"github.com/lavapp/api/internal/handler"
	mw "github.com/lavapp/api/internal/middleware"
	"github.com/lavapp/api/internal/notify"
	"github.com/lavapp/api/internal/service"
	"github.com/lavapp/api/internal/wizard"
	"github.com/lavapp/api/internal/ws"
)

// New creates a Chi router with all application routes wired up. Protected
// routes are gated per URL prefix via the role permission table.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "https://lavapp.com"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, queries, newOrderStore)
	whatsapp := notify.NewWhatsApp(cfg.WhatsAppNumber, cfg.TrackingURL)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	trackingHandler := handler.NewTrackingHandler(orderService)
	trackingHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequirePermission)

		dashboardHandler := handler.NewDashboardHandler(queries, orderService)
		r.Route("/dashboard", dashboardHandler.RegisterRoutes)

		calendarHandler := handler.NewCalendarHandler(orderService)
		r.Route("/calendar", calendarHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(orderService, hub, whatsapp)
		r.Route("/orders", orderHandler.RegisterRoutes)

		customerHandler := handler.NewCustomerHandler(queries, orderService)
		r.Route("/customers", customerHandler.RegisterRoutes)

		pieceHandler := handler.NewPieceHandler(queries)
		r.Route("/pieces", pieceHandler.RegisterRoutes)

		wizardHandler := handler.NewWizardHandler(wizard.NewStore(), queries, orderService, hub)
		r.Route("/wizard", wizardHandler.RegisterRoutes)

		reportHandler := handler.NewReportHandler(queries)
		r.Route("/reports", reportHandler.RegisterRoutes)

		settingsHandler := handler.NewSettingsHandler(queries)
		r.Route("/settings", settingsHandler.RegisterRoutes)
	})

	return r
}
