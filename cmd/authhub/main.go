package main

import (
	"log"
	"net/http"
	"os"

	"github.com/c24tools/authhub/internal/auth/cafe24"
	"github.com/c24tools/authhub/internal/auth/token"
	"github.com/c24tools/authhub/internal/config"
	"github.com/c24tools/authhub/internal/db"
	"github.com/c24tools/authhub/internal/store"
	"github.com/c24tools/authhub/internal/upstream"
	"github.com/c24tools/authhub/internal/version"
	"github.com/c24tools/authhub/internal/web/handlers"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfgPath := os.Getenv("AUTHHUB_CONFIG")
	if cfgPath == "" {
		cfgPath = "authhub.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Refresh history database
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Account store with its legacy-config and env-file projections
	accounts := store.New(cfg.StorePath, cfg.LegacyConfigPath, cfg.EnvFilePath)

	// Token client and lifecycle manager
	oauthClient := cafe24.NewClient(cfg.APIHost)
	manager := token.NewManager(accounts, oauthClient, database)
	manager.StartSweepLoop(cfg.Interval())

	adminClient := upstream.NewClient(cfg.APIHost, cfg.APIVersion)

	// Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Optional admin auth middleware
	adminPassword := os.Getenv("AUTHHUB_ADMIN_PASSWORD")
	optionalAdminAuth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminPassword == "" {
				next.ServeHTTP(w, r)
				return
			}
			_, pass, ok := r.BasicAuth()
			if !ok || pass != adminPassword {
				w.Header().Set("WWW-Authenticate", `Basic realm="Auth Hub"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Dashboard (protected if AUTHHUB_ADMIN_PASSWORD is set)
	r.With(optionalAdminAuth).Get("/", handlers.DashboardHandler())

	// The OAuth callback must stay reachable for the platform's redirect.
	r.Get("/api/auth/callback", handlers.CallbackHandler(manager))

	r.Route("/api", func(r chi.Router) {
		r.Use(optionalAdminAuth)

		// Credentials and accounts
		r.HandleFunc("/config", handlers.ConfigHandler(accounts))
		r.Get("/accounts", handlers.AccountsHandler(accounts))
		r.Post("/accounts/{shopID}/select", handlers.SelectAccountHandler(accounts))
		r.Delete("/accounts/{shopID}", handlers.DeleteAccountHandler(accounts))

		// Authorization flow
		r.Get("/auth/start", handlers.StartAuthHandler(manager))

		// Token lifecycle
		r.Post("/token/refresh", handlers.RefreshHandler(manager))
		r.Get("/token/status", handlers.StatusHandler(manager))

		// Diagnostics
		r.Post("/test", handlers.APITestHandler(accounts, adminClient))
		r.Get("/history", handlers.HistoryHandler(database))
	})

	log.Printf("🚀 Cafe24 Auth Hub %s starting on http://%s", version.Version, cfg.Addr())
	log.Printf("📊 Dashboard: http://localhost:%s", cfg.Port)
	log.Printf("🔑 Callback:  http://localhost:%s/api/auth/callback", cfg.Port)

	if err := http.ListenAndServe(cfg.Addr(), r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
