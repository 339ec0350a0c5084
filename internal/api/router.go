package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/eventease/server/internal/api/handlers"
	"github.com/eventease/server/internal/api/middleware"
	"github.com/eventease/server/internal/api/render"
	"github.com/eventease/server/internal/auth"
	"github.com/eventease/server/internal/config"
	"github.com/eventease/server/internal/domain/events"
	"github.com/eventease/server/internal/domain/registrations"
	"github.com/eventease/server/internal/domain/users"
	"github.com/eventease/server/internal/email"
	"github.com/eventease/server/internal/metrics"
	"github.com/eventease/server/internal/storage/postgres"
	"github.com/eventease/server/web"
)

// NewRouter wires repositories, services, and handlers into the full
// HTTP surface. Health and metrics endpoints sit outside the session
// and CSRF layers.
func NewRouter(cfg config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (http.Handler, error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, fmt.Errorf("repository init: %w", err)
	}

	notifier, err := email.NewService(cfg.SMTP, logger)
	if err != nil {
		return nil, fmt.Errorf("email service: %w", err)
	}

	userSvc := users.NewService(repo.Users(), logger)
	eventSvc := events.NewService(repo.Events(), logger)
	regSvc := registrations.NewService(repo.Registrations(), eventSvc, notifier, logger)

	templates, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	renderer := render.NewRenderer(templates, logger)

	sessions := auth.NewSessionManager(cfg.Session.Secret, cfg.Session.Expiry, "eventease")
	secureCookie := cfg.Environment == "production"

	authHandler := handlers.NewAuthHandler(userSvc, sessions, renderer, cfg.Session.CookieName, secureCookie, logger)
	eventsHandler := handlers.NewEventsHandler(eventSvc, renderer, logger)
	regHandler := handlers.NewRegistrationsHandler(regSvc, eventSvc, userSvc, renderer, logger)
	dashHandler := handlers.NewDashboardHandler(regSvc, eventSvc, renderer, logger)
	profileHandler := handlers.NewProfileHandler(userSvc, renderer, logger)

	loginLimit := middleware.LoginRateLimit(cfg.RateLimit)

	mux := http.NewServeMux()

	mux.Handle("/", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(eventsHandler.Home),
		http.MethodPost: http.HandlerFunc(regHandler.QuickRegister),
	}))

	mux.Handle("/auth/signup", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(authHandler.ShowSignup),
		http.MethodPost: http.HandlerFunc(authHandler.Signup),
	}))
	mux.Handle("/auth/login", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(authHandler.ShowLogin),
		http.MethodPost: loginLimit(http.HandlerFunc(authHandler.Login)),
	}))
	mux.Handle("/auth/logout", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(authHandler.Logout),
	}))

	mux.Handle("/register_event/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:  middleware.RequireUser(http.HandlerFunc(regHandler.ShowRegister)),
		http.MethodPost: middleware.RequireUser(http.HandlerFunc(regHandler.Register)),
	}))
	mux.Handle("/dashboard", middleware.RequireUser(methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(dashHandler.User),
	})))
	mux.Handle("/profile", middleware.RequireUser(methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(profileHandler.Show),
		http.MethodPost: http.HandlerFunc(profileHandler.Update),
	})))

	mux.Handle("/registrations", middleware.RequireAdmin(methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(regHandler.List),
	})))
	mux.Handle("/export_registrations", middleware.RequireAdmin(methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(regHandler.Export),
	})))
	mux.Handle("/admin/dashboard", middleware.RequireAdmin(methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(dashHandler.Admin),
		http.MethodPost: http.HandlerFunc(eventsHandler.Create),
	})))
	mux.Handle("/admin/add", middleware.RequireAdmin(methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(eventsHandler.ShowCreate),
		http.MethodPost: http.HandlerFunc(eventsHandler.Create),
	})))
	mux.Handle("/admin/edit/{id}", middleware.RequireAdmin(methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(eventsHandler.ShowEdit),
		http.MethodPost: http.HandlerFunc(eventsHandler.Update),
	})))
	mux.Handle("/admin/delete/{id}", middleware.RequireAdmin(methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(eventsHandler.Delete),
	})))
	mux.Handle("/admin/approve_registration/{id}", middleware.RequireAdmin(methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(regHandler.Approve),
	})))
	mux.Handle("/admin/delete_registration/{id}", middleware.RequireAdmin(methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(regHandler.Delete),
	})))

	var app http.Handler = mux
	app = middleware.CSRFProtection([]byte(cfg.Session.CSRFKey), secureCookie)(app)
	app = middleware.SessionCookie(sessions, cfg.Session.CookieName)(app)

	root := http.NewServeMux()
	root.Handle("/healthz", handlers.Healthz())
	root.Handle("/readyz", handlers.Readyz(pool))
	root.Handle("/metrics", metrics.Handler())
	root.Handle("/", app)

	var handler http.Handler = root
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler, nil
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
