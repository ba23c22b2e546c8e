package router

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/greenplate/nutricoach/internal/catalog"
	catalogrepo "github.com/greenplate/nutricoach/internal/catalog/repo"
	"github.com/greenplate/nutricoach/internal/client"
	clientrepo "github.com/greenplate/nutricoach/internal/client/repo"
	"github.com/greenplate/nutricoach/internal/consultation"
	consultationrepo "github.com/greenplate/nutricoach/internal/consultation/repo"
	"github.com/greenplate/nutricoach/internal/identity"
	"github.com/greenplate/nutricoach/internal/mealplan"
	mealplanrepo "github.com/greenplate/nutricoach/internal/mealplan/repo"
	"github.com/greenplate/nutricoach/internal/measurement"
	measurementrepo "github.com/greenplate/nutricoach/internal/measurement/repo"
	"github.com/greenplate/nutricoach/internal/user"
	userrepo "github.com/greenplate/nutricoach/internal/user/repo"
	"github.com/greenplate/nutricoach/pkg/utilities"
)

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// RequestIDMiddleware tags every request with a KSUID so log lines across
// middlewares and handlers can be correlated.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get("X-Request-ID")
			if rid == "" {
				rid = utilities.NewRequestID()
			}
			w.Header().Set("X-Request-ID", rid)
			r.Header.Set("X-Request-ID", rid)
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"request_id", r.Header.Get("X-Request-ID"),
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
// It is intentionally simple and conservative so it works with most setups.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// coaching roles may manage clients, plans and consultations; editors may
// write to the public catalog.
var (
	coachingRoles = []identity.Role{identity.RoleDietitian, identity.RoleDietitianTeam, identity.RoleAdmin, identity.RoleSuperadmin}
	editorRoles   = []identity.Role{identity.RoleDietitian, identity.RoleAdmin, identity.RoleSuperadmin}
	adminRoles    = []identity.Role{identity.RoleAdmin, identity.RoleSuperadmin}
)

// Deps carries the injected handles the router mounts handlers with.
type Deps struct {
	Logger   *zap.SugaredLogger
	DB       *sqlx.DB
	Resolver *identity.Resolver
	Sessions identity.SessionVerifier
	Tokens   *identity.TokenCodec
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
// This keeps the project stdlib-only at the routing layer while keeping
// wiring simple and testable.
func RegisterRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("GET /nutricoach/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	gate := identity.RequireRoles
	authed := identity.RequireAuthenticated()

	// accounts
	users := userrepo.NewUserRepo(d.DB)
	userSvc := user.NewUserService(users, nil, d.Tokens)
	userHandler := user.NewHandler(userSvc, d.Logger)
	mux.HandleFunc("POST /nutricoach/auth/signup", userHandler.Signup)
	mux.HandleFunc("POST /nutricoach/auth/login", userHandler.Login)
	mux.Handle("GET /nutricoach/auth/me", authed(http.HandlerFunc(userHandler.Me)))
	mux.Handle("POST /nutricoach/admin/users/{id}/role", gate(adminRoles...)(http.HandlerFunc(userHandler.SetRole)))

	// dietitian rosters
	clientHandler := client.NewHandler(client.NewService(clientrepo.NewLinkRepo(d.DB)), d.Logger)
	mux.Handle("POST /nutricoach/clients", gate(coachingRoles...)(http.HandlerFunc(clientHandler.Add)))
	mux.Handle("GET /nutricoach/clients", gate(coachingRoles...)(http.HandlerFunc(clientHandler.List)))
	mux.Handle("POST /nutricoach/clients/{id}/archive", gate(coachingRoles...)(http.HandlerFunc(clientHandler.Archive)))

	// measurements
	measurementHandler := measurement.NewHandler(measurement.NewService(measurementrepo.NewMeasurementRepo(d.DB)), d.Logger)
	mux.Handle("POST /nutricoach/measurements", authed(http.HandlerFunc(measurementHandler.Record)))
	mux.Handle("GET /nutricoach/clients/{clientID}/measurements", authed(http.HandlerFunc(measurementHandler.History)))
	mux.Handle("DELETE /nutricoach/measurements/{id}", gate(coachingRoles...)(http.HandlerFunc(measurementHandler.Delete)))

	// consultations
	consultationHandler := consultation.NewHandler(consultation.NewService(consultationrepo.NewConsultationRepo(d.DB)), d.Logger)
	mux.Handle("POST /nutricoach/consultations", gate(coachingRoles...)(http.HandlerFunc(consultationHandler.Schedule)))
	mux.Handle("GET /nutricoach/consultations", authed(http.HandlerFunc(consultationHandler.List)))
	mux.Handle("POST /nutricoach/consultations/{id}/status", gate(coachingRoles...)(http.HandlerFunc(consultationHandler.SetStatus)))
	mux.Handle("POST /nutricoach/consultations/{id}/reschedule", gate(coachingRoles...)(http.HandlerFunc(consultationHandler.Reschedule)))

	// meal plans
	mealplanHandler := mealplan.NewHandler(mealplan.NewService(mealplanrepo.NewPlanRepo(d.DB)), d.Logger)
	mux.Handle("POST /nutricoach/mealplans", gate(coachingRoles...)(http.HandlerFunc(mealplanHandler.Create)))
	mux.Handle("GET /nutricoach/clients/{clientID}/mealplans", authed(http.HandlerFunc(mealplanHandler.ListByClient)))
	mux.Handle("PUT /nutricoach/mealplans/{id}", gate(coachingRoles...)(http.HandlerFunc(mealplanHandler.Update)))
	mux.Handle("POST /nutricoach/mealplans/{id}/publish", gate(coachingRoles...)(http.HandlerFunc(mealplanHandler.Publish)))
	mux.Handle("DELETE /nutricoach/mealplans/{id}", gate(coachingRoles...)(http.HandlerFunc(mealplanHandler.Delete)))

	// public catalog
	catalogHandler := catalog.NewHandler(catalog.NewService(catalogrepo.NewCatalogRepo(d.DB)), d.Logger)
	mux.HandleFunc("GET /nutricoach/recipes", catalogHandler.ListRecipes)
	mux.HandleFunc("GET /nutricoach/recipes/{slug}", catalogHandler.GetRecipe)
	mux.Handle("POST /nutricoach/recipes", gate(editorRoles...)(http.HandlerFunc(catalogHandler.CreateRecipe)))
	mux.Handle("PUT /nutricoach/recipes/{slug}", gate(editorRoles...)(http.HandlerFunc(catalogHandler.UpdateRecipe)))
	mux.Handle("DELETE /nutricoach/recipes/{slug}", gate(editorRoles...)(http.HandlerFunc(catalogHandler.DeleteRecipe)))
	mux.HandleFunc("GET /nutricoach/posts", catalogHandler.ListPosts)
	mux.HandleFunc("GET /nutricoach/posts/{slug}", catalogHandler.GetPost)
	mux.Handle("POST /nutricoach/posts", gate(editorRoles...)(http.HandlerFunc(catalogHandler.CreatePost)))
	mux.Handle("DELETE /nutricoach/posts/{slug}", gate(editorRoles...)(http.HandlerFunc(catalogHandler.DeletePost)))

	// identity resolution runs once per request, before any gate
	handler := identity.Authenticate(d.Resolver, d.Sessions)(mux)
	handler = SecurityHeadersMiddleware()(handler)
	handler = RequestIDMiddleware()(handler)
	handler = LoggingMiddleware(d.Logger)(handler)
	return handler
}
