package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medgrid/bedfinder-backend/api/controllers"
	"github.com/medgrid/bedfinder-backend/api/middleware"
	"github.com/medgrid/bedfinder-backend/internal/auth"
	"github.com/medgrid/bedfinder-backend/internal/bookings"
	"github.com/medgrid/bedfinder-backend/internal/directory"
	"github.com/medgrid/bedfinder-backend/internal/hospitals"
	"github.com/medgrid/bedfinder-backend/internal/inventory"
	"github.com/medgrid/bedfinder-backend/pkg/auth/session"
	"github.com/medgrid/bedfinder-backend/pkg/config"
	"github.com/medgrid/bedfinder-backend/pkg/enums"
	"github.com/medgrid/bedfinder-backend/pkg/logger"
	"github.com/medgrid/bedfinder-backend/pkg/redis"
)

type feedProbe interface {
	Available(ctx context.Context) bool
}

// Deps carries everything the router wires together. Redis, the feed
// probe and the metrics registry may be nil in tests.
type Deps struct {
	Cfg              *config.Config
	Logger           *logger.Logger
	Redis            *redis.Client
	Feed             feedProbe
	Sessions         session.AccessSessionChecker
	Registry         *prometheus.Registry
	AuthService      auth.Service
	HospitalService  hospitals.Service
	InventoryService inventory.Service
	BookingService   bookings.Service
	DirectoryService directory.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Cfg
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginAccountLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	throttleLogin := middleware.AuthRateLimit(loginPolicy, limiterOrNil(deps.Redis), logg)
	throttleRegister := middleware.AuthRateLimit(registerPolicy, limiterOrNil(deps.Redis), logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingerOrNil(deps.Redis), deps.Feed))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Get("/hospitals", controllers.DirectorySearch(deps.DirectoryService, logg))
		r.Get("/hospitals/{hospitalId}", controllers.HospitalDetail(deps.HospitalService, logg))
		r.Get("/bed-types", controllers.BedTypesList(deps.InventoryService, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(throttleLogin).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.With(throttleRegister).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.With(throttleLogin).Post("/hospital/login", controllers.HospitalAuthLogin(deps.AuthService, logg))
		r.With(throttleRegister).Post("/hospital/register", controllers.HospitalRegister(deps.HospitalService, logg))
		r.Post("/logout", controllers.AuthLogout(deps.AuthService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(throttleLogin).Post("/login", controllers.AdminAuthLogin(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.RoleUser), logg))
			r.Get("/ping", controllers.PrivatePing())
			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", controllers.BookingCreate(deps.BookingService, logg))
				r.Get("/", controllers.BookingList(deps.BookingService, logg))
				r.Post("/{bookingId}/cancel", controllers.BookingCancel(deps.BookingService, logg))
			})
		})

		r.Route("/hospital", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.RoleHospital), logg))
			r.Use(middleware.RequireHospitalContext(logg))
			r.Route("/beds", func(r chi.Router) {
				r.Get("/", controllers.BedList(deps.InventoryService, logg))
				r.Post("/", controllers.BedCreate(deps.InventoryService, logg))
				r.Patch("/{bedId}", controllers.BedUpdate(deps.InventoryService, logg))
			})
			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", controllers.HospitalBookingList(deps.BookingService, logg))
				r.Post("/{bookingId}/decision", controllers.BookingDecide(deps.BookingService, logg))
			})
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
		r.Get("/ping", controllers.AdminPing())
		r.Route("/hospitals", func(r chi.Router) {
			r.Get("/", controllers.AdminHospitalList(deps.HospitalService, logg))
			r.Post("/{hospitalId}/approve", controllers.AdminHospitalApprove(deps.HospitalService, logg))
			r.Post("/{hospitalId}/revoke", controllers.AdminHospitalRevoke(deps.HospitalService, logg))
		})
		r.Route("/provider", func(r chi.Router) {
			r.Get("/settings", controllers.AdminProviderSettings(deps.DirectoryService, logg))
			r.Put("/settings", controllers.AdminProviderSettingsUpdate(deps.DirectoryService, logg))
		})
	})

	return r
}

// limiterOrNil avoids handing a typed nil to the rate-limit middleware.
func limiterOrNil(c *redis.Client) interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
} {
	if c == nil {
		return nil
	}
	return c
}

func pingerOrNil(c *redis.Client) interface{ Ping(context.Context) error } {
	if c == nil {
		return nil
	}
	return c
}
