package api

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sksmith/room-reservation/config"
)

const (
	ApiPath          = "/api/v1"
	AvailabilityPath = "/availability"
	ReservationPath  = "/reservation"
	SearchPath       = "/search"
	UserPath         = "/user"
)

// ConfigureRouter wires every api under ApiPath. Reads of the change feeds and
// search are public, everything else needs basic auth.
func ConfigureRouter(cfg *config.Config, invSvc AvailabilityService, resSvc ReservationService, searchSvc SearchService, userService UserService) chi.Router {
	ConfigureMetrics()

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*.seanksmith.me", "http://*.seanksmith.me", "http://localhost*", "https://localhost*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Metrics)
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Use(Logging)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("UP"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/env", NewEnvApi(cfg).ConfigureRouter)

	r.Route(ApiPath, func(r chi.Router) {
		r.Route(AvailabilityPath, NewAvailabilityApi(invSvc, userService).ConfigureRouter)
		r.Route(ReservationPath, NewReservationApi(resSvc, userService).ConfigureRouter)
		r.Route(SearchPath, NewSearchApi(searchSvc).ConfigureRouter)
		r.Route(UserPath, NewUserApi(userService).ConfigureRouter)
	})

	return r
}
