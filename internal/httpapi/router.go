package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"travelbooking/internal/api"
	"travelbooking/internal/flowapi"
	"travelbooking/internal/flowstore"
	"travelbooking/internal/journal"
	"travelbooking/pkg/config"
	"travelbooking/pkg/travelapi"
)

type Dependencies struct {
	Cfg     config.Config
	Client  travelapi.Client
	Flows   *flowstore.Registry
	Journal flowapi.EventLister
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
	Log      *slog.Logger
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	events := deps.Journal
	if events == nil {
		events = journal.Nop{}
	}
	flowHandlers := flowapi.Handlers{
		Client:  deps.Client,
		Flows:   deps.Flows,
		Journal: events,
		Log:     deps.Log,
	}

	// v1
	r.Route("/v1", func(r chi.Router) {
		// Called from the travel frontend; only configured origins get CORS headers.
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.FrontendAllowedOrigins,
			MaxAgeSeconds:  600,
		}))

		r.Group(func(r chi.Router) {
			r.Use(api.BearerAuth(deps.Cfg))

			// Booking flows
			r.Post("/flows", flowHandlers.Create)
			r.Get("/flows/{id}", flowHandlers.Get)
			r.Delete("/flows/{id}", flowHandlers.Delete)
			r.Patch("/flows/{id}/fields", flowHandlers.PatchFields)
			r.Patch("/flows/{id}/travelers/{index}", flowHandlers.PatchTraveler)
			r.Post("/flows/{id}/next", flowHandlers.Next)
			r.Post("/flows/{id}/previous", flowHandlers.Previous)
			r.Get("/flows/{id}/events", flowHandlers.Events)
		})
	})

	return r
}
