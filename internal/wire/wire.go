package wire

import (
	"net/http"

	"appointment-booking/internal/adaptor"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/events"
	"appointment-booking/internal/metrics"
	"appointment-booking/internal/usecase"
	"appointment-booking/pkg/clock"
	"appointment-booking/pkg/middleware"
	"appointment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// App holds the router and the services behind it.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes from the repositories.
func Wiring(
	repo *repository.Repository,
	tx usecase.Transactor,
	publisher events.Publisher,
	registry *prometheus.Registry,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	clk := clock.NewSystem()

	service := usecase.NewService(repo, tx, clk, metrics.New(registry), config, logger,
		usecase.WithPublisher(publisher),
	)
	handler := adaptor.NewHandler(service, clk, config, logger)

	router := setupRouter(handler, repo, registry, config, logger)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	registry *prometheus.Registry,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireReservation(r, handler.Reservation, repo, logger)
	wireAppointment(r, handler.Appointment, repo, logger)
	wireCleanup(r, handler.Cleanup, repo, config, logger)
	wireSession(r, handler.Session, repo, logger)

	r.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
