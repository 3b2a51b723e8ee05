package adaptor

import (
	"net/http"
	"strconv"

	"appointment-booking/internal/dto/response"
	"appointment-booking/internal/usecase"
	"appointment-booking/pkg/clock"
	"appointment-booking/pkg/utils"

	"go.uber.org/zap"
)

const maxCleanupBatchSize = 1000

type CleanupHandler struct {
	service   usecase.ReservationService
	clock     clock.Clock
	batchSize int
	log       *zap.Logger
}

func NewCleanupHandler(service usecase.ReservationService, clk clock.Clock, batchSize int, log *zap.Logger) *CleanupHandler {
	return &CleanupHandler{
		service:   service,
		clock:     clk,
		batchSize: batchSize,
		log:       log.With(zap.String("handler", "cleanup")),
	}
}

// CleanupReservations handles POST /api/cleanup-reservations.
// Responds 200 {"success":true,"cleanedUp":N} or 500 {"error":"..."}.
func (h *CleanupHandler) CleanupReservations(w http.ResponseWriter, r *http.Request) {
	batchSize := h.batchSize
	if raw := r.URL.Query().Get("batch_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxCleanupBatchSize {
			utils.WriteJSON(w, http.StatusBadRequest, response.ErrorResponse{
				Error: "batch_size must be an integer between 1 and 1000",
			})
			return
		}
		batchSize = n
	}

	cleaned, err := h.service.CleanupExpired(r.Context(), h.clock.Now(), batchSize)
	if err != nil {
		h.log.Error("Cleanup run failed", zap.Error(err), zap.Int("cleaned_up", cleaned))
		utils.WriteJSON(w, http.StatusInternalServerError, response.ErrorResponse{
			Error: "Failed to clean up expired reservations",
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, response.CleanupResponse{Success: true, CleanedUp: cleaned})
}
