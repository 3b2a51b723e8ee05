package adaptor

import (
	"encoding/json"
	"net/http"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/dto/request"
	"appointment-booking/internal/dto/response"
	"appointment-booking/internal/usecase"
	"appointment-booking/pkg/clock"
	"appointment-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReservationHandler struct {
	service usecase.ReservationService
	clock   clock.Clock
	log     *zap.Logger
}

func NewReservationHandler(service usecase.ReservationService, clk clock.Clock, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		clock:   clk,
		log:     log.With(zap.String("handler", "reservation")),
	}
}

// CreateReservation handles POST /api/reservations (protected)
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	slot := entity.SlotKey{
		BusinessID: req.BusinessID,
		ServiceID:  req.ServiceID,
		StartsAt:   req.StartsAt.UTC(),
		StaffID:    req.StaffID,
	}

	reservation, err := h.service.Reserve(r.Context(), slot, userID.String(), h.clock.Now())
	if err != nil {
		handleServiceError(w, h.log, err, "reserve slot")
		return
	}

	utils.ResponseCreated(w, "success", response.ReservationToResponse(reservation))
}

// GetReservation handles GET /api/reservations/{id} (holder or admin)
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	reservation, ok := h.loadOwned(w, r, "get reservation")
	if !ok {
		return
	}

	utils.ResponseSuccess(w, "success", response.ReservationToResponse(reservation))
}

// ReleaseReservation handles DELETE /api/reservations/{id} (holder or admin)
func (h *ReservationHandler) ReleaseReservation(w http.ResponseWriter, r *http.Request) {
	reservation, ok := h.loadOwned(w, r, "release reservation")
	if !ok {
		return
	}

	released, err := h.service.Release(r.Context(), reservation.ID)
	if err != nil {
		handleServiceError(w, h.log, err, "release reservation")
		return
	}

	utils.ResponseSuccess(w, "Reservation released", response.ReservationToResponse(released))
}

// loadOwned fetches the reservation in the URL and checks the caller may act on it.
func (h *ReservationHandler) loadOwned(w http.ResponseWriter, r *http.Request, operation string) (*entity.SlotReservation, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return nil, false
	}

	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid reservation ID", nil)
		return nil, false
	}

	reservation, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.log, err, operation)
		return nil, false
	}

	role, _ := utils.GetRoleFromContext(r.Context())
	if reservation.HolderID != userID.String() && role != string(entity.RoleAdmin) {
		handleServiceError(w, h.log, usecase.ErrForbidden, operation)
		return nil, false
	}

	return reservation, true
}
