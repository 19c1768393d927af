package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/ordercenter/internal/api/dto"
	"github.com/RoyceAzure/lab/ordercenter/internal/api/response"
	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/RoyceAzure/lab/ordercenter/internal/service"
)

type EstablishmentHandler struct {
	establishmentService service.IEstablishmentService
}

func NewEstablishmentHandler(establishmentService service.IEstablishmentService) *EstablishmentHandler {
	if establishmentService == nil {
		panic("establishmentService cannot be nil")
	}
	return &EstablishmentHandler{establishmentService: establishmentService}
}

func (h *EstablishmentHandler) ListEstablishments(w http.ResponseWriter, r *http.Request) {
	establishments, err := h.establishmentService.ListEstablishments(r.Context())
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, establishments)
}

func (h *EstablishmentHandler) GetEstablishment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "establishmentId")
	if !ok {
		return
	}
	establishment, err := h.establishmentService.GetEstablishment(r.Context(), id)
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, establishment)
}

func (h *EstablishmentHandler) CreateEstablishment(w http.ResponseWriter, r *http.Request) {
	var req dto.EstablishmentCreateDTO
	if !decodeBody(w, r, &req) {
		return
	}
	establishment, err := h.establishmentService.CreateEstablishment(r.Context(), service.CreateEstablishmentInput{
		Type:    model.EstablishmentType(req.Type),
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, establishment)
}

// DeleteEstablishment 連同訂單一起刪除, 佔用的庫存會先歸還
func (h *EstablishmentHandler) DeleteEstablishment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "establishmentId")
	if !ok {
		return
	}
	if err := h.establishmentService.DeleteEstablishment(r.Context(), id); err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
