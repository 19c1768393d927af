package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RoyceAzure/lab/ordercenter/internal/service"
)

type Response struct {
	Data any `json:"data"`
}

type ResponseError struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func SuccessJSON(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Data: data})
}

func ErrorJSON(w http.ResponseWriter, status int, message, field string) {
	writeJSON(w, status, ResponseError{Error: message, Field: field})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// ServiceErrorJSON 將 service 錯誤轉為 HTTP 狀態碼
//
//	not found                        -> 404
//	InsufficientStock / Validation    -> 400
//	有明細參照 / 重複 / 併發衝突       -> 409
//	其他                              -> 500
func ServiceErrorJSON(w http.ResponseWriter, err error) {
	var stockErr *service.InsufficientStockError
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &validationErr):
		ErrorJSON(w, http.StatusBadRequest, validationErr.Error(), validationErr.Field)
	case errors.As(err, &stockErr):
		ErrorJSON(w, http.StatusBadRequest, stockErr.Error(), "quantity")
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrLineNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrEstablishmentNotFound):
		ErrorJSON(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, service.ErrProductHasOpenLines),
		errors.Is(err, service.ErrConcurrentUpdate):
		ErrorJSON(w, http.StatusConflict, err.Error(), "")
	case errors.Is(err, service.ErrDuplicate):
		ErrorJSON(w, http.StatusConflict, "Duplicate error.", "")
	default:
		ErrorJSON(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}
