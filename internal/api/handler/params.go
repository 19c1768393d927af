package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/RoyceAzure/lab/ordercenter/internal/api/response"
	"github.com/go-chi/chi/v5"
)

// pathID 解析路徑上的正整數 id, 失敗時已寫出 400
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		response.ErrorJSON(w, http.StatusBadRequest, "invalid "+name, name)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		response.ErrorJSON(w, http.StatusBadRequest, "invalid request body", "")
		return false
	}
	return true
}
