package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"licitadocs/internal/ai"
	"licitadocs/internal/auth"
)

type chatReq struct {
	Message string `json:"message" validate:"required"`
}

// Chat proxies a question to the concierge. This endpoint never returns an
// HTTP error for oracle trouble; the concierge degrades to a fixed apology.
func Chat(concierge *ai.Concierge, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, "JSON inválido.")
			return
		}
		if err := validate.Struct(req); err != nil {
			failValidation(w, err)
			return
		}
		answer := concierge.Answer(r.Context(), auth.Caller(r.Context()), req.Message)
		respondJSON(w, http.StatusOK, map[string]string{"response": answer})
	}
}
