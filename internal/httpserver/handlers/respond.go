package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"licitadocs/internal/authz"
	"licitadocs/internal/repository"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// respondDetail mirrors the {"detail": ...} error envelope the frontend expects.
func respondDetail(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"detail": msg})
}

// fail is the single translation point from domain errors to HTTP statuses.
func fail(w http.ResponseWriter, err error) {
	switch {
	case repository.IsConflict(err):
		respondDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		respondDetail(w, http.StatusNotFound, "Recurso não encontrado.")
	case errors.Is(err, authz.ErrAdminOnly),
		errors.Is(err, authz.ErrNotMaster),
		errors.Is(err, authz.ErrForbidden):
		respondDetail(w, http.StatusForbidden, err.Error())
	default:
		respondDetail(w, http.StatusInternalServerError, "Erro interno do servidor.")
	}
}

// failValidation turns validator errors into a 422 with per-field problems.
func failValidation(w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		respondDetail(w, http.StatusUnprocessableEntity, "Dados inválidos.")
		return
	}
	problems := map[string]string{}
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			problems[field] = "Campo obrigatório."
		case "email":
			problems[field] = "E-mail inválido."
		case "min":
			problems[field] = "Valor muito curto (mínimo " + fe.Param() + ")."
		case "len":
			problems[field] = "Tamanho inválido (esperado " + fe.Param() + ")."
		case "oneof":
			problems[field] = "Valor fora das opções permitidas."
		default:
			problems[field] = "Valor inválido."
		}
	}
	respondJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": problems})
}
