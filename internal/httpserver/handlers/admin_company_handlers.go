package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"licitadocs/internal/models"
	"licitadocs/internal/repository"
)

// Back-office company CRUD. The router mounts these behind the global-admin
// middleware, so no handler re-checks the role.

type adminCompanyCreateReq struct {
	CNPJ            string `json:"cnpj" validate:"required,len=14"`
	RazaoSocial     string `json:"razao_social" validate:"required"`
	NomeFantasia    string `json:"nome_fantasia"`
	ResponsavelNome string `json:"responsavel_nome"`
}

func AdminCreateCompany(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	companies := repository.NewCompanyRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		var req adminCompanyCreateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, "JSON inválido.")
			return
		}
		if err := validate.Struct(req); err != nil {
			failValidation(w, err)
			return
		}
		company := models.Company{
			CNPJ:            req.CNPJ,
			RazaoSocial:     req.RazaoSocial,
			NomeFantasia:    req.NomeFantasia,
			ResponsavelNome: req.ResponsavelNome,
			IsActive:        true,
		}
		if err := companies.Create(&company); err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, company)
	}
}

func AdminListCompanies(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	companies := repository.NewCompanyRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		list, err := companies.List(skip, limit)
		if err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

func AdminUpdateCompany(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	companies := repository.NewCompanyRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		var req companyUpdateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, "JSON inválido.")
			return
		}
		company, err := companies.Update(chi.URLParam(r, "company_id"), req.fields())
		if err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, company)
	}
}

func AdminDeleteCompany(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	companies := repository.NewCompanyRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		if err := companies.Delete(chi.URLParam(r, "company_id")); err != nil {
			fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
