package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"licitadocs/internal/models"
	"licitadocs/internal/repository"
)

// ListCatalog exposes the Category → Type taxonomy. Public, no auth.
func ListCatalog(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	docs := repository.NewDocumentRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		cats, err := docs.CategoriesWithTypes()
		if err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, cats)
	}
}

// Catalog mutation is back-office only; the router mounts everything below
// behind the global-admin middleware.

type categoryCreateReq struct {
	Name  string `json:"name" validate:"required"`
	Slug  string `json:"slug" validate:"required"`
	Order int    `json:"order"`
}

func CreateCategory(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	docs := repository.NewDocumentRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		var req categoryCreateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, "JSON inválido.")
			return
		}
		if err := validate.Struct(req); err != nil {
			failValidation(w, err)
			return
		}
		cat := models.DocumentCategory{Name: req.Name, Slug: req.Slug, Order: req.Order}
		if err := docs.CreateCategory(&cat); err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, cat)
	}
}

type categoryUpdateReq struct {
	Name  *string `json:"name"`
	Slug  *string `json:"slug"`
	Order *int    `json:"order"`
}

func UpdateCategory(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	docs := repository.NewDocumentRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		var req categoryUpdateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, "JSON inválido.")
			return
		}
		fields := map[string]any{}
		if req.Name != nil {
			fields["name"] = *req.Name
		}
		if req.Slug != nil {
			fields["slug"] = *req.Slug
		}
		if req.Order != nil {
			fields["display_order"] = *req.Order
		}
		cat, err := docs.UpdateCategory(chi.URLParam(r, "category_id"), fields)
		if err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, cat)
	}
}

func DeleteCategory(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	docs := repository.NewDocumentRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		if err := docs.DeleteCategory(chi.URLParam(r, "category_id")); err != nil {
			fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type typeCreateReq struct {
	CategoryID          string `json:"category_id" validate:"required"`
	Name                string `json:"name" validate:"required"`
	Slug                string `json:"slug" validate:"required"`
	ValidityDaysDefault int    `json:"validity_days_default"`
	Description         string `json:"description"`
}

func CreateType(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	docs := repository.NewDocumentRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		var req typeCreateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, "JSON inválido.")
			return
		}
		if err := validate.Struct(req); err != nil {
			failValidation(w, err)
			return
		}
		t := models.DocumentType{
			CategoryID:          req.CategoryID,
			Name:                req.Name,
			Slug:                req.Slug,
			ValidityDaysDefault: req.ValidityDaysDefault,
			Description:         req.Description,
		}
		if err := docs.CreateType(&t); err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, t)
	}
}

type typeUpdateReq struct {
	CategoryID          *string `json:"category_id"`
	Name                *string `json:"name"`
	Slug                *string `json:"slug"`
	ValidityDaysDefault *int    `json:"validity_days_default"`
	Description         *string `json:"description"`
}

func UpdateType(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	docs := repository.NewDocumentRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		var req typeUpdateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, "JSON inválido.")
			return
		}
		fields := map[string]any{}
		if req.CategoryID != nil {
			fields["category_id"] = *req.CategoryID
		}
		if req.Name != nil {
			fields["name"] = *req.Name
		}
		if req.Slug != nil {
			fields["slug"] = *req.Slug
		}
		if req.ValidityDaysDefault != nil {
			fields["validity_days_default"] = *req.ValidityDaysDefault
		}
		if req.Description != nil {
			fields["description"] = *req.Description
		}
		t, err := docs.UpdateType(chi.URLParam(r, "type_id"), fields)
		if err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, t)
	}
}

func DeleteType(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	docs := repository.NewDocumentRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		if err := docs.DeleteType(chi.URLParam(r, "type_id")); err != nil {
			fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
