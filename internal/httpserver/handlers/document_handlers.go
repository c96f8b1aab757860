package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"licitadocs/internal/auth"
	"licitadocs/internal/authz"
	"licitadocs/internal/models"
	"licitadocs/internal/repository"
	"licitadocs/internal/storage"
)

// ListDocuments returns the unified vault of one tenant. Clients default to
// their own company; admins must name one explicitly.
func ListDocuments(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	docs := repository.NewDocumentRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		caller := auth.Caller(r.Context())
		companyID := r.URL.Query().Get("company_id")
		if companyID == "" {
			if caller.IsAdmin() {
				respondDetail(w, http.StatusBadRequest, "ID da empresa é obrigatório para administradores.")
				return
			}
			companyID = authz.PrimaryCompanyID(caller)
			if companyID == "" {
				respondJSON(w, http.StatusOK, []repository.UnifiedRecord{})
				return
			}
		}
		if _, err := authz.Membership(caller, companyID, ""); err != nil {
			fail(w, err)
			return
		}
		list, err := docs.UnifiedByCompany(companyID)
		if err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// Upload stores a file and records it, routing on the presence of type_id:
// with one it becomes a structured certificate, without one a legacy document.
// The blob is removed again if the database insert fails.
func Upload(db *gorm.DB, lg *zap.SugaredLogger, store *storage.LocalStore) http.HandlerFunc {
	docs := repository.NewDocumentRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		caller := auth.Caller(r.Context())
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondDetail(w, http.StatusBadRequest, "Formulário multipart inválido.")
			return
		}

		companyID := strings.TrimSpace(r.FormValue("target_company_id"))
		if companyID == "" {
			if caller.IsAdmin() {
				respondDetail(w, http.StatusBadRequest, "ID da empresa destino é obrigatório.")
				return
			}
			companyID = authz.PrimaryCompanyID(caller)
		}
		if companyID == "" {
			respondDetail(w, http.StatusBadRequest, "ID da empresa destino é obrigatório.")
			return
		}
		if _, err := authz.Membership(caller, companyID, models.CompanyRoleMaster); err != nil {
			fail(w, err)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			respondDetail(w, http.StatusBadRequest, "Arquivo é obrigatório.")
			return
		}
		defer file.Close()
		if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
			respondDetail(w, http.StatusBadRequest, "Apenas arquivos PDF são permitidos.")
			return
		}

		var expiration *time.Time
		if s := r.FormValue("expiration_date"); s != "" {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				respondDetail(w, http.StatusBadRequest, "Data de validade inválida (use AAAA-MM-DD).")
				return
			}
			expiration = &t
		}

		typeID := strings.TrimSpace(r.FormValue("type_id"))
		if typeID != "" {
			if _, err := docs.GetType(typeID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					respondDetail(w, http.StatusBadRequest, "Tipo de documento inválido.")
					return
				}
				fail(w, err)
				return
			}
		}

		subdir := "documentos"
		if typeID != "" {
			subdir = "certidoes"
		}
		path, err := store.Save(file, header.Filename, subdir)
		if err != nil {
			lg.Errorw("upload blob write failed", "error", err)
			respondDetail(w, http.StatusInternalServerError, "Falha ao salvar arquivo.")
			return
		}

		var recordID string
		if typeID != "" {
			cert, err := docs.CreateCertificate(companyID, typeID, header.Filename, path, expiration, strings.TrimSpace(r.FormValue("authentication_code")))
			if err != nil {
				_ = store.Remove(path)
				fail(w, err)
				return
			}
			recordID = cert.ID
		} else {
			doc, err := docs.CreateLegacy(companyID, strings.TrimSpace(r.FormValue("title")), header.Filename, path, expiration, &caller.ID)
			if err != nil {
				_ = store.Remove(path)
				fail(w, err)
				return
			}
			recordID = doc.ID
		}

		rec, err := docs.UnifiedRecordByID(recordID)
		if err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, rec)
	}
}

// Download streams the stored file of either record kind.
func Download(db *gorm.DB, lg *zap.SugaredLogger, store *storage.LocalStore) http.HandlerFunc {
	docs := repository.NewDocumentRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		ref, err := docs.FileRef(chi.URLParam(r, "doc_id"))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondDetail(w, http.StatusNotFound, "Documento não encontrado")
				return
			}
			fail(w, err)
			return
		}
		caller := auth.Caller(r.Context())
		if _, err := authz.Membership(caller, ref.CompanyID, ""); err != nil {
			respondDetail(w, http.StatusForbidden, "Acesso negado a este documento.")
			return
		}
		f, err := store.Open(ref.Path)
		if err != nil {
			respondDetail(w, http.StatusNotFound, "Arquivo físico não encontrado")
			return
		}
		defer f.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="`+ref.Filename+`"`)
		_, _ = io.Copy(w, f)
	}
}
