package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"licitadocs/internal/auth"
	"licitadocs/internal/repository"
	"licitadocs/internal/storage"
)

type registerForm struct {
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	LegalName       string `validate:"required"`
	CNPJ            string `validate:"required,len=14"`
	TradeName       string
	ResponsibleName string
	CPF             string
}

// registerUploads maps the optional multipart file parts of the onboarding
// form to the title of the legacy document each one becomes.
var registerUploads = []struct{ field, title string }{
	{"contrato_social", "Contrato Social"},
	{"cartao_cnpj", "Cartão CNPJ"},
}

// Register onboards a new tenant: User + Company + MASTER membership + one
// legacy document per uploaded file, all in one transaction.
func Register(db *gorm.DB, lg *zap.SugaredLogger, store *storage.LocalStore, tokens *auth.Tokens) http.HandlerFunc {
	users := repository.NewUserRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondDetail(w, http.StatusBadRequest, "Formulário multipart inválido.")
			return
		}
		form := registerForm{
			Email:           strings.TrimSpace(r.FormValue("email")),
			Password:        r.FormValue("password"),
			LegalName:       strings.TrimSpace(r.FormValue("legal_name")),
			CNPJ:            strings.TrimSpace(r.FormValue("cnpj")),
			TradeName:       strings.TrimSpace(r.FormValue("trade_name")),
			ResponsibleName: strings.TrimSpace(r.FormValue("responsible_name")),
			CPF:             strings.TrimSpace(r.FormValue("cpf")),
		}
		if err := validate.Struct(form); err != nil {
			failValidation(w, err)
			return
		}

		hash, err := auth.HashPassword(form.Password)
		if err != nil {
			fail(w, err)
			return
		}

		// Blobs are written before the transaction; if the transaction fails
		// they are removed so no orphan survives a rolled-back tenant.
		var files []repository.RegisterFile
		cleanup := func() {
			for _, f := range files {
				_ = store.Remove(f.Path)
			}
		}
		for _, u := range registerUploads {
			file, header, err := r.FormFile(u.field)
			if err != nil {
				continue
			}
			path, err := store.Save(file, header.Filename, "registro")
			file.Close()
			if err != nil {
				cleanup()
				lg.Errorw("register upload failed", "field", u.field, "error", err)
				respondDetail(w, http.StatusInternalServerError, "Falha ao salvar arquivo.")
				return
			}
			files = append(files, repository.RegisterFile{
				Title:    u.title,
				Filename: header.Filename,
				Path:     path,
			})
		}

		user, _, err := users.Register(repository.RegisterParams{
			Email:           form.Email,
			PasswordHash:    hash,
			CPF:             form.CPF,
			CNPJ:            form.CNPJ,
			LegalName:       form.LegalName,
			TradeName:       form.TradeName,
			ResponsibleName: form.ResponsibleName,
			Files:           files,
		})
		if err != nil {
			cleanup()
			fail(w, err)
			return
		}

		token, err := tokens.Sign(user.Email)
		if err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{
			"access_token": token,
			"token_type":   "bearer",
			"user":         user,
		})
	}
}

// Token is the OAuth2 password-flow login: form fields username (the email)
// and password.
func Token(db *gorm.DB, lg *zap.SugaredLogger, tokens *auth.Tokens) http.HandlerFunc {
	users := repository.NewUserRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")

		user, err := users.GetByEmail(email)
		if errors.Is(err, repository.ErrNotFound) {
			loginRefused(w)
			return
		}
		if err != nil {
			fail(w, err)
			return
		}
		if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
			loginRefused(w)
			return
		}
		if !user.IsActive {
			respondDetail(w, http.StatusBadRequest, "Usuário inativo")
			return
		}

		token, err := tokens.Sign(user.Email)
		if err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{
			"access_token": token,
			"token_type":   "bearer",
		})
	}
}

// loginRefused never says whether the email or the password was wrong.
func loginRefused(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	respondDetail(w, http.StatusUnauthorized, "Email ou senha incorretos")
}
