package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"licitadocs/internal/auth"
	"licitadocs/internal/authz"
	"licitadocs/internal/models"
	"licitadocs/internal/repository"
)

type companyUpdateReq struct {
	RazaoSocial        *string `json:"razao_social"`
	NomeFantasia       *string `json:"nome_fantasia"`
	InscricaoEstadual  *string `json:"inscricao_estadual"`
	InscricaoMunicipal *string `json:"inscricao_municipal"`
	CEP                *string `json:"cep"`
	Logradouro         *string `json:"logradouro"`
	Numero             *string `json:"numero"`
	Complemento        *string `json:"complemento"`
	Bairro             *string `json:"bairro"`
	Cidade             *string `json:"cidade"`
	Estado             *string `json:"estado"`
	Telefone           *string `json:"telefone"`
	Whatsapp           *string `json:"whatsapp"`
	EmailCorporativo   *string `json:"email_corporativo"`
	ResponsavelNome    *string `json:"responsavel_nome"`
	ResponsavelCPF     *string `json:"responsavel_cpf"`
}

func (req companyUpdateReq) fields() map[string]any {
	f := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			f[col] = *v
		}
	}
	set("razao_social", req.RazaoSocial)
	set("nome_fantasia", req.NomeFantasia)
	set("inscricao_estadual", req.InscricaoEstadual)
	set("inscricao_municipal", req.InscricaoMunicipal)
	set("cep", req.CEP)
	set("logradouro", req.Logradouro)
	set("numero", req.Numero)
	set("complemento", req.Complemento)
	set("bairro", req.Bairro)
	set("cidade", req.Cidade)
	set("estado", req.Estado)
	set("telefone", req.Telefone)
	set("whatsapp", req.Whatsapp)
	set("email_corporativo", req.EmailCorporativo)
	set("responsavel_nome", req.ResponsavelNome)
	set("responsavel_cpf", req.ResponsavelCPF)
	return f
}

// UpdateCompany edits the tenant profile. MASTER only.
func UpdateCompany(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	companies := repository.NewCompanyRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		companyID := chi.URLParam(r, "company_id")
		caller := auth.Caller(r.Context())
		if _, err := authz.Membership(caller, companyID, models.CompanyRoleMaster); err != nil {
			fail(w, err)
			return
		}
		var req companyUpdateReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, "JSON inválido.")
			return
		}
		company, err := companies.Update(companyID, req.fields())
		if err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, company)
	}
}

type memberOut struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   bool   `json:"status"`
	JoinedAt any    `json:"joined_at"`
}

// ListMembers shows the team. Any member may look, VIEWER included.
func ListMembers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	users := repository.NewUserRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		companyID := chi.URLParam(r, "company_id")
		caller := auth.Caller(r.Context())
		if _, err := authz.Membership(caller, companyID, ""); err != nil {
			fail(w, err)
			return
		}
		links, err := users.Members(companyID)
		if err != nil {
			fail(w, err)
			return
		}
		out := make([]memberOut, 0, len(links))
		for _, link := range links {
			m := memberOut{
				UserID:   link.UserID,
				Role:     link.Role,
				Status:   link.IsActive,
				JoinedAt: link.CreatedAt,
			}
			if link.User != nil {
				m.Email = link.User.Email
				m.Name = strings.SplitN(link.User.Email, "@", 2)[0]
			}
			out = append(out, m)
		}
		respondJSON(w, http.StatusOK, out)
	}
}

type inviteReq struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=MASTER VIEWER"`
	CPF   string `json:"cpf" validate:"omitempty"`
}

// AddMember invites a user to the team: links an existing account or creates
// one with a provisional password. MASTER only.
func AddMember(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	users := repository.NewUserRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		companyID := chi.URLParam(r, "company_id")
		caller := auth.Caller(r.Context())
		if _, err := authz.Membership(caller, companyID, models.CompanyRoleMaster); err != nil {
			fail(w, err)
			return
		}
		var req inviteReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondDetail(w, http.StatusBadRequest, "JSON inválido.")
			return
		}
		if err := validate.Struct(req); err != nil {
			failValidation(w, err)
			return
		}

		tempPassword := provisionalPassword()
		hash, err := auth.HashPassword(tempPassword)
		if err != nil {
			fail(w, err)
			return
		}

		user, created, err := users.Invite(companyID, req.Email, hash, req.CPF, req.Role)
		if err != nil {
			fail(w, err)
			return
		}

		msg := "Usuário adicionado à equipe com sucesso."
		if created {
			msg = "Usuário criado. Senha provisória: " + tempPassword
		}
		respondJSON(w, http.StatusCreated, map[string]string{
			"user_id": user.ID,
			"email":   user.Email,
			"role":    req.Role,
			"message": msg,
		})
	}
}

func provisionalPassword() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
