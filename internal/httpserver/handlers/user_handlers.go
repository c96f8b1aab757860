package handlers

import (
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"licitadocs/internal/auth"
	"licitadocs/internal/models"
)

// Me returns the authenticated user's profile. The frontend uses it to learn
// the platform role after login.
func Me(lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, auth.Caller(r.Context()))
	}
}

type companyWithRole struct {
	models.Company
	Role string `json:"role"`
}

// MyCompanies lists the caller's companies with the membership role injected
// per entry.
func MyCompanies(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := auth.Caller(r.Context())
		out := make([]companyWithRole, 0, len(caller.CompanyLinks))
		for _, link := range caller.CompanyLinks {
			if !link.IsActive {
				continue
			}
			var c models.Company
			if err := db.First(&c, "id = ?", link.CompanyID).Error; err != nil {
				continue
			}
			out = append(out, companyWithRole{Company: c, Role: link.Role})
		}
		respondJSON(w, http.StatusOK, out)
	}
}
