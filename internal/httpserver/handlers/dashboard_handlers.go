package handlers

import (
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"licitadocs/internal/auth"
	"licitadocs/internal/authz"
	"licitadocs/internal/repository"
)

// AdminStats aggregates global numbers for the back-office dashboard.
func AdminStats(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	users := repository.NewUserRepository(db)
	companies := repository.NewCompanyRepository(db)
	docs := repository.NewDocumentRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		totalCompanies, err := companies.Count()
		if err != nil {
			fail(w, err)
			return
		}
		totalDocs, err := docs.Count()
		if err != nil {
			fail(w, err)
			return
		}
		totalUsers, err := users.Count()
		if err != nil {
			fail(w, err)
			return
		}
		recentDocs, err := docs.Recent(5)
		if err != nil {
			fail(w, err)
			return
		}
		recentCompanies, err := companies.Recent(5)
		if err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"total_companies":  totalCompanies,
			"total_documents":  totalDocs,
			"total_users":      totalUsers,
			"recent_documents": recentDocs,
			"recent_companies": recentCompanies,
		})
	}
}

// ClientStats shows the caller's own company numbers.
func ClientStats(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	companies := repository.NewCompanyRepository(db)
	docs := repository.NewDocumentRepository(db)
	return func(w http.ResponseWriter, r *http.Request) {
		caller := auth.Caller(r.Context())
		companyID := authz.PrimaryCompanyID(caller)
		if companyID == "" {
			respondDetail(w, http.StatusBadRequest, "Usuário sem empresa vinculada")
			return
		}
		company, err := companies.GetByID(companyID)
		if err != nil {
			fail(w, err)
			return
		}
		total, err := docs.CountByCompany(companyID)
		if err != nil {
			fail(w, err)
			return
		}
		recent, err := docs.RecentByCompany(companyID, 5)
		if err != nil {
			fail(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"company_name":     company.RazaoSocial,
			"cnpj":             company.CNPJ,
			"is_active":        caller.IsActive,
			"is_regular":       company.IsRegular(),
			"total_documents":  total,
			"recent_documents": recent,
		})
	}
}
