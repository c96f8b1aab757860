package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"licitadocs/internal/ai"
	"licitadocs/internal/auth"
	"licitadocs/internal/authz"
	"licitadocs/internal/httpserver/handlers"
	"licitadocs/internal/storage"
)

// Deps is everything the composition root builds once and hands to the
// router. No handler reaches for process-global state.
type Deps struct {
	DB        *gorm.DB
	Log       *zap.SugaredLogger
	Tokens    *auth.Tokens
	Store     *storage.LocalStore
	Concierge *ai.Concierge
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","version":"1.0.3","system":"LicitaDocs API"}`))
	})

	// Public
	r.Post("/auth/register", handlers.Register(d.DB, d.Log, d.Store, d.Tokens))
	r.Post("/auth/token", handlers.Token(d.DB, d.Log, d.Tokens))
	r.Get("/documents/types", handlers.ListCatalog(d.DB, d.Log))

	// Authenticated
	r.Group(func(protected chi.Router) {
		protected.Use(auth.Bearer(d.DB, d.Tokens))

		protected.Get("/users/me", handlers.Me(d.Log))
		protected.Get("/users/me/companies", handlers.MyCompanies(d.DB, d.Log))

		protected.Get("/documents", handlers.ListDocuments(d.DB, d.Log))
		protected.Post("/documents/upload", handlers.Upload(d.DB, d.Log, d.Store))
		protected.Get("/documents/{doc_id}/download", handlers.Download(d.DB, d.Log, d.Store))

		protected.Put("/companies/{company_id}", handlers.UpdateCompany(d.DB, d.Log))
		protected.Get("/companies/{company_id}/members", handlers.ListMembers(d.DB, d.Log))
		protected.Post("/companies/{company_id}/members", handlers.AddMember(d.DB, d.Log))

		protected.Post("/ai/chat", handlers.Chat(d.Concierge, d.Log))
		protected.Get("/dashboard/client/stats", handlers.ClientStats(d.DB, d.Log))

		protected.Group(func(admin chi.Router) {
			admin.Use(requireAdmin)

			admin.Post("/admin/companies", handlers.AdminCreateCompany(d.DB, d.Log))
			admin.Get("/admin/companies", handlers.AdminListCompanies(d.DB, d.Log))
			admin.Put("/admin/companies/{company_id}", handlers.AdminUpdateCompany(d.DB, d.Log))
			admin.Delete("/admin/companies/{company_id}", handlers.AdminDeleteCompany(d.DB, d.Log))

			admin.Post("/documents/categories", handlers.CreateCategory(d.DB, d.Log))
			admin.Put("/documents/categories/{category_id}", handlers.UpdateCategory(d.DB, d.Log))
			admin.Delete("/documents/categories/{category_id}", handlers.DeleteCategory(d.DB, d.Log))

			admin.Post("/documents/types", handlers.CreateType(d.DB, d.Log))
			admin.Put("/documents/types/{type_id}", handlers.UpdateType(d.DB, d.Log))
			admin.Delete("/documents/types/{type_id}", handlers.DeleteType(d.DB, d.Log))

			admin.Get("/dashboard/admin/stats", handlers.AdminStats(d.DB, d.Log))
		})
	})

	return r
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := authz.RequireAdmin(auth.Caller(r.Context())); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"detail":"Acesso negado: Requer privilégios de Administrador."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
