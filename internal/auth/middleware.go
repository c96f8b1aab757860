package auth

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"licitadocs/internal/models"
)

// Bearer authenticates requests and resolves the caller from the users table.
// Looking the user up on every request means a deleted or deactivated account
// loses access immediately, even while its old token is still unexpired.
func Bearer(db *gorm.DB, tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				unauthorized(w)
				return
			}
			email, err := tokens.Verify(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				unauthorized(w)
				return
			}
			var u models.User
			if err := db.Preload("CompanyLinks").First(&u, "email = ?", strings.ToLower(email)).Error; err != nil {
				unauthorized(w)
				return
			}
			if !u.IsActive {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), &u)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"detail":"Credenciais de autenticação inválidas ou expiradas."}`))
}
