// Package authz is the single place tenant and platform privilege checks
// live. Handlers call these instead of comparing role strings inline.
package authz

import (
	"errors"

	"licitadocs/internal/models"
)

var (
	// ErrForbidden covers both "no membership" and "entity belongs to another
	// tenant": callers must not be able to tell the two apart.
	ErrForbidden = errors.New("acesso negado a este recurso")

	// ErrNotMaster is the team-management refusal, with the exact wording the
	// frontend matches on.
	ErrNotMaster = errors.New("Apenas gerentes (MASTER) podem gerenciar a equipe.")

	// ErrAdminOnly gates back-office routes.
	ErrAdminOnly = errors.New("Acesso negado: Requer privilégios de Administrador.")
)

// RequireAdmin passes only platform staff.
func RequireAdmin(u *models.User) error {
	if u == nil || !u.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

// Membership returns the caller's active link on the company, requiring at
// least minRole when given (the only meaningful minimum is MASTER). Global
// admins bypass the check entirely and get a nil link.
func Membership(u *models.User, companyID string, minRole string) (*models.UserCompanyLink, error) {
	if u == nil {
		return nil, ErrForbidden
	}
	if u.IsAdmin() {
		return nil, nil
	}
	for i := range u.CompanyLinks {
		link := &u.CompanyLinks[i]
		if link.CompanyID != companyID || !link.IsActive {
			continue
		}
		if minRole == models.CompanyRoleMaster && link.Role != models.CompanyRoleMaster {
			return nil, ErrNotMaster
		}
		return link, nil
	}
	return nil, ErrForbidden
}

// PrimaryCompanyID is the company a client acts on when none is named
// explicitly: the first active link.
func PrimaryCompanyID(u *models.User) string {
	if u == nil {
		return ""
	}
	for _, link := range u.CompanyLinks {
		if link.IsActive {
			return link.CompanyID
		}
	}
	return ""
}
