package repository

import "errors"

// Domain failures. The handlers layer is the only place these become HTTP
// status codes; messages are the client-facing wording.
var (
	ErrNotFound = errors.New("registro não encontrado")

	ErrEmailTaken = errors.New("Este e-mail já está cadastrado.")
	ErrCNPJTaken  = errors.New("CNPJ já cadastrado.")
	ErrSlugTaken  = errors.New("Slug já cadastrado.")

	ErrCategoryInUse = errors.New("Categoria possui tipos vinculados.")
	ErrTypeInUse     = errors.New("Tipo possui certidões vinculadas.")

	ErrAlreadyMember = errors.New("Usuário já faz parte da equipe.")
)

// IsConflict reports whether err is a uniqueness or referential-integrity
// conflict that should surface as a 400.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrCNPJTaken) ||
		errors.Is(err, ErrSlugTaken) ||
		errors.Is(err, ErrCategoryInUse) ||
		errors.Is(err, ErrTypeInUse) ||
		errors.Is(err, ErrAlreadyMember)
}
