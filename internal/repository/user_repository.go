package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"licitadocs/internal/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Preload("CompanyLinks").First(&u, "email = ?", strings.ToLower(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	var u models.User
	err := r.db.Preload("CompanyLinks").First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RegisterFile is a blob already written to storage that the onboarding
// transaction should record as a legacy document.
type RegisterFile struct {
	Title    string
	Filename string
	Path     string
}

type RegisterParams struct {
	Email        string
	PasswordHash string
	CPF          string

	CNPJ            string
	LegalName       string
	TradeName       string
	ResponsibleName string

	Files []RegisterFile
}

// Register runs the whole onboarding in one transaction: User + Company +
// MASTER link + one legacy Document per uploaded file. Any failure rolls the
// entire tenant back; the caller owns cleanup of the already-written blobs.
func (r *UserRepository) Register(p RegisterParams) (*models.User, *models.Company, error) {
	user := &models.User{
		Email:    strings.ToLower(strings.TrimSpace(p.Email)),
		Role:     models.RoleClient,
		IsActive: true,
		CPF:      p.CPF,
	}
	user.PasswordHash = p.PasswordHash

	company := &models.Company{
		CNPJ:            p.CNPJ,
		RazaoSocial:     p.LegalName,
		NomeFantasia:    p.TradeName,
		ResponsavelNome: p.ResponsibleName,
		ResponsavelCPF:  p.CPF,
		IsActive:        true,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrEmailTaken
		}
		if err := tx.Model(&models.Company{}).Where("cnpj = ?", company.CNPJ).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrCNPJTaken
		}

		if err := tx.Create(user).Error; err != nil {
			return err
		}
		company.OwnerID = &user.ID
		if err := tx.Create(company).Error; err != nil {
			return err
		}
		link := models.UserCompanyLink{
			UserID:    user.ID,
			CompanyID: company.ID,
			Role:      models.CompanyRoleMaster,
			IsActive:  true,
		}
		if err := tx.Create(&link).Error; err != nil {
			return err
		}
		for _, f := range p.Files {
			doc := models.Document{
				CompanyID:    company.ID,
				Title:        f.Title,
				Filename:     f.Filename,
				FilePath:     f.Path,
				Status:       models.StatusValid,
				UploadedByID: &user.ID,
			}
			if err := tx.Create(&doc).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// Reload with links so the caller context matches a fresh login.
	full, err := r.GetByEmail(user.Email)
	if err != nil {
		return nil, nil, err
	}
	return full, company, nil
}

// Invite links an existing user to the company, or creates a fresh CLIENT
// account first. Returns the user and whether it was created now.
func (r *UserRepository) Invite(companyID, email, passwordHash, cpf, role string) (*models.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var company models.Company
		if err := tx.First(&company, "id = ?", companyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		err := tx.First(&user, "email = ?", email).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			user = models.User{
				Email:        email,
				PasswordHash: passwordHash,
				Role:         models.RoleClient,
				IsActive:     true,
				CPF:          cpf,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		}

		var n int64
		if err := tx.Model(&models.UserCompanyLink{}).
			Where("user_id = ? AND company_id = ?", user.ID, companyID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyMember
		}

		link := models.UserCompanyLink{
			UserID:    user.ID,
			CompanyID: companyID,
			Role:      role,
			IsActive:  true,
		}
		return tx.Create(&link).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &user, created, nil
}

// Members lists every link of a company with its user row.
func (r *UserRepository) Members(companyID string) ([]models.UserCompanyLink, error) {
	var links []models.UserCompanyLink
	err := r.db.Preload("User").
		Where("company_id = ?", companyID).
		Order("created_at asc").
		Find(&links).Error
	return links, err
}

func (r *UserRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.User{}).Count(&n).Error
	return n, err
}
