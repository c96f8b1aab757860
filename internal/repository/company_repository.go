package repository

import (
	"errors"

	"gorm.io/gorm"

	"licitadocs/internal/models"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) GetByID(id string) (*models.Company, error) {
	var c models.Company
	err := r.db.First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) GetByCNPJ(cnpj string) (*models.Company, error) {
	var c models.Company
	err := r.db.First(&c, "cnpj = ?", cnpj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) List(skip, limit int) ([]models.Company, error) {
	if limit <= 0 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}
	var cs []models.Company
	err := r.db.Order("created_at desc").Offset(skip).Limit(limit).Find(&cs).Error
	return cs, err
}

func (r *CompanyRepository) Create(c *models.Company) error {
	var n int64
	if err := r.db.Model(&models.Company{}).Where("cnpj = ?", c.CNPJ).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrCNPJTaken
	}
	return r.db.Create(c).Error
}

// Update applies only the provided fields. Keys follow the column names.
func (r *CompanyRepository) Update(id string, fields map[string]any) (*models.Company, error) {
	c, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := r.db.Model(c).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	return r.GetByID(id)
}

// Delete hard-deletes the company and cascades to its memberships, legacy
// documents and certificates inside one transaction.
func (r *CompanyRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var c models.Company
		if err := tx.First(&c, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.UserCompanyLink{}).Error; err != nil {
			return err
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.Certificate{}).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
}

func (r *CompanyRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Company{}).Count(&n).Error
	return n, err
}

func (r *CompanyRepository) Recent(limit int) ([]models.Company, error) {
	var cs []models.Company
	err := r.db.Order("created_at desc").Limit(limit).Find(&cs).Error
	return cs, err
}
