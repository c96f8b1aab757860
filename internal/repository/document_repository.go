package repository

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"licitadocs/internal/models"
)

// DocumentRepository persists both record kinds of the vault (legacy
// documents, structured certificates) and owns the catalog taxonomy.
type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// --- catalog ---

func (r *DocumentRepository) CategoriesWithTypes() ([]models.DocumentCategory, error) {
	var cats []models.DocumentCategory
	err := r.db.Preload("Types").Order("display_order asc").Find(&cats).Error
	return cats, err
}

func (r *DocumentRepository) CreateCategory(c *models.DocumentCategory) error {
	var n int64
	if err := r.db.Model(&models.DocumentCategory{}).Where("slug = ?", c.Slug).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrSlugTaken
	}
	return r.db.Create(c).Error
}

func (r *DocumentRepository) UpdateCategory(id string, fields map[string]any) (*models.DocumentCategory, error) {
	var c models.DocumentCategory
	if err := r.db.First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(fields) > 0 {
		if err := r.db.Model(&c).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	err := r.db.Preload("Types").First(&c, "id = ?", id).Error
	return &c, err
}

func (r *DocumentRepository) DeleteCategory(id string) error {
	var c models.DocumentCategory
	if err := r.db.First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	var n int64
	if err := r.db.Model(&models.DocumentType{}).Where("category_id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	return r.db.Delete(&c).Error
}

func (r *DocumentRepository) GetType(id string) (*models.DocumentType, error) {
	var t models.DocumentType
	err := r.db.Preload("Category").First(&t, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *DocumentRepository) CreateType(t *models.DocumentType) error {
	var n int64
	if err := r.db.Model(&models.DocumentType{}).Where("slug = ?", t.Slug).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrSlugTaken
	}
	return r.db.Create(t).Error
}

func (r *DocumentRepository) UpdateType(id string, fields map[string]any) (*models.DocumentType, error) {
	var t models.DocumentType
	if err := r.db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(fields) > 0 {
		if err := r.db.Model(&t).Updates(fields).Error; err != nil {
			return nil, err
		}
	}
	err := r.db.First(&t, "id = ?", id).Error
	return &t, err
}

func (r *DocumentRepository) DeleteType(id string) error {
	var t models.DocumentType
	if err := r.db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	var n int64
	if err := r.db.Model(&models.Certificate{}).Where("type_id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrTypeInUse
	}
	return r.db.Delete(&t).Error
}

// --- writes ---

func (r *DocumentRepository) CreateLegacy(companyID, title, filename, path string, expiration *time.Time, uploadedBy *string) (*models.Document, error) {
	doc := models.Document{
		CompanyID:      companyID,
		Title:          title,
		Filename:       filename,
		FilePath:       path,
		ExpirationDate: expiration,
		Status:         models.StatusValid,
		UploadedByID:   uploadedBy,
	}
	if err := r.db.Create(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) CreateCertificate(companyID, typeID, filename, path string, expiration *time.Time, authCode string) (*models.Certificate, error) {
	cert := models.Certificate{
		CompanyID:          companyID,
		TypeID:             typeID,
		Filename:           filename,
		FilePath:           path,
		ExpirationDate:     expiration,
		AuthenticationCode: authCode,
		Status:             models.StatusValid,
	}
	if err := r.db.Create(&cert).Error; err != nil {
		return nil, err
	}
	// Joined names for the unified shape of the fresh record.
	_ = r.db.Preload("DocumentType.Category").First(&cert, "id = ?", cert.ID).Error
	return &cert, nil
}

// --- unified reads ---

// UnifiedByCompany merges both tables into one projection, newest first.
// Type and category names reflect the live catalog at query time.
func (r *DocumentRepository) UnifiedByCompany(companyID string) ([]UnifiedRecord, error) {
	var docs []models.Document
	if err := r.db.Where("company_id = ?", companyID).Find(&docs).Error; err != nil {
		return nil, err
	}
	var certs []models.Certificate
	if err := r.db.Preload("DocumentType.Category").
		Where("company_id = ?", companyID).Find(&certs).Error; err != nil {
		return nil, err
	}

	unified := make([]UnifiedRecord, 0, len(docs)+len(certs))
	for _, d := range docs {
		unified = append(unified, fromDocument(d))
	}
	for _, c := range certs {
		unified = append(unified, fromCertificate(c))
	}
	sort.SliceStable(unified, func(i, j int) bool {
		return unified[i].CreatedAt.After(unified[j].CreatedAt)
	})
	return unified, nil
}

func (r *DocumentRepository) UnifiedRecordByID(id string) (*UnifiedRecord, error) {
	var doc models.Document
	err := r.db.First(&doc, "id = ?", id).Error
	if err == nil {
		rec := fromDocument(doc)
		return &rec, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	var cert models.Certificate
	err = r.db.Preload("DocumentType.Category").First(&cert, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec := fromCertificate(cert)
	return &rec, nil
}

// FileRef locates the physical file of a record of either kind. The documents
// table is checked first; the contract matters even though the two UUID
// namespaces cannot collide.
type FileRef struct {
	CompanyID string
	Filename  string
	Path      string
}

func (r *DocumentRepository) FileRef(id string) (*FileRef, error) {
	var doc models.Document
	err := r.db.First(&doc, "id = ?", id).Error
	if err == nil {
		return &FileRef{CompanyID: doc.CompanyID, Filename: doc.Filename, Path: doc.FilePath}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	var cert models.Certificate
	err = r.db.First(&cert, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &FileRef{CompanyID: cert.CompanyID, Filename: cert.Filename, Path: cert.FilePath}, nil
}

// --- dashboard ---

func (r *DocumentRepository) CountByCompany(companyID string) (int64, error) {
	var n int64
	err := r.db.Model(&models.Document{}).Where("company_id = ?", companyID).Count(&n).Error
	return n, err
}

func (r *DocumentRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Document{}).Count(&n).Error
	return n, err
}

func (r *DocumentRepository) Recent(limit int) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.Order("created_at desc").Limit(limit).Find(&docs).Error
	return docs, err
}

func (r *DocumentRepository) RecentByCompany(companyID string, limit int) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.Where("company_id = ?", companyID).Order("created_at desc").Limit(limit).Find(&docs).Error
	return docs, err
}
