package repository

import (
	"time"

	"licitadocs/internal/models"
)

// UnifiedRecord is the read-time projection merging legacy documents and
// structured certificates into one shape. Catalog fields are always present
// in the payload and always null for legacy rows.
type UnifiedRecord struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Filename       string     `json:"filename"`
	ExpirationDate *time.Time `json:"expiration_date"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	IsStructured   bool       `json:"is_structured"`

	TypeID             *string `json:"type_id"`
	CategoryID         *string `json:"category_id"`
	TypeName           *string `json:"type_name"`
	CategoryName       *string `json:"category_name"`
	AuthenticationCode *string `json:"authentication_code"`
}

func fromDocument(d models.Document) UnifiedRecord {
	title := d.Title
	if title == "" {
		title = "Documento Legado"
	}
	return UnifiedRecord{
		ID:             d.ID,
		Title:          title,
		Filename:       d.Filename,
		ExpirationDate: d.ExpirationDate,
		Status:         d.Status,
		CreatedAt:      d.CreatedAt,
		IsStructured:   false,
	}
}

func fromCertificate(c models.Certificate) UnifiedRecord {
	rec := UnifiedRecord{
		ID:             c.ID,
		Title:          "Certidão",
		Filename:       c.Filename,
		ExpirationDate: c.ExpirationDate,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt,
		IsStructured:   true,
		TypeID:         &c.TypeID,
	}
	if c.AuthenticationCode != "" {
		rec.AuthenticationCode = &c.AuthenticationCode
	}
	// Denormalized names come from the live catalog at query time.
	if t := c.DocumentType; t != nil {
		rec.Title = t.Name
		rec.TypeName = &t.Name
		rec.CategoryID = &t.CategoryID
		if t.Category != nil {
			rec.CategoryName = &t.Category.Name
		}
	}
	return rec
}
