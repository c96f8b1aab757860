package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Platform-wide roles (staff vs regular SaaS user). Independent from the
// per-company role carried by UserCompanyLink; do not collapse the two.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// Per-company roles.
const (
	CompanyRoleMaster = "MASTER"
	CompanyRoleViewer = "VIEWER"
)

// Document/certificate statuses. Certificates additionally use processing/error
// while the extraction robot works on them.
const (
	StatusValid      = "valid"
	StatusWarning    = "warning"
	StatusExpired    = "expired"
	StatusProcessing = "processing"
	StatusError      = "error"
)

type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`
	Role         string `gorm:"not null;default:client" json:"role"`

	CPF     string `gorm:"index" json:"cpf,omitempty"`
	RG      string `json:"rg,omitempty"`
	Celular string `json:"celular,omitempty"`

	CompanyLinks []UserCompanyLink `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"company_links,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type Company struct {
	ID           string `gorm:"primaryKey" json:"id"`
	CNPJ         string `gorm:"uniqueIndex;not null" json:"cnpj"`
	RazaoSocial  string `gorm:"not null" json:"razao_social"`
	NomeFantasia string `json:"nome_fantasia,omitempty"`

	InscricaoEstadual  string `json:"inscricao_estadual,omitempty"`
	InscricaoMunicipal string `json:"inscricao_municipal,omitempty"`

	CEP         string `json:"cep,omitempty"`
	Logradouro  string `json:"logradouro,omitempty"`
	Numero      string `json:"numero,omitempty"`
	Complemento string `json:"complemento,omitempty"`
	Bairro      string `json:"bairro,omitempty"`
	Cidade      string `json:"cidade,omitempty"`
	Estado      string `json:"estado,omitempty"`

	Telefone         string `json:"telefone,omitempty"`
	Whatsapp         string `json:"whatsapp,omitempty"`
	EmailCorporativo string `json:"email_corporativo,omitempty"`
	ResponsavelNome  string `json:"responsavel_nome,omitempty"`
	ResponsavelCPF   string `json:"responsavel_cpf,omitempty"`

	OwnerID *string `gorm:"index" json:"owner_id,omitempty"`

	IsActive         bool `gorm:"not null;default:true" json:"is_active"`
	IsContractSigned bool `gorm:"not null;default:false" json:"is_contract_signed"`
	IsPaymentActive  bool `gorm:"not null;default:false" json:"is_payment_active"`
	IsAdminVerified  bool `gorm:"not null;default:false" json:"is_admin_verified"`

	Members   []UserCompanyLink `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`
	Documents []Document        `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// IsRegular reports whether the company cleared every onboarding gate:
// signed contract, active payment and back-office verification.
func (c *Company) IsRegular() bool {
	return c.IsContractSigned && c.IsPaymentActive && c.IsAdminVerified
}

// UserCompanyLink grants a user a role inside one company. At most one row per
// (user, company) pair; revocation flips IsActive instead of deleting.
type UserCompanyLink struct {
	UserID    string    `gorm:"primaryKey" json:"user_id"`
	CompanyID string    `gorm:"primaryKey" json:"company_id"`
	Role      string    `gorm:"not null;default:VIEWER" json:"role"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`

	User    *User    `gorm:"foreignKey:UserID" json:"-"`
	Company *Company `gorm:"foreignKey:CompanyID" json:"-"`
}

type DocumentCategory struct {
	ID    string         `gorm:"primaryKey" json:"id"`
	Name  string         `gorm:"not null" json:"name"`
	Slug  string         `gorm:"uniqueIndex;not null" json:"slug"`
	Order int            `gorm:"column:display_order;default:0" json:"order"`
	Types []DocumentType `gorm:"foreignKey:CategoryID" json:"types"`
}

func (c *DocumentCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type DocumentType struct {
	ID                  string `gorm:"primaryKey" json:"id"`
	CategoryID          string `gorm:"index;not null" json:"category_id"`
	Name                string `gorm:"not null" json:"name"`
	Slug                string `gorm:"uniqueIndex;not null" json:"slug"`
	ValidityDaysDefault int    `gorm:"default:0" json:"validity_days_default"`
	Description         string `json:"description,omitempty"`

	Category *DocumentCategory `gorm:"foreignKey:CategoryID" json:"-"`
}

func (t *DocumentType) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Document is the legacy free-form upload record, tied to a company only.
type Document struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	CompanyID      string     `gorm:"index;not null" json:"company_id"`
	Title          string     `json:"title"`
	Filename       string     `gorm:"not null" json:"filename"`
	FilePath       string     `gorm:"not null" json:"file_path"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Status         string     `gorm:"default:valid" json:"status"`
	UploadedByID   *string    `json:"uploaded_by_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Certificate is the structured upload record, bound to a catalog type and
// optionally cross-referenced to the legacy row it superseded.
type Certificate struct {
	ID         string  `gorm:"primaryKey" json:"id"`
	CompanyID  string  `gorm:"index;not null" json:"company_id"`
	TypeID     string  `gorm:"index;not null" json:"type_id"`
	DocumentID *string `gorm:"uniqueIndex" json:"document_id,omitempty"`

	Filename string `gorm:"not null" json:"filename"`
	FilePath string `gorm:"not null" json:"file_path"`

	AuthenticationCode string     `gorm:"index" json:"authentication_code,omitempty"`
	IssueDate          *time.Time `json:"issue_date,omitempty"`
	ExpirationDate     *time.Time `gorm:"index" json:"expiration_date,omitempty"`

	Status   string `gorm:"index;default:valid" json:"status"`
	Metadata JSONB  `gorm:"type:jsonb" json:"metadata,omitempty"`

	DocumentType *DocumentType `gorm:"foreignKey:TypeID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
