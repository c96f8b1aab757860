package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"licitadocs/internal/ai"
	"licitadocs/internal/auth"
	"licitadocs/internal/config"
	"licitadocs/internal/httpserver"
	"licitadocs/internal/logger"
	"licitadocs/internal/models"
	"licitadocs/internal/repository"
	"licitadocs/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	lg := logger.New()
	defer lg.Sync()

	if cfg.DatabaseURL == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	if cfg.JWTSecret == "" {
		lg.Fatalw("JWT_SECRET is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Company{}, &models.UserCompanyLink{},
		&models.DocumentCategory{}, &models.DocumentType{},
		&models.Document{}, &models.Certificate{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	seedCatalog(db, lg)
	seedFirstAdmin(db, lg, cfg)

	router := httpserver.NewRouter(httpserver.Deps{
		DB:        db,
		Log:       lg,
		Tokens:    auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		Store:     storage.NewLocalStore(cfg.StorageDir),
		Concierge: ai.NewConcierge(ai.NewClient(cfg.GeminiKey), repository.NewDocumentRepository(db), lg),
	})

	lg.Infow("listening", "port", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}

// seedCatalog loads the standard bidding-document taxonomy, keyed by slug so
// reruns are no-ops and operator edits survive restarts.
func seedCatalog(db *gorm.DB, lg *zap.SugaredLogger) {
	type seedType struct {
		name, slug   string
		validityDays int
		description  string
	}
	seed := []struct {
		name, slug string
		order      int
		types      []seedType
	}{
		{"Habilitação Jurídica", "juridica", 1, []seedType{
			{"Contrato Social", "contrato_social", 0, "Última alteração consolidada registrada na Junta Comercial."},
			{"Cartão CNPJ", "cartao_cnpj", 90, "Comprovante de inscrição e situação cadastral."},
		}},
		{"Regularidade Fiscal", "fiscal", 2, []seedType{
			{"CND Federal", "cnd_federal", 180, "Certidão Negativa de Débitos Relativos a Créditos Tributários Federais e à Dívida Ativa da União."},
			{"CND Estadual", "cnd_estadual", 90, "Certidão de regularidade com a Fazenda Estadual."},
			{"CND Municipal", "cnd_municipal", 90, "Certidão de regularidade com a Fazenda Municipal."},
			{"CRF do FGTS", "crf_fgts", 30, "Certificado de Regularidade do FGTS emitido pela Caixa."},
		}},
		{"Regularidade Trabalhista", "trabalhista", 3, []seedType{
			{"CND Trabalhista (CNDT)", "cndt", 180, "Certidão Negativa de Débitos Trabalhistas."},
		}},
		{"Qualificação Econômico-Financeira", "economica", 4, []seedType{
			{"Balanço Patrimonial", "balanco_patrimonial", 365, "Demonstrações contábeis do último exercício social."},
			{"Certidão de Falência e Concordata", "falencia_concordata", 90, "Certidão dos distribuidores cíveis da sede da empresa."},
		}},
		{"Qualificação Técnica", "tecnica", 5, []seedType{
			{"Atestado de Capacidade Técnica", "atestado_capacidade", 0, "Atestado de desempenho anterior emitido por pessoa jurídica."},
		}},
	}

	for _, c := range seed {
		var cat models.DocumentCategory
		err := db.Where("slug = ?", c.slug).First(&cat).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cat = models.DocumentCategory{Name: c.name, Slug: c.slug, Order: c.order}
			if err := db.Create(&cat).Error; err != nil {
				lg.Warnw("seed category failed", "slug", c.slug, "error", err)
				continue
			}
		} else if err != nil {
			lg.Warnw("seed category lookup failed", "slug", c.slug, "error", err)
			continue
		}
		for _, t := range c.types {
			var n int64
			db.Model(&models.DocumentType{}).Where("slug = ?", t.slug).Count(&n)
			if n > 0 {
				continue
			}
			dt := models.DocumentType{
				CategoryID:          cat.ID,
				Name:                t.name,
				Slug:                t.slug,
				ValidityDaysDefault: t.validityDays,
				Description:         t.description,
			}
			if err := db.Create(&dt).Error; err != nil {
				lg.Warnw("seed type failed", "slug", t.slug, "error", err)
			}
		}
	}
}

func seedFirstAdmin(db *gorm.DB, lg *zap.SugaredLogger, cfg config.Config) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	var n int64
	db.Model(&models.User{}).Where("email = ?", email).Count(&n)
	if n > 0 {
		return
	}
	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		lg.Warnw("seed admin hash failed", "error", err)
		return
	}
	u := models.User{Email: email, PasswordHash: hash, Role: models.RoleAdmin, IsActive: true}
	if err := db.Create(&u).Error; err != nil {
		lg.Warnw("seed admin failed", "error", err)
		return
	}
	lg.Infow("seeded first admin", "email", email)
}
