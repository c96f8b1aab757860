package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"licitadocs/internal/ai"
	"licitadocs/internal/auth"
	"licitadocs/internal/models"
	"licitadocs/internal/repository"
	"licitadocs/internal/storage"
)

type testEnv struct {
	router http.Handler
	db     *gorm.DB
	tokens *auth.Tokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.UserCompanyLink{},
		&models.DocumentCategory{},
		&models.DocumentType{},
		&models.Document{},
		&models.Certificate{},
	))

	// The oracle is unreachable in tests; the concierge must degrade, never 500.
	oracle := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(oracle.Close)

	lg := zap.NewNop().Sugar()
	tokens := auth.NewTokens("segredo-de-teste", time.Hour)
	env := &testEnv{
		db:     db,
		tokens: tokens,
	}
	env.router = NewRouter(Deps{
		DB:     db,
		Log:    lg,
		Tokens: tokens,
		Store:  storage.NewLocalStore(t.TempDir()),
		Concierge: ai.NewConcierge(
			ai.NewClient("chave-teste").WithEndpoint(oracle.URL),
			repository.NewDocumentRepository(db),
			lg,
		),
	})
	return env
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(t, req)
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// registerTenant onboards email+cnpj through the real endpoint and returns
// the issued token.
func (e *testEnv) registerTenant(t *testing.T, email, cnpj string) string {
	t.Helper()
	body, ctype := multipartBody(t, map[string]string{
		"email":      email,
		"password":   "senha-123",
		"legal_name": "Empresa " + cnpj,
		"cnpj":       cnpj,
	}, "", "", "")
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	req.Header.Set("Content-Type", ctype)
	w := e.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func (e *testEnv) seedAdmin(t *testing.T) string {
	t.Helper()
	hash, err := auth.HashPassword("senha-admin")
	require.NoError(t, err)
	admin := &models.User{Email: "admin@licitadocs.com.br", PasswordHash: hash, Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, e.db.Create(admin).Error)
	token, err := e.tokens.Sign(admin.Email)
	require.NoError(t, err)
	return token
}

// seedViewer links a fresh VIEWER account to the company and returns its token.
func (e *testEnv) seedViewer(t *testing.T, companyID string) string {
	t.Helper()
	hash, err := auth.HashPassword("senha-viewer")
	require.NoError(t, err)
	u := &models.User{Email: "viewer@empresa.com.br", PasswordHash: hash, Role: models.RoleClient, IsActive: true}
	require.NoError(t, e.db.Create(u).Error)
	require.NoError(t, e.db.Create(&models.UserCompanyLink{
		UserID: u.ID, CompanyID: companyID, Role: models.CompanyRoleViewer, IsActive: true,
	}).Error)
	token, err := e.tokens.Sign(u.Email)
	require.NoError(t, err)
	return token
}

func (e *testEnv) companyOf(t *testing.T, token string) string {
	t.Helper()
	email, err := e.tokens.Verify(token)
	require.NoError(t, err)
	var link models.UserCompanyLink
	require.NoError(t, e.db.
		Joins("JOIN users ON users.id = user_company_links.user_id").
		Where("users.email = ?", email).
		First(&link).Error)
	return link.CompanyID
}

func detailOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Detail
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	env.registerTenant(t, "dono@empresa.com.br", "11222333000181")

	form := strings.NewReader("username=dono@empresa.com.br&password=senha-123")
	req := httptest.NewRequest(http.MethodPost, "/auth/token", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := env.do(t, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "access_token")
}

func TestRegisterDuplicateCNPJ(t *testing.T) {
	env := newTestEnv(t)
	env.registerTenant(t, "dono@empresa.com.br", "11222333000181")

	body, ctype := multipartBody(t, map[string]string{
		"email":      "outro@empresa.com.br",
		"password":   "senha-123",
		"legal_name": "Outra Empresa",
		"cnpj":       "11222333000181",
	}, "", "", "")
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	req.Header.Set("Content-Type", ctype)
	w := env.do(t, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CNPJ já cadastrado.", detailOf(t, w))
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	body, ctype := multipartBody(t, map[string]string{
		"email":      "nao-e-email",
		"password":   "123",
		"legal_name": "",
		"cnpj":       "123",
	}, "", "", "")
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	req.Header.Set("Content-Type", ctype)
	w := env.do(t, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerTenant(t, "dono@empresa.com.br", "11222333000181")

	for _, creds := range []string{
		"username=dono@empresa.com.br&password=errada",
		"username=ninguem@empresa.com.br&password=senha-123",
	} {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(creds))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := env.do(t, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Email ou senha incorretos", detailOf(t, w))
	}
}

func TestMeRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.doJSON(t, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")
	w = env.doJSON(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dono@empresa.com.br")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestUploadAndList(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")

	body, ctype := multipartBody(t, map[string]string{
		"title":           "Alvará de Funcionamento",
		"expiration_date": "2026-12-31",
	}, "file", "alvara.pdf", "%PDF-1.4")
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Authorization", "Bearer "+token)
	w := env.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec repository.UnifiedRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Alvará de Funcionamento", rec.Title)
	assert.False(t, rec.IsStructured)
	assert.Nil(t, rec.TypeID)

	w = env.doJSON(t, http.MethodGet, "/documents", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []repository.UnifiedRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)
}

func TestUploadTypedBecomesCertificate(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")

	cat := &models.DocumentCategory{Name: "Regularidade Fiscal", Slug: "regularidade-fiscal"}
	require.NoError(t, env.db.Create(cat).Error)
	typ := &models.DocumentType{CategoryID: cat.ID, Name: "CND Federal", Slug: "cnd_federal"}
	require.NoError(t, env.db.Create(typ).Error)

	body, ctype := multipartBody(t, map[string]string{
		"type_id":             typ.ID,
		"authentication_code": "A1B2C3",
	}, "file", "cnd.pdf", "%PDF-1.4")
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Authorization", "Bearer "+token)
	w := env.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec repository.UnifiedRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.True(t, rec.IsStructured)
	assert.Equal(t, "CND Federal", rec.Title)
	require.NotNil(t, rec.CategoryName)
	assert.Equal(t, "Regularidade Fiscal", *rec.CategoryName)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")

	body, ctype := multipartBody(t, nil, "file", "planilha.xlsx", "dados")
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Authorization", "Bearer "+token)
	w := env.do(t, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Apenas arquivos PDF são permitidos.", detailOf(t, w))
}

func TestUploadRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")

	body, ctype := multipartBody(t, map[string]string{"type_id": "inexistente"}, "file", "cnd.pdf", "%PDF-1.4")
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Authorization", "Bearer "+token)
	w := env.do(t, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Tipo de documento inválido.", detailOf(t, w))
}

func TestUploadViewerForbidden(t *testing.T) {
	env := newTestEnv(t)
	master := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")
	viewer := env.seedViewer(t, env.companyOf(t, master))

	body, ctype := multipartBody(t, nil, "file", "alvara.pdf", "%PDF-1.4")
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Authorization", "Bearer "+viewer)
	w := env.do(t, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDownloadCrossTenantForbidden(t *testing.T) {
	env := newTestEnv(t)
	owner := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")
	intruder := env.registerTenant(t, "intruso@outra.com.br", "99888777000166")

	body, ctype := multipartBody(t, map[string]string{"title": "Sigiloso"}, "file", "doc.pdf", "%PDF-1.4 secreto")
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", ctype)
	req.Header.Set("Authorization", "Bearer "+owner)
	w := env.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var rec repository.UnifiedRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))

	w = env.doJSON(t, http.MethodGet, "/documents/"+rec.ID+"/download", intruder, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Acesso negado a este documento.", detailOf(t, w))

	w = env.doJSON(t, http.MethodGet, "/documents/"+rec.ID+"/download", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 secreto", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "doc.pdf")
}

func TestAddMemberViewerForbidden(t *testing.T) {
	env := newTestEnv(t)
	master := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")
	companyID := env.companyOf(t, master)
	viewer := env.seedViewer(t, companyID)

	w := env.doJSON(t, http.MethodPost, "/companies/"+companyID+"/members", viewer, map[string]string{
		"email": "novo@empresa.com.br",
		"role":  "VIEWER",
	})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Apenas gerentes (MASTER) podem gerenciar a equipe.", detailOf(t, w))
}

func TestAddMemberCreatesProvisionalAccount(t *testing.T) {
	env := newTestEnv(t)
	master := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")
	companyID := env.companyOf(t, master)

	w := env.doJSON(t, http.MethodPost, "/companies/"+companyID+"/members", master, map[string]string{
		"email": "novo@empresa.com.br",
		"role":  "VIEWER",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Senha provisória")

	w = env.doJSON(t, http.MethodGet, "/companies/"+companyID+"/members", master, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "novo@empresa.com.br")
}

func TestMyCompaniesCarriesRole(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")

	w := env.doJSON(t, http.MethodGet, "/users/me/companies", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out []struct {
		CNPJ string `json:"cnpj"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "11222333000181", out[0].CNPJ)
	assert.Equal(t, models.CompanyRoleMaster, out[0].Role)
}

func TestUpdateCompanyMasterOnly(t *testing.T) {
	env := newTestEnv(t)
	master := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")
	companyID := env.companyOf(t, master)
	viewer := env.seedViewer(t, companyID)

	w := env.doJSON(t, http.MethodPut, "/companies/"+companyID, viewer, map[string]string{
		"cidade": "Recife",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.doJSON(t, http.MethodPut, "/companies/"+companyID, master, map[string]string{
		"cidade":        "Recife",
		"nome_fantasia": "LicitaFácil",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Recife")
	assert.Contains(t, w.Body.String(), "LicitaFácil")
}

func TestChatDegradesToApology(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")

	w := env.doJSON(t, http.MethodPost, "/ai/chat", token, map[string]string{"message": "Minha CND está em dia?"})
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Desculpe, estou com dificuldades de conexão com meu cérebro digital agora. Tente novamente em instantes.", out.Response)
}

func TestAdminRoutesForbiddenForClients(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")

	w := env.doJSON(t, http.MethodGet, "/admin/companies", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Acesso negado: Requer privilégios de Administrador.", detailOf(t, w))
}

func TestAdminCatalogLifecycle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	w := env.doJSON(t, http.MethodPost, "/documents/categories", admin, map[string]any{
		"name": "Regularidade Fiscal",
		"slug": "regularidade-fiscal",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cat models.DocumentCategory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cat))

	w = env.doJSON(t, http.MethodPost, "/documents/types", admin, map[string]any{
		"category_id":           cat.ID,
		"name":                  "CND Federal",
		"slug":                  "cnd_federal",
		"validity_days_default": 180,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var typ models.DocumentType
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &typ))

	// Category with types cannot go.
	w = env.doJSON(t, http.MethodDelete, "/documents/categories/"+cat.ID, admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Anyone can read the catalog, no token needed.
	w = env.doJSON(t, http.MethodGet, "/documents/types", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cnd_federal")

	w = env.doJSON(t, http.MethodDelete, "/documents/types/"+typ.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.doJSON(t, http.MethodDelete, "/documents/categories/"+cat.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdminListDocumentsNeedsCompany(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	w := env.doJSON(t, http.MethodGet, "/documents", admin, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ID da empresa é obrigatório para administradores.", detailOf(t, w))
}

func TestAdminCompanyCRUD(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t)

	w := env.doJSON(t, http.MethodPost, "/admin/companies", admin, map[string]any{
		"cnpj":         "11222333000181",
		"razao_social": "Gerenciada Pelo Suporte LTDA",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var company models.Company
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &company))

	w = env.doJSON(t, http.MethodPut, "/admin/companies/"+company.ID, admin, map[string]any{
		"cidade": "São Paulo",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "São Paulo")

	w = env.doJSON(t, http.MethodGet, "/admin/companies", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), company.ID)

	w = env.doJSON(t, http.MethodDelete, "/admin/companies/"+company.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDashboards(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")
	admin := env.seedAdmin(t)

	w := env.doJSON(t, http.MethodGet, "/dashboard/client/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "11222333000181")

	w = env.doJSON(t, http.MethodGet, "/dashboard/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "total_companies")
}

func TestRevokedMembershipLosesAccess(t *testing.T) {
	env := newTestEnv(t)
	master := env.registerTenant(t, "dono@empresa.com.br", "11222333000181")
	companyID := env.companyOf(t, master)
	viewer := env.seedViewer(t, companyID)

	w := env.doJSON(t, http.MethodGet, "/documents?company_id="+companyID, viewer, nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, env.db.Model(&models.UserCompanyLink{}).
		Where("company_id = ? AND role = ?", companyID, models.CompanyRoleViewer).
		Update("is_active", false).Error)

	w = env.doJSON(t, http.MethodGet, "/documents?company_id="+companyID, viewer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
