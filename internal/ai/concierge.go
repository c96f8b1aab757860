package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"licitadocs/internal/authz"
	"licitadocs/internal/models"
	"licitadocs/internal/repository"
)

// Fixed user-facing strings. The refusal line is also embedded in the prompt
// as a hard rule, so the oracle echoes it for out-of-domain questions.
const (
	apologyMessage = "Desculpe, estou com dificuldades de conexão com meu cérebro digital agora. Tente novamente em instantes."
	noCompany      = "Não consegui identificar sua empresa para consultar os documentos. Contate o suporte."
	refusalLine    = "Desculpe, sou um assistente focado apenas em seus documentos de licitação. Posso ajudar com isso?"
)

// Concierge answers questions about a tenant's document inventory.
type Concierge struct {
	client *Client
	docs   *repository.DocumentRepository
	lg     *zap.SugaredLogger
}

func NewConcierge(client *Client, docs *repository.DocumentRepository, lg *zap.SugaredLogger) *Concierge {
	return &Concierge{client: client, docs: docs, lg: lg}
}

// Answer always returns text for the end user. Oracle failures degrade to the
// fixed apology instead of propagating.
func (c *Concierge) Answer(ctx context.Context, user *models.User, message string) string {
	companyID := authz.PrimaryCompanyID(user)
	if companyID == "" {
		return noCompany
	}

	records, err := c.docs.UnifiedByCompany(companyID)
	if err != nil {
		c.lg.Errorw("concierge inventory fetch failed", "company_id", companyID, "error", err)
		return apologyMessage
	}

	answer, err := c.client.Generate(ctx, systemInstruction(records), message)
	if err != nil {
		c.lg.Warnw("oracle call failed", "error", err)
		return apologyMessage
	}
	return answer
}

func inventoryBlock(records []repository.UnifiedRecord) string {
	if len(records) == 0 {
		return "- Nenhum documento cadastrado.\n"
	}
	var b strings.Builder
	for _, rec := range records {
		validade := "Indeterminada"
		if rec.ExpirationDate != nil {
			validade = rec.ExpirationDate.Format("02/01/2006")
		}
		fmt.Fprintf(&b, "- Arquivo: '%s' | Status: %s | Validade: %s\n", rec.Filename, rec.Status, validade)
	}
	return b.String()
}

func systemInstruction(records []repository.UnifiedRecord) string {
	return fmt.Sprintf(`Você é o Assistente Virtual do LicitaDocs, um sistema de gestão de documentos.

SUA MISSÃO:
Ajudar o cliente a saber se ele tem os documentos necessários para uma licitação, baseando-se APENAS na lista fornecida abaixo.

REGRAS DE CONDUTA (FILTROS):
1. Se a pergunta for sobre documentos, certidões, validade ou licitações: Responda consultando a lista abaixo. Faça a correlação entre termos (ex: "Regularidade Social" = "CND Federal" ou "INSS").
2. Se a pergunta NÃO FOR sobre o contexto do sistema (ex: política, futebol, receitas, código de programação, piadas): Responda EXATAMENTE: "%s"
3. Seja conciso e direto. Não invente documentos que não estão na lista.

DADOS DO CLIENTE (O COFRE):
O cliente possui os seguintes documentos no cofre:
%s`, refusalLine, inventoryBlock(records))
}
