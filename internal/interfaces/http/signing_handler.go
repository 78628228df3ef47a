package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/paseto/nfse-betha/internal/application/signing"
	"github.com/paseto/nfse-betha/pkg/nfse"
)

// ErrorResponse corpo padrão de erro da API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SignRequest corpo de POST /api/assinaturas. Tipo vazio equivale a
// "generico"; ElementoID assina o elemento com esse Id em vez da raiz.
type SignRequest struct {
	XML        string `json:"xml"`
	Tipo       string `json:"tipo"`
	ElementoID string `json:"elementoId,omitempty"`
}

// SignResponse documento assinado e o Id usado no alvo.
type SignResponse struct {
	XML string `json:"xml"`
	ID  string `json:"id"`
}

// VerifyRequest corpo de POST /api/assinaturas/verificar.
type VerifyRequest struct {
	XML string `json:"xml"`
}

// VerifyResponse resultado booleano da verificação.
type VerifyResponse struct {
	Valida bool `json:"valida"`
}

// SigningHandler atende as rotas de assinatura/verificação.
type SigningHandler struct {
	uc *signing.UseCase
}

// NewSigningHandler constrói o handler.
func NewSigningHandler(uc *signing.UseCase) *SigningHandler {
	return &SigningHandler{uc: uc}
}

// Assinar assina um documento NFS-e.
// POST /api/assinaturas
func (h *SigningHandler) Assinar(c *fiber.Ctx) error {
	var in SignRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	if in.XML == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "xml é obrigatório"})
	}

	var (
		res *nfse.SignedResult
		err error
	)
	if in.ElementoID != "" {
		res, err = h.uc.SignElement(in.XML, in.ElementoID)
	} else {
		kind := nfse.Kind(in.Tipo)
		if in.Tipo == "" {
			kind = nfse.KindGeneric
		}
		res, err = h.uc.Sign(in.XML, kind)
	}
	if err != nil {
		return signError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(SignResponse{XML: res.XML, ID: res.TargetID})
}

// signError mapeia a taxonomia de erros do motor para status HTTP.
func signError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, nfse.ErrUnknownKind):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "UNKNOWN_KIND", Message: err.Error()})
	case errors.Is(err, nfse.ErrParse):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_XML", Message: err.Error()})
	case errors.Is(err, nfse.ErrElementNotFound):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Code: "ELEMENT_NOT_FOUND", Message: err.Error()})
	case errors.Is(err, nfse.ErrCertificateExpired):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Code: "CERT_EXPIRED", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// Verificar confere a assinatura embutida; sempre responde 200 com booleano.
// POST /api/assinaturas/verificar
func (h *SigningHandler) Verificar(c *fiber.Ctx) error {
	var in VerifyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	return c.Status(fiber.StatusOK).JSON(VerifyResponse{Valida: h.uc.Verify(in.XML)})
}

// Certificado expõe os dados do certificado carregado.
// GET /api/certificado
func (h *SigningHandler) Certificado(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.uc.CertificateInfo())
}
