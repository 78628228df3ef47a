package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paseto/nfse-betha/internal/application/signing"
)

// RouterDeps dependências do router.
type RouterDeps struct {
	SigningUC *signing.UseCase
}

// Router registra as rotas da API de assinatura.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	h := NewSigningHandler(deps.SigningUC)
	api.Post("/assinaturas", h.Assinar)
	api.Post("/assinaturas/verificar", h.Verificar)
	api.Get("/certificado", h.Certificado)
}
