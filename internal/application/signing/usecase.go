// Caso de uso de assinatura: compõe a identidade carregada no arranque com o
// assinador/verificador XML-DSig e a re-checagem opcional de validade.

package signing

import (
	"fmt"
	"time"

	"github.com/paseto/nfse-betha/internal/infrastructure/xmldsig"
	"github.com/paseto/nfse-betha/pkg/logger"
	"github.com/paseto/nfse-betha/pkg/nfse"
)

// Config do caso de uso.
type Config struct {
	// RecheckExpiry re-valida o NotAfter antes de cada assinatura. A carga
	// já rejeita certificado vencido; esta opção cobre processos de vida
	// longa que atravessam a data de expiração com a identidade em memória.
	RecheckExpiry bool
}

// UseCase orquestra assinatura e verificação sobre uma Identity única,
// carregada uma vez e somente leitura dali em diante — chamadas
// concorrentes são seguras sem lock.
type UseCase struct {
	identity *xmldsig.Identity
	svc      *xmldsig.Service
	log      *logger.Logger
	cfg      Config
	now      func() time.Time
}

// NewUseCase constrói o caso de uso com todas as dependências.
func NewUseCase(identity *xmldsig.Identity, log *logger.Logger, cfg Config) *UseCase {
	return &UseCase{
		identity: identity,
		svc:      xmldsig.NewService(identity),
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Sign assina o documento conforme o tipo. Falha aborta sem resultado
// parcial; nada é retentado aqui — retry pertence ao chamador.
func (uc *UseCase) Sign(documentXML string, kind nfse.Kind) (*nfse.SignedResult, error) {
	return uc.sign(kind, func() (*nfse.SignedResult, error) {
		return uc.svc.Sign(documentXML, kind)
	})
}

// SignElement assina o elemento identificado pelo atributo Id.
func (uc *UseCase) SignElement(documentXML, elementID string) (*nfse.SignedResult, error) {
	return uc.sign(nfse.KindGeneric, func() (*nfse.SignedResult, error) {
		return uc.svc.SignElement(documentXML, elementID)
	})
}

func (uc *UseCase) sign(kind nfse.Kind, op func() (*nfse.SignedResult, error)) (*nfse.SignedResult, error) {
	start := uc.now()
	if uc.cfg.RecheckExpiry && uc.identity.Expired(start) {
		uc.log.Warn().
			Time("notAfter", uc.identity.Info().NotAfter).
			Msg("certificado expirou com a identidade em memória")
		return nil, fmt.Errorf("%w: expirou após a carga", nfse.ErrCertificateExpired)
	}
	res, err := op()
	if err != nil {
		uc.log.Error().Err(err).Str("tipo", string(kind)).Msg("assinatura falhou")
		return nil, err
	}
	uc.log.Info().
		Str("tipo", string(kind)).
		Str("id", res.TargetID).
		Dur("duracao", uc.now().Sub(start)).
		Msg("documento assinado")
	return res, nil
}

// Verify confere a assinatura embutida; nunca retorna erro.
func (uc *UseCase) Verify(signedXML string) bool {
	valid := uc.svc.Verify(signedXML)
	uc.log.Debug().Bool("valida", valid).Msg("verificação de assinatura")
	return valid
}

// CertificateInfo expõe os dados do certificado para diagnóstico.
func (uc *UseCase) CertificateInfo() nfse.CertificateInfo {
	return uc.identity.Info()
}
