// Package nfse define a superfície pública do motor de assinatura XML-DSig
// para NFS-e (padrão ABRASF / provedor Betha): tipos de documento, resultado
// da assinatura, dados do certificado e as interfaces dos colaboradores.

package nfse

import (
	"crypto/rsa"
	"time"
)

// Kind identifica o tipo de documento e, com ele, qual elemento é o alvo da
// assinatura e onde o nó Signature é inserido.
type Kind string

const (
	// KindGeneric assina a raiz do documento; a Signature é anexada à própria raiz.
	KindGeneric Kind = "generico"
	// KindRps assina InfDeclaracaoPrestacaoServico; a Signature é anexada ao Rps (pai do alvo).
	KindRps Kind = "rps"
	// KindCancellation assina InfPedidoCancelamento; a Signature é anexada ao Pedido (pai do alvo).
	KindCancellation Kind = "cancelamento"
)

// SignedResult é o documento assinado, serializado sem prólogo XML (pronto
// para ser embutido verbatim numa seção CDATA pela camada de transporte), e
// o Id efetivamente presente no elemento alvo.
type SignedResult struct {
	XML      string
	TargetID string
}

// CertificateInfo são os dados do certificado expostos para
// diagnóstico/monitoração.
type CertificateInfo struct {
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	NotBefore time.Time `json:"notBefore"`
	NotAfter  time.Time `json:"notAfter"`
}

// Signer assina documentos NFS-e. Qualquer falha aborta a operação inteira
// sem documento parcial; retry é responsabilidade do chamador.
type Signer interface {
	// Sign assina conforme a política de posicionamento do tipo informado.
	Sign(documentXML string, kind Kind) (*SignedResult, error)
	// SignElement assina o elemento que carrega o atributo Id informado e
	// anexa a Signature a esse mesmo elemento.
	SignElement(documentXML, elementID string) (*SignedResult, error)
}

// Verifier confere assinaturas embutidas. Nunca retorna erro: a verificação
// é total sobre entrada arbitrária e qualquer falha interna vira false.
type Verifier interface {
	Verify(signedXML string) bool
	VerifyWithKey(signedXML string, pub *rsa.PublicKey) bool
}
