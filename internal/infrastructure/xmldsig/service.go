// Assinador XML-DSig de documentos NFS-e. Fluxo de assinatura:
//
//	parse → localizar alvo pelo tipo → garantir Id → canonicalizar alvo →
//	digest SHA-1 → esqueleto Signature → canonicalizar SignedInfo →
//	RSA-SHA1 → inserir no ponto do tipo de documento → serializar sem prólogo
//
// Cada etapa trabalha sobre estruturas novas (cópias destacadas para tudo
// que é digerido); uma falha em qualquer etapa aborta a operação inteira sem
// documento parcial.

package xmldsig

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/base64"
	"fmt"

	"github.com/beevik/etree"

	"github.com/paseto/nfse-betha/pkg/nfse"
)

// Service implementa nfse.Signer e nfse.Verifier sobre uma Identity fixa.
// Sem estado mutável entre chamadas: seguro para uso sequencial e para
// leituras concorrentes.
type Service struct {
	identity  *Identity
	desc      Descriptor
	canon     *Canonicalizer
	assembler *Assembler
}

// NewService cria o assinador com a suite fixa padrão.
func NewService(identity *Identity) *Service {
	desc := DefaultDescriptor()
	return &Service{
		identity:  identity,
		desc:      desc,
		canon:     NewCanonicalizer(desc.Canonicalization),
		assembler: NewAssembler(desc),
	}
}

// targetSpec descreve como localizar o alvo e onde inserir a Signature.
type targetSpec struct {
	localName      string // nome local do alvo (vazio = raiz)
	byID           string // alvo localizado pelo atributo Id
	insertAtParent bool   // Signature no pai do alvo (wrapper), não no alvo
}

func targetForKind(kind nfse.Kind) (targetSpec, error) {
	switch kind {
	case nfse.KindGeneric:
		return targetSpec{}, nil
	case nfse.KindRps:
		return targetSpec{localName: "InfDeclaracaoPrestacaoServico", insertAtParent: true}, nil
	case nfse.KindCancellation:
		return targetSpec{localName: "InfPedidoCancelamento", insertAtParent: true}, nil
	}
	return targetSpec{}, fmt.Errorf("%w: %q", nfse.ErrUnknownKind, kind)
}

// Sign assina o documento conforme a política do tipo informado.
func (s *Service) Sign(documentXML string, kind nfse.Kind) (*nfse.SignedResult, error) {
	spec, err := targetForKind(kind)
	if err != nil {
		return nil, err
	}
	return s.sign(documentXML, spec)
}

// SignElement assina o elemento que carrega o atributo Id informado; a
// Signature é anexada a esse mesmo elemento.
func (s *Service) SignElement(documentXML, elementID string) (*nfse.SignedResult, error) {
	return s.sign(documentXML, targetSpec{byID: elementID})
}

func (s *Service) sign(documentXML string, spec targetSpec) (*nfse.SignedResult, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(documentXML); err != nil {
		return nil, fmt.Errorf("%w: %v", nfse.ErrParse, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: documento sem elemento raiz", nfse.ErrParse)
	}

	target, insertion, err := resolveTarget(root, spec)
	if err != nil {
		return nil, err
	}

	targetID := ensureID(target)

	canonical, err := s.canon.CanonicalizeDetached(target, true)
	if err != nil {
		return nil, err
	}
	digest := sha1.Sum(canonical)
	digestB64 := base64.StdEncoding.EncodeToString(digest[:])

	sig := s.assembler.BuildSkeleton(targetID, digestB64, s.identity.certBase64)

	signatureValue, err := s.signSignedInfo(sig.SelectElement("SignedInfo"))
	if err != nil {
		return nil, err
	}
	sig.SelectElement("SignatureValue").SetText(signatureValue)

	insertion.AddChild(sig)

	// Serializa a partir de um Document novo: o prólogo da entrada (se
	// houver) fica para trás e o resultado pode ser embutido em CDATA.
	out := etree.NewDocument()
	out.SetRoot(root)
	serialized, err := out.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("%w: serializar documento assinado: %v", nfse.ErrSigning, err)
	}
	return &nfse.SignedResult{XML: serialized, TargetID: targetID}, nil
}

// signSignedInfo canonicaliza o SignedInfo exatamente como um validador o
// reencontrará no documento final (namespace herdado da Signature
// redeclarado) e assina esses bytes — os bytes assinados são sempre a forma
// canônica do SignedInfo, nunca o digest do alvo diretamente.
func (s *Service) signSignedInfo(signedInfo *etree.Element) (string, error) {
	canonical, err := s.canon.CanonicalizeDetached(signedInfo, false)
	if err != nil {
		return "", err
	}
	hashed := sha1.Sum(canonical)
	sigBytes, err := rsa.SignPKCS1v15(rand.Reader, s.identity.privateKey, crypto.SHA1, hashed[:])
	if err != nil {
		return "", fmt.Errorf("%w: RSA-SHA1: %v", nfse.ErrSigning, err)
	}
	return base64.StdEncoding.EncodeToString(sigBytes), nil
}

// resolveTarget localiza o elemento alvo e o elemento de inserção. Para RPS
// e cancelamento a Signature vai no wrapper (pai do alvo): anexar ao nó
// errado produz um documento válido estruturalmente e inválido para o fisco.
func resolveTarget(root *etree.Element, spec targetSpec) (target, insertion *etree.Element, err error) {
	switch {
	case spec.byID != "":
		target = findByID(root, spec.byID)
		if target == nil {
			return nil, nil, fmt.Errorf("%w: elemento com Id=%q", nfse.ErrElementNotFound, spec.byID)
		}
	case spec.localName != "":
		target = findByLocalName(root, spec.localName)
		if target == nil {
			return nil, nil, fmt.Errorf("%w: %s", nfse.ErrElementNotFound, spec.localName)
		}
	default:
		target = root
	}
	if spec.insertAtParent {
		parent := target.Parent()
		if parent == nil {
			return nil, nil, fmt.Errorf("%w: %s sem wrapper para receber a assinatura",
				nfse.ErrElementNotFound, target.Tag)
		}
		return target, parent, nil
	}
	return target, target, nil
}

// ensureID devolve o Id do alvo, atribuindo o identificador literal que o
// schema espera (o nome da própria tag) quando ausente. Um Id existente é
// preservado intacto.
func ensureID(target *etree.Element) string {
	if attr := target.SelectAttr("Id"); attr != nil && attr.Value != "" {
		return attr.Value
	}
	target.CreateAttr("Id", target.Tag)
	return target.Tag
}

// findByLocalName busca em profundidade o primeiro elemento com o nome
// local dado. Compara só o nome local: provedores enviam o mesmo elemento
// com e sem prefixo de namespace, e as duas formas resolvem igual.
func findByLocalName(el *etree.Element, local string) *etree.Element {
	if el.Tag == local {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findByLocalName(child, local); found != nil {
			return found
		}
	}
	return nil
}

func findByID(el *etree.Element, id string) *etree.Element {
	if attr := el.SelectAttr("Id"); attr != nil && attr.Value == id {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

// childByLocalName retorna o primeiro filho direto com o nome local dado.
func childByLocalName(el *etree.Element, local string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == local {
			return child
		}
	}
	return nil
}

var (
	_ nfse.Signer   = (*Service)(nil)
	_ nfse.Verifier = (*Service)(nil)
)
