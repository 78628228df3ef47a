// Canonicalização de subárvores XML. O perfil do validador é a C14N 1.0
// exclusiva sem comentários; a inclusiva (REC-xml-c14n-20010315) é aceita na
// verificação para documentos de outros provedores. A propriedade que
// sustenta toda a assinatura: canonicalizar duas vezes a mesma subárvore
// lógica, mesmo após reserialização e reparse, produz bytes idênticos.

package xmldsig

import (
	"fmt"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/paseto/nfse-betha/pkg/nfse"
)

// Canonicalizer produz a forma canônica de uma subárvore etree segundo a
// URI de algoritmo informada.
type Canonicalizer struct {
	Algorithm string
}

// NewCanonicalizer cria um canonicalizador para a URI dada. URIs não
// suportadas só falham na primeira canonicalização.
func NewCanonicalizer(algorithmURI string) *Canonicalizer {
	return &Canonicalizer{Algorithm: algorithmURI}
}

func canonicalizerFor(uri string) (dsig.Canonicalizer, bool) {
	switch uri {
	case AlgExcC14N:
		return dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList(""), true
	case AlgC14N:
		return dsig.MakeC14N10RecCanonicalizer(), true
	}
	return nil, false
}

// Canonicalize serializa a subárvore na forma canônica: atributos em ordem
// estável, namespaces conforme as regras de visibilidade do perfil, sem
// comentários e sem declaração XML.
func (c *Canonicalizer) Canonicalize(el *etree.Element) ([]byte, error) {
	if el == nil {
		return nil, fmt.Errorf("%w: elemento nulo na canonicalização", nfse.ErrSigning)
	}
	canon, ok := canonicalizerFor(c.Algorithm)
	if !ok {
		return nil, fmt.Errorf("%w: canonicalização não suportada %q", nfse.ErrSigning, c.Algorithm)
	}
	out, err := canon.Canonicalize(el)
	if err != nil {
		return nil, fmt.Errorf("%w: canonicalizar %s: %v", nfse.ErrSigning, el.Tag, err)
	}
	return out, nil
}

// CanonicalizeDetached canonicaliza uma cópia destacada do elemento. Todo
// prefixo visivelmente utilizado na subárvore (e o namespace default) que era
// herdado de um ancestral é redeclarado no ápice da cópia, para que a
// subárvore isolada produza os mesmos bytes que um validador obtém ao
// recanonicalizar o documento completo. Com enveloped=true, as Signature
// XML-DSig descendentes são removidas antes (transform enveloped-signature).
func (c *Canonicalizer) CanonicalizeDetached(el *etree.Element, enveloped bool) ([]byte, error) {
	if el == nil {
		return nil, fmt.Errorf("%w: elemento nulo na canonicalização", nfse.ErrSigning)
	}
	cp := el.Copy()
	declareInheritedNamespaces(cp, el)
	if enveloped {
		removeSignatures(cp)
	}
	return c.Canonicalize(cp)
}

// declareInheritedNamespaces copia para o ápice de cp cada declaração de
// namespace que a subárvore utiliza mas herdava de um ancestral de original,
// inclusive o namespace default e prefixos declarados acima do alvo.
func declareInheritedNamespaces(cp, original *etree.Element) {
	for prefix := range usedPrefixes(cp) {
		if prefix == "xml" {
			continue
		}
		key := "xmlns"
		if prefix != "" {
			key = "xmlns:" + prefix
		}
		if cp.SelectAttr(key) != nil {
			continue
		}
		for e := original.Parent(); e != nil; e = e.Parent() {
			if attr := e.SelectAttr(key); attr != nil {
				cp.CreateAttr(key, attr.Value)
				break
			}
		}
	}
}

// usedPrefixes coleta os prefixos visivelmente utilizados na subárvore:
// o de cada elemento (vazio = namespace default) e o de cada atributo
// prefixado. Declarações xmlns não contam como uso.
func usedPrefixes(el *etree.Element) map[string]bool {
	prefixes := make(map[string]bool)
	var walk func(e *etree.Element)
	walk = func(e *etree.Element) {
		prefixes[e.Space] = true
		for _, attr := range e.Attr {
			if attr.Space != "" && attr.Space != "xmlns" {
				prefixes[attr.Space] = true
			}
		}
		for _, child := range e.ChildElements() {
			walk(child)
		}
	}
	walk(el)
	return prefixes
}

// elementNamespace resolve a URI de namespace do elemento pela declaração em
// escopo mais próxima (do próprio prefixo, ou default para elemento sem
// prefixo). Vazio quando nada está declarado.
func elementNamespace(el *etree.Element) string {
	key := "xmlns"
	if el.Space != "" {
		key = "xmlns:" + el.Space
	}
	for e := el; e != nil; e = e.Parent() {
		if attr := e.SelectAttr(key); attr != nil {
			return attr.Value
		}
	}
	return ""
}

// removeSignatures remove qualquer Signature descendente que resolva para o
// namespace XML-DSig, excluindo a própria assinatura do conteúdo digerido.
// Elementos de negócio homônimos em outro namespace permanecem.
func removeSignatures(el *etree.Element) {
	for _, child := range el.ChildElements() {
		if child.Tag == "Signature" && elementNamespace(child) == NamespaceDSig {
			el.RemoveChild(child)
			continue
		}
		removeSignatures(child)
	}
}
