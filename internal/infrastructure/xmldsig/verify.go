// Verificação de assinaturas XML-DSig embutidas. Total sobre entrada
// arbitrária: o resultado é um booleano e qualquer falha interna (parse,
// base64, certificado, URI desconhecida) degrada para false — nunca
// propaga erro nem pânico.

package xmldsig

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"strings"

	"github.com/beevik/etree"
)

// Verify localiza a primeira Signature do documento, confere o digest da
// Reference contra o alvo recanonicalizado e o SignatureValue contra a
// chave pública do certificado embutido no KeyInfo.
func (s *Service) Verify(signedXML string) bool {
	return s.verify(signedXML, nil)
}

// VerifyWithKey confere a assinatura com a chave pública fornecida,
// ignorando o certificado embutido.
func (s *Service) VerifyWithKey(signedXML string, pub *rsa.PublicKey) bool {
	if pub == nil {
		return false
	}
	return s.verify(signedXML, pub)
}

func (s *Service) verify(signedXML string, pub *rsa.PublicKey) bool {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(signedXML); err != nil {
		return false
	}
	root := doc.Root()
	if root == nil {
		return false
	}

	sig := findSignature(root)
	if sig == nil {
		return false
	}
	signedInfo := childByLocalName(sig, "SignedInfo")
	sigValueEl := childByLocalName(sig, "SignatureValue")
	if signedInfo == nil || sigValueEl == nil {
		return false
	}
	sigBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(sigValueEl.Text()))
	if err != nil {
		return false
	}

	c14nURI := s.desc.Canonicalization
	if cm := childByLocalName(signedInfo, "CanonicalizationMethod"); cm != nil {
		if attr := cm.SelectAttr("Algorithm"); attr != nil {
			c14nURI = attr.Value
		}
	}

	if !verifyReference(signedInfo, root, c14nURI) {
		return false
	}

	// Recanonicaliza o SignedInfo exatamente como encontrado.
	canonical, err := NewCanonicalizer(c14nURI).CanonicalizeDetached(signedInfo, false)
	if err != nil {
		return false
	}

	if pub == nil {
		pub = embeddedPublicKey(sig)
		if pub == nil {
			return false
		}
	}

	sigMethod := s.desc.SignatureMethod
	if sm := childByLocalName(signedInfo, "SignatureMethod"); sm != nil {
		if attr := sm.SelectAttr("Algorithm"); attr != nil {
			sigMethod = attr.Value
		}
	}
	hash, ok := signatureHashFor(sigMethod)
	if !ok {
		return false
	}
	hasher := hash.New()
	hasher.Write(canonical)
	return rsa.VerifyPKCS1v15(pub, hash, hasher.Sum(nil), sigBytes) == nil
}

// findSignature localiza em profundidade a primeira Signature qualificada no
// namespace XML-DSig. Uma Signature sem namespace algum é aceita como
// fallback para emissores antigos; elementos de negócio homônimos em outro
// namespace nunca são considerados.
func findSignature(root *etree.Element) *etree.Element {
	var fallback *etree.Element
	var walk func(el *etree.Element) *etree.Element
	walk = func(el *etree.Element) *etree.Element {
		if el.Tag == "Signature" {
			switch elementNamespace(el) {
			case NamespaceDSig:
				return el
			case "":
				if fallback == nil {
					fallback = el
				}
			}
		}
		for _, child := range el.ChildElements() {
			if found := walk(child); found != nil {
				return found
			}
		}
		return nil
	}
	if found := walk(root); found != nil {
		return found
	}
	return fallback
}

// verifyReference recomputa o digest do elemento referenciado (com o
// transform enveloped aplicado) e compara com o DigestValue declarado.
func verifyReference(signedInfo, root *etree.Element, defaultC14N string) bool {
	ref := childByLocalName(signedInfo, "Reference")
	if ref == nil {
		return false
	}
	uri := ""
	if attr := ref.SelectAttr("URI"); attr != nil {
		uri = attr.Value
	}
	var target *etree.Element
	switch {
	case uri == "":
		target = root
	case strings.HasPrefix(uri, "#"):
		target = findByID(root, uri[1:])
	default:
		// referências externas não fazem parte do perfil
		return false
	}
	if target == nil {
		return false
	}

	digestURI := ""
	if dm := childByLocalName(ref, "DigestMethod"); dm != nil {
		if attr := dm.SelectAttr("Algorithm"); attr != nil {
			digestURI = attr.Value
		}
	}
	digestFn, ok := digestFor(digestURI)
	if !ok {
		return false
	}
	dv := childByLocalName(ref, "DigestValue")
	if dv == nil {
		return false
	}

	c14nURI := referenceC14N(ref, defaultC14N)
	canonical, err := NewCanonicalizer(c14nURI).CanonicalizeDetached(target, true)
	if err != nil {
		return false
	}
	computed := base64.StdEncoding.EncodeToString(digestFn(canonical))
	return computed == strings.TrimSpace(dv.Text())
}

// referenceC14N devolve a URI de canonicalização declarada nos transforms da
// Reference (a que não for o enveloped), ou o default do SignedInfo.
func referenceC14N(ref *etree.Element, fallback string) string {
	transforms := childByLocalName(ref, "Transforms")
	if transforms == nil {
		return fallback
	}
	for _, t := range transforms.ChildElements() {
		if t.Tag != "Transform" {
			continue
		}
		attr := t.SelectAttr("Algorithm")
		if attr == nil || attr.Value == TransformEnveloped {
			continue
		}
		return attr.Value
	}
	return fallback
}

// embeddedPublicKey extrai a chave pública RSA do X509Certificate do KeyInfo.
func embeddedPublicKey(sig *etree.Element) *rsa.PublicKey {
	certEl := findByLocalName(sig, "X509Certificate")
	if certEl == nil {
		return nil
	}
	// tolera quebras de linha dentro do corpo base64
	der, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(certEl.Text()), ""))
	if err != nil {
		return nil
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil
	}
	pub, _ := cert.PublicKey.(*rsa.PublicKey)
	return pub
}

func digestFor(uri string) (func([]byte) []byte, bool) {
	switch uri {
	case AlgSHA1:
		return func(b []byte) []byte { h := sha1.Sum(b); return h[:] }, true
	case AlgSHA256:
		return func(b []byte) []byte { h := sha256.Sum256(b); return h[:] }, true
	}
	return nil, false
}

func signatureHashFor(uri string) (crypto.Hash, bool) {
	switch uri {
	case AlgRSASHA1:
		return crypto.SHA1, true
	case AlgRSASHA256:
		return crypto.SHA256, true
	}
	return 0, false
}
