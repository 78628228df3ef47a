// Montagem estrutural do esqueleto Signature/SignedInfo/Reference/KeyInfo.
// Nenhuma operação criptográfica acontece aqui. A ordem dos filhos é fixada
// pelo schema XML-DSig e não pode ser permutada.

package xmldsig

import "github.com/beevik/etree"

// Assembler constrói o nó Signature no namespace XML-DSig, declarado como
// namespace default (sem prefixo), a forma que os validadores ABRASF esperam.
type Assembler struct {
	desc Descriptor
}

// NewAssembler cria o montador com a suite injetada.
func NewAssembler(desc Descriptor) *Assembler {
	return &Assembler{desc: desc}
}

// BuildSkeleton monta a Signature completa referenciando URI="#targetID",
// com os dois transforms na ordem fixa (enveloped, depois canonicalização),
// o digest informado, um SignatureValue vazio (preenchido depois pelo
// assinador) e o corpo base64 do certificado no KeyInfo.
func (a *Assembler) BuildSkeleton(targetID, digestValue, certBase64 string) *etree.Element {
	sig := etree.NewElement("Signature")
	sig.CreateAttr("xmlns", a.desc.Namespace)

	signedInfo := sig.CreateElement("SignedInfo")
	cm := signedInfo.CreateElement("CanonicalizationMethod")
	cm.CreateAttr("Algorithm", a.desc.Canonicalization)
	sm := signedInfo.CreateElement("SignatureMethod")
	sm.CreateAttr("Algorithm", a.desc.SignatureMethod)

	ref := signedInfo.CreateElement("Reference")
	ref.CreateAttr("URI", "#"+targetID)
	transforms := ref.CreateElement("Transforms")
	for _, alg := range a.desc.Transforms {
		t := transforms.CreateElement("Transform")
		t.CreateAttr("Algorithm", alg)
	}
	dm := ref.CreateElement("DigestMethod")
	dm.CreateAttr("Algorithm", a.desc.DigestMethod)
	dv := ref.CreateElement("DigestValue")
	dv.SetText(digestValue)

	sig.CreateElement("SignatureValue")

	keyInfo := sig.CreateElement("KeyInfo")
	x509Data := keyInfo.CreateElement("X509Data")
	x509Cert := x509Data.CreateElement("X509Certificate")
	x509Cert.SetText(certBase64)

	return sig
}
