// Constantes da suite fixa de algoritmos XML-DSig aceita pelos validadores
// NFS-e (ABRASF/Betha). A suite não é configurável: o validador remoto
// rejeita qualquer outra combinação.

package xmldsig

// Namespace XML-DSig e URIs de algoritmo.
const (
	NamespaceDSig = "http://www.w3.org/2000/09/xmldsig#"

	AlgExcC14N         = "http://www.w3.org/2001/10/xml-exc-c14n#"
	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA1         = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgSHA1            = "http://www.w3.org/2000/09/xmldsig#sha1"
	AlgRSASHA256       = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgSHA256          = "http://www.w3.org/2001/04/xmlenc#sha256"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// Descriptor agrupa as URIs da suite de assinatura num único valor imutável,
// injetado no montador em vez de literais espalhados. Trocar a suite (ex.
// SHA-256) quebraria a compatibilidade com o validador externo; a struct
// existe para centralizar, não para abrir configuração.
type Descriptor struct {
	Namespace        string
	Canonicalization string
	SignatureMethod  string
	DigestMethod     string
	Transforms       []string
}

// DefaultDescriptor retorna a suite exigida pelos webservices NFS-e:
// C14N exclusiva sem comentários, RSA-SHA1, SHA-1 e transform enveloped.
func DefaultDescriptor() Descriptor {
	return Descriptor{
		Namespace:        NamespaceDSig,
		Canonicalization: AlgExcC14N,
		SignatureMethod:  AlgRSASHA1,
		DigestMethod:     AlgSHA1,
		Transforms:       []string{TransformEnveloped, AlgExcC14N},
	}
}
