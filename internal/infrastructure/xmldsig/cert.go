// Carga da identidade de assinatura a partir de contêiner PKCS#12 (.p12/.pfx,
// certificado A1). A validade é verificada uma única vez, na carga: uma
// Identity expirada nunca chega a ser construída. Processos de vida longa
// devem re-validar antes de cada assinatura (ver signing.Config.RecheckExpiry).

package xmldsig

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/paseto/nfse-betha/pkg/nfse"
)

// Identity é o par chave privada + certificado extraído do contêiner.
// Imutável após a carga; leituras concorrentes são seguras sem lock.
type Identity struct {
	privateKey *rsa.PrivateKey
	cert       *x509.Certificate
	certBase64 string
	notAfter   time.Time
}

// Load decodifica o contêiner PKCS#12 com a senha informada.
func Load(containerBytes []byte, passphrase string) (*Identity, error) {
	return load(containerBytes, passphrase, time.Now())
}

// LoadFile lê o contêiner do disco e delega para Load.
func LoadFile(path, passphrase string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ler contêiner pkcs12: %w", err)
	}
	return Load(data, passphrase)
}

func load(containerBytes []byte, passphrase string, now time.Time) (*Identity, error) {
	if len(containerBytes) == 0 {
		return nil, fmt.Errorf("%w: contêiner vazio", nfse.ErrCertificate)
	}
	priv, cert, err := pkcs12.Decode(containerBytes, passphrase)
	if err != nil {
		// Contêiner corrompido e senha errada são indistinguíveis de
		// propósito: não vazamos qual dos dois ocorreu.
		return nil, fmt.Errorf("%w: decodificação falhou", nfse.ErrCertificate)
	}
	if cert == nil {
		return nil, fmt.Errorf("%w: contêiner sem certificado", nfse.ErrKeyExtraction)
	}
	key, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: a chave privada não é RSA", nfse.ErrKeyExtraction)
	}
	if !now.Before(cert.NotAfter) {
		return nil, fmt.Errorf("%w: válido até %s", nfse.ErrCertificateExpired,
			cert.NotAfter.Format(time.RFC3339))
	}
	return &Identity{
		privateKey: key,
		cert:       cert,
		certBase64: base64.StdEncoding.EncodeToString(cert.Raw),
		notAfter:   cert.NotAfter,
	}, nil
}

// Expired informa se a identidade já passou da validade em relação a now.
func (id *Identity) Expired(now time.Time) bool {
	return !now.Before(id.notAfter)
}

// PublicKey expõe a chave pública do certificado.
func (id *Identity) PublicKey() *rsa.PublicKey {
	return &id.privateKey.PublicKey
}

// CertificateBase64 é o corpo DER do certificado em base64 numa única linha,
// sem cabeçalho/rodapé PEM, pronto para o X509Certificate do KeyInfo.
func (id *Identity) CertificateBase64() string {
	return id.certBase64
}

// Info retorna os dados do certificado para diagnóstico/monitoração.
func (id *Identity) Info() nfse.CertificateInfo {
	return nfse.CertificateInfo{
		Subject:   id.cert.Subject.String(),
		Issuer:    id.cert.Issuer.String(),
		NotBefore: id.cert.NotBefore,
		NotAfter:  id.cert.NotAfter,
	}
}
