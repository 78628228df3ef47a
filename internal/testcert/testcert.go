// Package testcert gera certificados autoassinados e contêineres PKCS#12
// para os testes do motor de assinatura. Os contêineres usam os algoritmos
// legados do PKCS#12, os mesmos que o decoder de produção aceita.

package testcert

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// Password senha dos contêineres gerados.
const Password = "senha-teste"

// Options janela de validade do certificado gerado. Campos zerados viram
// uma janela válida de -1h a +24h.
type Options struct {
	NotBefore time.Time
	NotAfter  time.Time
}

// NewP12 gera uma chave RSA e um certificado autoassinado e devolve o
// contêiner PKCS#12 junto com a chave, para os testes que precisam da
// chave pública correspondente.
func NewP12(opts Options) ([]byte, *rsa.PrivateKey, error) {
	if opts.NotBefore.IsZero() {
		opts.NotBefore = time.Now().Add(-time.Hour)
	}
	if opts.NotAfter.IsZero() {
		opts.NotAfter = time.Now().Add(24 * time.Hour)
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("gerar chave RSA: %w", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			CommonName:   "Prestador Teste LTDA",
			Organization: []string{"nfse-betha"},
		},
		NotBefore:             opts.NotBefore,
		NotAfter:              opts.NotAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("gerar certificado: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, fmt.Errorf("reparsear certificado: %w", err)
	}

	p12, err := gopkcs12.LegacyDES.Encode(key, cert, nil, Password)
	if err != nil {
		return nil, nil, fmt.Errorf("codificar pkcs12: %w", err)
	}
	return p12, key, nil
}
