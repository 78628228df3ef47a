package nfse

import "errors"

// Erros do caminho de assinatura (sem dependências externas). A verificação
// não participa da taxonomia: Verify degrada qualquer falha para false.
var (
	// ErrCertificate cobre contêiner PKCS#12 ilegível e senha incorreta; os
	// dois casos são reportados de forma idêntica de propósito.
	ErrCertificate        = errors.New("certificado: contêiner inválido ou senha incorreta")
	ErrCertificateExpired = errors.New("certificado expirado")
	ErrKeyExtraction      = errors.New("certificado: não foi possível extrair chave ou certificado")
	ErrParse              = errors.New("xml de entrada malformado")
	ErrElementNotFound    = errors.New("elemento obrigatório não encontrado")
	ErrSigning            = errors.New("falha na operação de assinatura")
	ErrUnknownKind        = errors.New("tipo de documento desconhecido")
)
