package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paseto/nfse-betha/internal/application/signing"
	"github.com/paseto/nfse-betha/internal/infrastructure/xmldsig"
	"github.com/paseto/nfse-betha/internal/testcert"
	httpapi "github.com/paseto/nfse-betha/internal/interfaces/http"
	"github.com/paseto/nfse-betha/pkg/logger"
)

const loteRpsXML = `<EnviarLoteRpsSincronoEnvio xmlns="http://www.betha.com.br/e-nota-contribuinte-ws"><LoteRps Id="lote1"><NumeroLote>1</NumeroLote><ListaRps><Rps><InfDeclaracaoPrestacaoServico><Competencia>2024-05-10</Competencia><Servico><Discriminacao>Suporte técnico</Discriminacao></Servico></InfDeclaracaoPrestacaoServico></Rps></ListaRps></LoteRps></EnviarLoteRpsSincronoEnvio>`

func buildTestApp(t *testing.T) *fiber.App {
	t.Helper()
	p12, _, err := testcert.NewP12(testcert.Options{})
	require.NoError(t, err)
	identity, err := xmldsig.Load(p12, testcert.Password)
	require.NoError(t, err)

	log := logger.New(logger.Config{Env: "production", Level: "error"})
	uc := signing.NewUseCase(identity, log, signing.Config{})

	app := fiber.New()
	httpapi.Router(app, httpapi.RouterDeps{SigningUC: uc})
	return app
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestAssinarEVerificarRps(t *testing.T) {
	app := buildTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/assinaturas",
		httpapi.SignRequest{XML: loteRpsXML, Tipo: "rps"}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var signed httpapi.SignResponse
	decodeBody(t, resp, &signed)
	assert.Equal(t, "InfDeclaracaoPrestacaoServico", signed.ID)
	assert.Contains(t, signed.XML, "<Signature")

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/assinaturas/verificar",
		httpapi.VerifyRequest{XML: signed.XML}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var verified httpapi.VerifyResponse
	decodeBody(t, resp, &verified)
	assert.True(t, verified.Valida)
}

func TestAssinarTipoVazioAssinaRaiz(t *testing.T) {
	app := buildTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/assinaturas",
		httpapi.SignRequest{XML: `<Documento><Valor>1</Valor></Documento>`}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var signed httpapi.SignResponse
	decodeBody(t, resp, &signed)
	assert.Equal(t, "Documento", signed.ID)
}

func TestAssinarPorElementoID(t *testing.T) {
	app := buildTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/assinaturas",
		httpapi.SignRequest{XML: `<Documento><Bloco Id="b1"><Valor>1</Valor></Bloco></Documento>`, ElementoID: "b1"}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var signed httpapi.SignResponse
	decodeBody(t, resp, &signed)
	assert.Equal(t, "b1", signed.ID)
}

func TestAssinarSemXML(t *testing.T) {
	app := buildTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/assinaturas",
		httpapi.SignRequest{Tipo: "rps"}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body httpapi.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "VALIDATION", body.Code)
}

func TestAssinarXMLInvalido(t *testing.T) {
	app := buildTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/assinaturas",
		httpapi.SignRequest{XML: "<aberto>", Tipo: "generico"}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body httpapi.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "INVALID_XML", body.Code)
}

func TestAssinarTipoDesconhecido(t *testing.T) {
	app := buildTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/assinaturas",
		httpapi.SignRequest{XML: loteRpsXML, Tipo: "boleto"}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body httpapi.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "UNKNOWN_KIND", body.Code)
}

func TestAssinarAlvoAusente(t *testing.T) {
	app := buildTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/assinaturas",
		httpapi.SignRequest{XML: `<Documento><Valor>1</Valor></Documento>`, Tipo: "rps"}), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body httpapi.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "ELEMENT_NOT_FOUND", body.Code)
}

func TestVerificarDocumentoNaoAssinado(t *testing.T) {
	app := buildTestApp(t)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/assinaturas/verificar",
		httpapi.VerifyRequest{XML: loteRpsXML}), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var verified httpapi.VerifyResponse
	decodeBody(t, resp, &verified)
	assert.False(t, verified.Valida)
}

func TestCertificado(t *testing.T) {
	app := buildTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/certificado", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var info struct {
		Subject string `json:"subject"`
	}
	decodeBody(t, resp, &info)
	assert.Contains(t, info.Subject, "Prestador Teste LTDA")
}
