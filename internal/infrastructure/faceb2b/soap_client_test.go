package faceb2b_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invorya/facturae-faceb2b/internal/infrastructure/faceb2b"
)

func testDocument() *faceb2b.Document {
	return &faceb2b.Document{
		Name:    "ESA12345674-2999-99998.xsig",
		Content: []byte("<Facturae/>"),
		MIME:    "application/xml",
	}
}

// soapServer monta un httptest.Server que responde siempre con body y captura
// la última petición recibida.
func soapServer(t *testing.T, status int, body string) (*httptest.Server, *string, *http.Header) {
	t.Helper()
	var lastBody string
	var lastHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		lastBody = string(raw)
		lastHeader = r.Header.Clone()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &lastBody, &lastHeader
}

const sendOKResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <SendInvoiceResponse xmlns="https://webservice.faceb2b.gob.es">
      <resultStatus>
        <code>0</code>
        <detail>OK</detail>
      </resultStatus>
      <invoiceDetail>
        <registryNumber>1234567890</registryNumber>
        <receptionDate>2026-03-14T10:22:33</receptionDate>
      </invoiceDetail>
    </SendInvoiceResponse>
  </soapenv:Body>
</soapenv:Envelope>`

const detailsResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <GetInvoiceDetailsResponse xmlns="https://webservice.faceb2b.gob.es">
      <resultStatus>
        <code>0</code>
      </resultStatus>
      <invoiceDetail>
        <registryNumber>1234567890</registryNumber>
        <statusInfo>
          <status>
            <code>1200</code>
            <description>Registrada en el REC</description>
          </status>
        </statusInfo>
        <cancellationInfo>
          <status>
            <code></code>
            <description></description>
          </status>
        </cancellationInfo>
      </invoiceDetail>
    </GetInvoiceDetailsResponse>
  </soapenv:Body>
</soapenv:Envelope>`

const faultResponse = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <soapenv:Fault>
      <faultcode>soapenv:Server</faultcode>
      <faultstring>Servicio no disponible</faultstring>
    </soapenv:Fault>
  </soapenv:Body>
</soapenv:Envelope>`

// ──────────────────────────────────────────────────────────────────────────────
// SendInvoice
// ──────────────────────────────────────────────────────────────────────────────

func TestSendInvoice_RespuestaCorrecta(t *testing.T) {
	srv, reqBody, reqHeader := soapServer(t, http.StatusOK, sendOKResponse)
	client := faceb2b.NewSOAPClient(srv.URL)

	res, err := client.SendInvoice(context.Background(), testDocument())
	require.NoError(t, err)

	assert.Equal(t, "0", res.Status.Code)
	assert.Equal(t, "1234567890", res.RegistryNumber)
	assert.Equal(t, 2026, res.ReceptionDate.Year())
	assert.Contains(t, res.Raw, "SendInvoiceResponse", "el cuerpo crudo se conserva para auditoría")

	// La petición debe llevar el documento en Base64 y el SOAPAction correcto.
	encoded := base64.StdEncoding.EncodeToString([]byte("<Facturae/>"))
	assert.Contains(t, *reqBody, encoded)
	assert.Contains(t, *reqBody, "ESA12345674-2999-99998.xsig")
	assert.Contains(t, reqHeader.Get("SOAPAction"), "SendInvoice")
	assert.Contains(t, reqHeader.Get("Content-Type"), "text/xml")
}

func TestSendInvoice_DocumentoVacio_Falla(t *testing.T) {
	client := faceb2b.NewSOAPClient("http://localhost:0")
	_, err := client.SendInvoice(context.Background(), &faceb2b.Document{})
	assert.Error(t, err)
}

func TestSendInvoice_SOAPFault_EsErrorDeTransporte(t *testing.T) {
	srv, _, _ := soapServer(t, http.StatusInternalServerError, faultResponse)
	client := faceb2b.NewSOAPClient(srv.URL)

	_, err := client.SendInvoice(context.Background(), testDocument())
	require.Error(t, err, "un SOAP Fault se devuelve como error, nunca como Result")
	assert.Contains(t, err.Error(), "Servicio no disponible")
}

func TestSendInvoice_RespuestaIlegible_Falla(t *testing.T) {
	srv, _, _ := soapServer(t, http.StatusOK, "esto no es XML")
	client := faceb2b.NewSOAPClient(srv.URL)

	_, err := client.SendInvoice(context.Background(), testDocument())
	assert.Error(t, err)
}

func TestSendInvoice_ServidorCaido_Falla(t *testing.T) {
	srv, _, _ := soapServer(t, http.StatusOK, sendOKResponse)
	url := srv.URL
	srv.Close()

	client := faceb2b.NewSOAPClient(url)
	_, err := client.SendInvoice(context.Background(), testDocument())
	assert.Error(t, err)
}

func TestSendInvoice_ContextoCancelado_Falla(t *testing.T) {
	srv, _, _ := soapServer(t, http.StatusOK, sendOKResponse)
	client := faceb2b.NewSOAPClient(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.SendInvoice(ctx, testDocument())
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// GetInvoiceDetails
// ──────────────────────────────────────────────────────────────────────────────

func TestGetInvoiceDetails_ConStatusInfo(t *testing.T) {
	srv, reqBody, reqHeader := soapServer(t, http.StatusOK, detailsResponse)
	client := faceb2b.NewSOAPClient(srv.URL)

	res, err := client.GetInvoiceDetails(context.Background(), "1234567890")
	require.NoError(t, err)

	assert.Equal(t, "0", res.Status.Code)
	require.NotNil(t, res.StatusInfo)
	assert.Equal(t, "1200", res.StatusInfo.Code)

	// Un cancellationInfo sin código no aporta nada y se descarta.
	assert.Nil(t, res.CancellationInfo)

	assert.True(t, strings.Contains(*reqBody, "<registryNumber>1234567890</registryNumber>"))
	assert.Contains(t, reqHeader.Get("SOAPAction"), "GetInvoiceDetails")
}

func TestGetInvoiceDetails_RegistroVacio_Falla(t *testing.T) {
	client := faceb2b.NewSOAPClient("http://localhost:0")
	_, err := client.GetInvoiceDetails(context.Background(), "")
	assert.Error(t, err)
}
