package faceb2b

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ── Constantes SOAP ───────────────────────────────────────────────────────────

const (
	// DefaultEndpoint es el endpoint de producción de FACeB2B.
	DefaultEndpoint = "https://ws.faceb2b.gob.es/sv1/invoice"

	soapNS        = "http://schemas.xmlsoap.org/soap/envelope/"
	faceb2bNS     = "https://webservice.faceb2b.gob.es"
	soapActionSvc = "https://webservice.faceb2b.gob.es/"

	maxResponseBytes = 1 << 20 // 1 MB; las respuestas de estado son pequeñas
)

// ── Implementación SOAP ───────────────────────────────────────────────────────

// SOAPClient implementa Client usando el WS SOAP de FACeB2B.
// Usa net/http de la stdlib; la autenticación mTLS del canal queda fuera
// (se inyecta vía http.Client si hace falta).
type SOAPClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewSOAPClient construye el cliente con un timeout de red generoso (60 s):
// la pasarela puede tardar varios segundos en responder. endpoint vacío usa
// el de producción.
func NewSOAPClient(endpoint string) *SOAPClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &SOAPClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// NewSOAPClientWithHTTP permite inyectar un http.Client ya configurado
// (certificado cliente, proxy corporativo).
func NewSOAPClientWithHTTP(endpoint string, hc *http.Client) *SOAPClient {
	c := NewSOAPClient(endpoint)
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

var _ Client = (*SOAPClient)(nil)

// ── Estructuras SOAP de petición ──────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name   `xml:"s:Envelope"`
	XmlnsS  string     `xml:"xmlns:s,attr"`
	Header  soapHeader `xml:"s:Header"`
	Body    soapBody   `xml:"s:Body"`
}

type soapHeader struct{}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "s:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// sendInvoiceBody cuerpo de la operación SendInvoice.
type sendInvoiceBody struct {
	XMLName     xml.Name        `xml:"SendInvoiceRequest"`
	Xmlns       string          `xml:"xmlns,attr"`
	InvoiceFile invoiceFileBody `xml:"invoiceFile"`
}

type invoiceFileBody struct {
	Content string `xml:"content"` // documento en Base64
	Name    string `xml:"name"`
	MIME    string `xml:"mime"`
}

// getInvoiceDetailsBody cuerpo de la operación GetInvoiceDetails.
type getInvoiceDetailsBody struct {
	XMLName        xml.Name `xml:"GetInvoiceDetailsRequest"`
	Xmlns          string   `xml:"xmlns,attr"`
	RegistryNumber string   `xml:"registryNumber"`
}

// ── Estructuras SOAP de respuesta ─────────────────────────────────────────────

type soapResponseEnvelope struct {
	Body soapResponseBody `xml:"Body"`
}

type soapResponseBody struct {
	SendInvoiceResponse       *operationResponse `xml:"SendInvoiceResponse"`
	GetInvoiceDetailsResponse *operationResponse `xml:"GetInvoiceDetailsResponse"`
	Fault                     *soapFault         `xml:"Fault"`
}

// operationResponse es común a ambas operaciones: resultStatus + invoice.
type operationResponse struct {
	ResultStatus resultStatusXML `xml:"resultStatus"`
	Invoice      *invoiceXML     `xml:"invoiceDetail"`
}

type resultStatusXML struct {
	Code    string `xml:"code"`
	Detail  string `xml:"detail"`
	Message string `xml:"message"`
}

type invoiceXML struct {
	RegistryNumber   string         `xml:"registryNumber"`
	ReceptionDate    string         `xml:"receptionDate"`
	IssueDate        string         `xml:"issueDate"`
	StatusInfo       *codeTripleXML `xml:"statusInfo>status"`
	CancellationInfo *codeTripleXML `xml:"cancellationInfo>status"`
}

type codeTripleXML struct {
	Code        string `xml:"code"`
	Description string `xml:"description"`
	Reason      string `xml:"reason"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// ── Operaciones ───────────────────────────────────────────────────────────────

// SendInvoice presenta el documento Facturae a la pasarela.
func (c *SOAPClient) SendInvoice(ctx context.Context, doc *Document) (*Result, error) {
	if doc == nil || len(doc.Content) == 0 {
		return nil, fmt.Errorf("faceb2b: documento vacío")
	}
	mime := doc.MIME
	if mime == "" {
		mime = "application/xml"
	}
	body := &sendInvoiceBody{
		Xmlns: faceb2bNS,
		InvoiceFile: invoiceFileBody{
			Content: base64.StdEncoding.EncodeToString(doc.Content),
			Name:    doc.Name,
			MIME:    mime,
		},
	}
	return c.call(ctx, soapActionSvc+"SendInvoice", body)
}

// GetInvoiceDetails consulta el estado de una factura registrada.
func (c *SOAPClient) GetInvoiceDetails(ctx context.Context, registryNumber string) (*Result, error) {
	if registryNumber == "" {
		return nil, fmt.Errorf("faceb2b: registry number vacío")
	}
	body := &getInvoiceDetailsBody{
		Xmlns:          faceb2bNS,
		RegistryNumber: registryNumber,
	}
	return c.call(ctx, soapActionSvc+"GetInvoiceDetails", body)
}

// call serializa el envelope, ejecuta el POST y parsea la respuesta.
// Cualquier problema de transporte (red, timeout, fault, XML ilegible)
// se devuelve como error; el Dispatcher lo clasifica como error_on_send.
func (c *SOAPClient) call(ctx context.Context, action string, content interface{}) (*Result, error) {
	envelope := soapEnvelope{
		XmlnsS: soapNS,
		Body:   soapBody{Content: content},
	}
	xmlPayload, err := xml.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("faceb2b: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		bytes.NewReader(xmlPayload))
	if err != nil {
		return nil, fmt.Errorf("faceb2b: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("faceb2b: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("faceb2b: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("faceb2b: leer respuesta: %w", err)
	}

	return parseResponse(rawBody)
}

// parseResponse desempaqueta la respuesta SOAP en un Result.
func parseResponse(rawBody []byte) (*Result, error) {
	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(rawBody, &envResp); err != nil {
		return nil, fmt.Errorf("faceb2b: respuesta SOAP ilegible: %w", err)
	}

	if envResp.Body.Fault != nil {
		return nil, fmt.Errorf("faceb2b: SOAP Fault [%s]: %s",
			envResp.Body.Fault.FaultCode, envResp.Body.Fault.FaultString)
	}

	op := envResp.Body.SendInvoiceResponse
	if op == nil {
		op = envResp.Body.GetInvoiceDetailsResponse
	}
	if op == nil {
		return nil, fmt.Errorf("faceb2b: respuesta SOAP vacía o inesperada")
	}

	result := &Result{
		Status: ResultStatus{
			Code:    op.ResultStatus.Code,
			Detail:  op.ResultStatus.Detail,
			Message: op.ResultStatus.Message,
		},
		Raw: string(rawBody),
	}
	if inv := op.Invoice; inv != nil {
		result.RegistryNumber = inv.RegistryNumber
		result.ReceptionDate = parseGatewayTime(inv.ReceptionDate)
		result.IssueDate = parseGatewayTime(inv.IssueDate)
		if s := inv.StatusInfo; s != nil && (s.Code != "" || s.Description != "") {
			result.StatusInfo = &StatusInfo{Code: s.Code, Description: s.Description, Reason: s.Reason}
		}
		// Un elemento cancellationInfo vacío no aporta nada: solo se
		// conserva si trae código.
		if cTriple := inv.CancellationInfo; cTriple != nil && cTriple.Code != "" {
			result.CancellationInfo = &CancellationInfo{
				Code:        cTriple.Code,
				Description: cTriple.Description,
				Reason:      cTriple.Reason,
			}
		}
	}
	return result, nil
}

// parseGatewayTime acepta los dos formatos de fecha que emite la pasarela.
func parseGatewayTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
