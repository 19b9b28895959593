// Package facturae construye el documento Facturae 3.2.2 que se presenta a
// FACeB2B. La firma XAdES del documento queda fuera: la aplica un colaborador
// externo antes del envío real.
package facturae

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
	"github.com/invorya/facturae-faceb2b/internal/infrastructure/faceb2b"
)

// Namespaces oficiales Facturae 3.2.2.
const (
	nsFe = "http://www.facturae.es/Facturae/2014/v3.2.1/Facturae"
	nsDs = "http://www.w3.org/2000/09/xmldsig#"

	schemaVersion = "3.2.2"
)

// DocumentBuilder genera el XML Facturae de una factura. Sin efectos: el
// mismo input produce siempre el mismo documento.
type DocumentBuilder struct{}

// NewDocumentBuilder crea el servicio.
func NewDocumentBuilder() *DocumentBuilder {
	return &DocumentBuilder{}
}

// Build genera el documento Facturae listo para la operación SendInvoice.
func (b *DocumentBuilder) Build(company *entity.Company, partner *entity.Partner, invoice *entity.Invoice, lines []*entity.InvoiceLine) (*faceb2b.Document, error) {
	if company == nil || partner == nil || invoice == nil {
		return nil, fmt.Errorf("facturae: faltan company, partner o invoice")
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("facturae: la factura %s no tiene líneas", invoice.ID)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("fe:Facturae")
	root.CreateAttr("xmlns:fe", nsFe)
	root.CreateAttr("xmlns:ds", nsDs)

	b.writeFileHeader(root, company, invoice)
	b.writeParties(root, company, partner)
	b.writeInvoice(root, invoice, lines)

	doc.Indent(2)
	content, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("facturae: serializar documento: %w", err)
	}

	return &faceb2b.Document{
		Name:    DocumentFilename(company, invoice),
		Content: content,
		MIME:    "application/xml",
	}, nil
}

func (b *DocumentBuilder) writeFileHeader(root *etree.Element, company *entity.Company, invoice *entity.Invoice) {
	fh := root.CreateElement("FileHeader")
	fh.CreateElement("SchemaVersion").SetText(schemaVersion)
	fh.CreateElement("Modality").SetText("I") // individual: un fichero, una factura
	fh.CreateElement("InvoiceIssuerType").SetText("EM")

	batch := fh.CreateElement("Batch")
	batch.CreateElement("BatchIdentifier").SetText(company.VAT + invoice.Series + invoice.Number)
	batch.CreateElement("InvoicesCount").SetText("1")
	writeAmount(batch.CreateElement("TotalInvoicesAmount"), invoice.GrandTotal)
	writeAmount(batch.CreateElement("TotalOutstandingAmount"), invoice.GrandTotal)
	writeAmount(batch.CreateElement("TotalExecutableAmount"), invoice.GrandTotal)
	batch.CreateElement("InvoiceCurrencyCode").SetText("EUR")
}

func (b *DocumentBuilder) writeParties(root *etree.Element, company *entity.Company, partner *entity.Partner) {
	parties := root.CreateElement("Parties")

	seller := parties.CreateElement("SellerParty")
	writeTaxIdentification(seller, company.VAT, company.CountryCode)
	sellerLegal := seller.CreateElement("LegalEntity")
	sellerLegal.CreateElement("CorporateName").SetText(company.Name)

	buyer := parties.CreateElement("BuyerParty")
	writeTaxIdentification(buyer, partner.VAT, partner.CountryCode)
	if partner.DIRe != "" {
		centres := buyer.CreateElement("AdministrativeCentres")
		centre := centres.CreateElement("AdministrativeCentre")
		centre.CreateElement("CentreCode").SetText(partner.DIRe)
		centre.CreateElement("RoleTypeCode").SetText("01") // receptor
	}
	buyerLegal := buyer.CreateElement("LegalEntity")
	buyerLegal.CreateElement("CorporateName").SetText(partner.Name)
}

func (b *DocumentBuilder) writeInvoice(root *etree.Element, invoice *entity.Invoice, lines []*entity.InvoiceLine) {
	invoices := root.CreateElement("Invoices")
	inv := invoices.CreateElement("Invoice")

	header := inv.CreateElement("InvoiceHeader")
	header.CreateElement("InvoiceNumber").SetText(invoice.Number)
	if invoice.Series != "" {
		header.CreateElement("InvoiceSeriesCode").SetText(invoice.Series)
	}
	header.CreateElement("InvoiceDocumentType").SetText("FC") // factura completa
	header.CreateElement("InvoiceClass").SetText("OO")        // original

	issue := inv.CreateElement("InvoiceIssueData")
	issue.CreateElement("IssueDate").SetText(invoice.IssueDate.Format("2006-01-02"))
	issue.CreateElement("InvoiceCurrencyCode").SetText("EUR")
	issue.CreateElement("TaxCurrencyCode").SetText("EUR")
	issue.CreateElement("LanguageName").SetText("es")

	taxes := inv.CreateElement("TaxesOutputs")
	for _, line := range lines {
		tax := taxes.CreateElement("Tax")
		tax.CreateElement("TaxTypeCode").SetText("01") // IVA
		tax.CreateElement("TaxRate").SetText(normalizeRate(line.TaxRate).Mul(decimal.NewFromInt(100)).StringFixed(2))
		base := tax.CreateElement("TaxableBase")
		writeAmount(base, line.Subtotal)
		amount := tax.CreateElement("TaxAmount")
		writeAmount(amount, line.Subtotal.Mul(normalizeRate(line.TaxRate)))
	}

	totals := inv.CreateElement("InvoiceTotals")
	writeTotal(totals, "TotalGrossAmount", invoice.NetTotal)
	writeTotal(totals, "TotalGrossAmountBeforeTaxes", invoice.NetTotal)
	writeTotal(totals, "TotalTaxOutputs", invoice.TaxTotal)
	writeTotal(totals, "TotalTaxesWithheld", decimal.Zero)
	writeTotal(totals, "InvoiceTotal", invoice.GrandTotal)
	writeTotal(totals, "TotalOutstandingAmount", invoice.GrandTotal)
	writeTotal(totals, "TotalExecutableAmount", invoice.GrandTotal)

	items := inv.CreateElement("Items")
	for _, line := range lines {
		il := items.CreateElement("InvoiceLine")
		il.CreateElement("ItemDescription").SetText(line.Description)
		il.CreateElement("Quantity").SetText(line.Quantity.String())
		il.CreateElement("UnitPriceWithoutTax").SetText(line.UnitPrice.Round(6).StringFixed(6))
		il.CreateElement("TotalCost").SetText(line.Subtotal.Round(2).StringFixed(2))
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTaxIdentification(party *etree.Element, vat, country string) {
	tid := party.CreateElement("TaxIdentification")
	tid.CreateElement("PersonTypeCode").SetText("J") // persona jurídica
	residence := "R"
	if country != "" && country != "ES" {
		residence = "U" // residente en la UE / extranjero
	}
	tid.CreateElement("ResidenceTypeCode").SetText(residence)
	tid.CreateElement("TaxIdentificationNumber").SetText(vat)
}

func writeAmount(parent *etree.Element, v decimal.Decimal) {
	parent.CreateElement("TotalAmount").SetText(v.Round(2).StringFixed(2))
}

func writeTotal(parent *etree.Element, name string, v decimal.Decimal) {
	parent.CreateElement(name).SetText(v.Round(2).StringFixed(2))
}

// normalizeRate acepta el tipo como fracción (0.21) o porcentaje (21).
func normalizeRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return rate.Div(decimal.NewFromInt(100))
	}
	return rate
}

// DocumentFilename genera el nombre de fichero del documento: NIF del emisor
// más serie y número, en ASCII plano (la pasarela rechaza nombres con
// caracteres fuera de ese rango).
func DocumentFilename(company *entity.Company, invoice *entity.Invoice) string {
	name := company.VAT + "-" + invoice.Series + "-" + invoice.Number
	return stripDiacritics(sanitizeFilename(name)) + ".xsig"
}

func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		case r == '/' || r == ' ':
			return '-'
		default:
			return r // los diacríticos se resuelven después
		}
	}, s)
}

// stripDiacritics descompone (NFD), elimina marcas diacríticas y recompone.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
