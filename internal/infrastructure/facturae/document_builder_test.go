package facturae_test

import (
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invorya/facturae-faceb2b/internal/domain/entity"
	"github.com/invorya/facturae-faceb2b/internal/infrastructure/facturae"
)

func fixtureParties() (*entity.Company, *entity.Partner) {
	company := &entity.Company{
		ID:          "co-1",
		Name:        "Acme SL",
		VAT:         "ESA12345674",
		CountryCode: "ES",
	}
	partner := &entity.Partner{
		ID:           "pa-1",
		Name:         "Cliente SA",
		VAT:          "ES05680675C",
		CountryCode:  "ES",
		ProvinceCode: "28",
		DIRe:         "51558573J",
	}
	return company, partner
}

func fixtureInvoice() (*entity.Invoice, []*entity.InvoiceLine) {
	inv := &entity.Invoice{
		ID:         "inv-1",
		Series:     "2999",
		Number:     "99998",
		IssueDate:  time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		NetTotal:   decimal.NewFromInt(100),
		TaxTotal:   decimal.RequireFromString("21.00"),
		GrandTotal: decimal.RequireFromString("121.00"),
	}
	lines := []*entity.InvoiceLine{{
		ID:          "l-1",
		InvoiceID:   "inv-1",
		Description: "Servicio de consultoría",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(100),
		TaxRate:     decimal.RequireFromString("0.21"),
		Subtotal:    decimal.NewFromInt(100),
	}}
	return inv, lines
}

func TestBuild_DocumentoCompleto(t *testing.T) {
	company, partner := fixtureParties()
	inv, lines := fixtureInvoice()

	doc, err := facturae.NewDocumentBuilder().Build(company, partner, inv, lines)
	require.NoError(t, err)
	require.NotEmpty(t, doc.Content)
	assert.Equal(t, "application/xml", doc.MIME)
	assert.Equal(t, "ESA12345674-2999-99998.xsig", doc.Name)

	// El XML debe ser parseable y contener las secciones clave.
	parsed := etree.NewDocument()
	require.NoError(t, parsed.ReadFromBytes(doc.Content))

	root := parsed.FindElement("//fe:Facturae")
	require.NotNil(t, root, "debe existir el elemento raíz fe:Facturae")

	assert.NotNil(t, parsed.FindElement("//FileHeader/SchemaVersion"))
	assert.Equal(t, "3.2.2", parsed.FindElement("//FileHeader/SchemaVersion").Text())
	assert.Equal(t, "ESA12345674", parsed.FindElement("//SellerParty/TaxIdentification/TaxIdentificationNumber").Text())
	assert.Equal(t, "ES05680675C", parsed.FindElement("//BuyerParty/TaxIdentification/TaxIdentificationNumber").Text())
	assert.Equal(t, "99998", parsed.FindElement("//InvoiceHeader/InvoiceNumber").Text())
	assert.Equal(t, "2999", parsed.FindElement("//InvoiceHeader/InvoiceSeriesCode").Text())
	assert.Equal(t, "2026-03-14", parsed.FindElement("//InvoiceIssueData/IssueDate").Text())
	assert.Equal(t, "121.00", parsed.FindElement("//InvoiceTotals/InvoiceTotal").Text())
}

// El código DIRe del receptor viaja como centro administrativo.
func TestBuild_DIReComoCentroAdministrativo(t *testing.T) {
	company, partner := fixtureParties()
	inv, lines := fixtureInvoice()

	doc, err := facturae.NewDocumentBuilder().Build(company, partner, inv, lines)
	require.NoError(t, err)

	parsed := etree.NewDocument()
	require.NoError(t, parsed.ReadFromBytes(doc.Content))
	centre := parsed.FindElement("//BuyerParty/AdministrativeCentres/AdministrativeCentre/CentreCode")
	require.NotNil(t, centre)
	assert.Equal(t, "51558573J", centre.Text())
}

func TestBuild_SinDIRe_OmiteCentros(t *testing.T) {
	company, partner := fixtureParties()
	partner.DIRe = ""
	inv, lines := fixtureInvoice()

	doc, err := facturae.NewDocumentBuilder().Build(company, partner, inv, lines)
	require.NoError(t, err)

	parsed := etree.NewDocument()
	require.NoError(t, parsed.ReadFromBytes(doc.Content))
	assert.Nil(t, parsed.FindElement("//AdministrativeCentres"))
}

// El tipo impositivo se acepta como fracción (0.21) o porcentaje (21).
func TestBuild_TipoImpositivoNormalizado(t *testing.T) {
	company, partner := fixtureParties()
	inv, lines := fixtureInvoice()
	lines[0].TaxRate = decimal.NewFromInt(21) // porcentaje

	doc, err := facturae.NewDocumentBuilder().Build(company, partner, inv, lines)
	require.NoError(t, err)

	parsed := etree.NewDocument()
	require.NoError(t, parsed.ReadFromBytes(doc.Content))
	assert.Equal(t, "21.00", parsed.FindElement("//TaxesOutputs/Tax/TaxRate").Text())
	assert.Equal(t, "21.00", parsed.FindElement("//TaxesOutputs/Tax/TaxAmount/TotalAmount").Text())
}

func TestBuild_SinLineas_Falla(t *testing.T) {
	company, partner := fixtureParties()
	inv, _ := fixtureInvoice()

	_, err := facturae.NewDocumentBuilder().Build(company, partner, inv, nil)
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Nombre de fichero
// ──────────────────────────────────────────────────────────────────────────────

func TestDocumentFilename_ASCIIPlano(t *testing.T) {
	company := &entity.Company{VAT: "ESÁ12345674"} // con diacrítico
	inv := &entity.Invoice{Series: "29 99", Number: "99/998"}

	name := facturae.DocumentFilename(company, inv)
	assert.Equal(t, "ESA12345674-29-99-99-998.xsig", name,
		"diacríticos eliminados y separadores normalizados a guion")
}

func TestDocumentFilename_SinSerie(t *testing.T) {
	company := &entity.Company{VAT: "ESA12345674"}
	inv := &entity.Invoice{Number: "7"}
	assert.Equal(t, "ESA12345674--7.xsig", facturae.DocumentFilename(company, inv))
}
