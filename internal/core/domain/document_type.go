package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type DocumentType string

const (
	DocumentTypeCommerceCertificate DocumentType = "certificate_of_commerce"
	DocumentTypeCourtRecord         DocumentType = "court_record"
	DocumentTypeTitleRegistry       DocumentType = "title_registry"
	DocumentTypeGeneral             DocumentType = "general"
)

type typeRule struct {
	docType  DocumentType
	keywords []string
}

// Order is the tie-break: a commerce certificate that quotes a court stays a commerce certificate.
var classificationRules = []typeRule{
	{docType: DocumentTypeCommerceCertificate, keywords: []string{"camara de comercio", "certificado de existencia", "matricula"}},
	{docType: DocumentTypeCourtRecord, keywords: []string{"juzgado", "divorcio", "sentencia", "rama judicial"}},
	{docType: DocumentTypeTitleRegistry, keywords: []string{"certificado de tradicion", "registro de instrumentos"}},
}

// ClassifyDocument matches keywords case- and accent-insensitively.
func ClassifyDocument(text string) DocumentType {
	folded := foldText(text)
	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(folded, kw) {
				return rule.docType
			}
		}
	}
	return DocumentTypeGeneral
}

// foldText also strips accents, so "Cámara de Comercio" and "Matrícula" match
// their unaccented keywords; plain lowercasing would miss them.
func foldText(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}
