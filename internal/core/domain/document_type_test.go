package domain

import "testing"

func TestClassifyDocumentPrefersCommerceOverCourt(t *testing.T) {
	text := "JUZGADO PRIMERO CIVIL\nCertificado expedido por la Camara de Comercio de Bogota"
	if got := ClassifyDocument(text); got != DocumentTypeCommerceCertificate {
		t.Fatalf("expected %s, got %s", DocumentTypeCommerceCertificate, got)
	}
}

func TestClassifyDocumentCourtRecord(t *testing.T) {
	if got := ClassifyDocument("Rama Judicial del Poder Publico"); got != DocumentTypeCourtRecord {
		t.Fatalf("expected %s, got %s", DocumentTypeCourtRecord, got)
	}
}

func TestClassifyDocumentIgnoresAccents(t *testing.T) {
	if got := ClassifyDocument("CERTIFICADO DE TRADICIÓN Y LIBERTAD"); got != DocumentTypeTitleRegistry {
		t.Fatalf("expected %s, got %s", DocumentTypeTitleRegistry, got)
	}
	if got := ClassifyDocument("Cámara de Comercio"); got != DocumentTypeCommerceCertificate {
		t.Fatalf("expected %s, got %s", DocumentTypeCommerceCertificate, got)
	}
}

func TestClassifyDocumentFallsBackToGeneral(t *testing.T) {
	if got := ClassifyDocument("acta de reunion ordinaria"); got != DocumentTypeGeneral {
		t.Fatalf("expected %s, got %s", DocumentTypeGeneral, got)
	}
}
