package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/nats-io/nats.go"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

func TestExtractionRequestRoundTrip(t *testing.T) {
	req := domain.AsyncRequest{
		SourceBucket: "in",
		SourceKey:    "2008-00151/escritura.pdf",
		DestBucket:   "out",
		DestPrefix:   "processing/{group_id}/",
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	data, err := encodeEvent("/test", EventTypeExtractionRequested, req.SourceKey, req, now)
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}

	var envelope map[string]any
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("expected json envelope, got %v", err)
	}
	if envelope["specversion"] != "1.0" || envelope["type"] != EventTypeExtractionRequested {
		t.Fatalf("unexpected envelope: %v", envelope)
	}
	if envelope["subject"] != req.SourceKey {
		t.Fatalf("expected subject %q, got %v", req.SourceKey, envelope["subject"])
	}

	got, err := decodeExtractionRequest(data)
	if err != nil {
		t.Fatalf("decodeExtractionRequest() error = %v", err)
	}
	if got != req {
		t.Fatalf("expected %+v, got %+v", req, got)
	}
}

func TestDecodeExtractionRequestRejectsOtherTypes(t *testing.T) {
	data, err := encodeEvent("/test", EventTypeDocumentExtracted, "", domain.DocumentSummary{Status: domain.StatusSuccess}, time.Now())
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}
	if _, err := decodeExtractionRequest(data); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := decodeExtractionRequest([]byte("2008-00151")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for raw payload, got %v", err)
	}
}

func TestDocumentExtractedCarriesSummary(t *testing.T) {
	summary := domain.DocumentSummary{Status: domain.StatusSuccess, DestKey: "out/a.txt", GroupID: "2008-00151", TotalPages: 3, PagesProcessed: 2}
	data, err := encodeEvent("/test", EventTypeDocumentExtracted, summary.DestKey, summary, time.Now())
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}
	got, err := decodeDocumentExtracted(data)
	if err != nil {
		t.Fatalf("decodeDocumentExtracted() error = %v", err)
	}
	if got != summary {
		t.Fatalf("expected %+v, got %+v", summary, got)
	}
}

func TestPublishDocumentExtractedWithoutSubjectIsNoop(t *testing.T) {
	q := &Queue{now: time.Now}
	if err := q.PublishDocumentExtracted(context.Background(), domain.DocumentSummary{}); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestPublishErrorMarksBrokerOutagesTemporary(t *testing.T) {
	err := publishError(opPublishRequest, fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), opPublishRequest) {
		t.Fatalf("expected operation prefix, got %q", err.Error())
	}

	err = publishError(opPublishEvent, fmt.Errorf("nats publish: %w", nats.ErrMaxPayload))
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected oversized event to stay permanent, got %v", err)
	}
}

func TestClassifyPublishErrorSparesBreakerForCallerMistakes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		record bool
	}{
		{"cancelled", context.Canceled, false},
		{"max payload", nats.ErrMaxPayload, false},
		{"bad subject", nats.ErrBadSubject, false},
		{"no servers", nats.ErrNoServers, true},
		{"unknown", errors.New("boom"), true},
	}
	for _, tc := range cases {
		if got := classifyPublishError(tc.err).RecordFailure; got != tc.record {
			t.Fatalf("%s: expected RecordFailure=%v, got %v", tc.name, tc.record, got)
		}
	}
}

func decodeDocumentExtracted(data []byte) (domain.DocumentSummary, error) {
	var event cloudevents.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.DocumentSummary{}, fmt.Errorf("decode event: %w", err)
	}
	var summary domain.DocumentSummary
	if err := event.DataAs(&summary); err != nil {
		return domain.DocumentSummary{}, fmt.Errorf("decode event data: %w", err)
	}
	return summary, nil
}
