package nats

import (
	"encoding/json"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

const (
	EventTypeExtractionRequested = "com.kirillkom.ocr.extraction.requested"
	EventTypeDocumentExtracted   = "com.kirillkom.ocr.document.extracted"

	defaultEventSource = "/pdf-ocr-pipeline"
)

func encodeEvent(source, eventType, subject string, payload any, now time.Time) ([]byte, error) {
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(now.UTC())
	if subject != "" {
		event.SetSubject(subject)
	}
	if err := event.SetData(cloudevents.ApplicationJSON, payload); err != nil {
		return nil, fmt.Errorf("set event data: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

func decodeExtractionRequest(data []byte) (domain.AsyncRequest, error) {
	var event cloudevents.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.AsyncRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode event", err)
	}
	if event.Type() != EventTypeExtractionRequested {
		return domain.AsyncRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode event", fmt.Errorf("unexpected type %q", event.Type()))
	}
	var req domain.AsyncRequest
	if err := event.DataAs(&req); err != nil {
		return domain.AsyncRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode event data", err)
	}
	return req, nil
}
