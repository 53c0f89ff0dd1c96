package s3store

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

func TestTranslateErrorNotFound(t *testing.T) {
	for _, err := range []error{&types.NoSuchKey{}, &types.NotFound{}, &types.NoSuchBucket{}} {
		got := translateError("get object", "b", "k.pdf", err)
		if !domain.IsKind(got, domain.ErrDocumentNotFound) {
			t.Fatalf("expected ErrDocumentNotFound for %T, got %v", err, got)
		}
	}
}

func TestTranslateErrorServerFaultIsTemporary(t *testing.T) {
	err := &smithy.GenericAPIError{Code: "SlowDown", Message: "reduce rate", Fault: smithy.FaultServer}
	got := translateError("put object", "b", "k.txt", err)
	if !domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", got)
	}
}

func TestTranslateErrorClientFaultPassesThrough(t *testing.T) {
	cause := &smithy.GenericAPIError{Code: "AccessDenied", Fault: smithy.FaultClient}
	got := translateError("get object", "b", "k.pdf", cause)
	if domain.IsKind(got, domain.ErrTemporary) || domain.IsKind(got, domain.ErrDocumentNotFound) {
		t.Fatalf("expected untyped error, got %v", got)
	}
	var apiErr smithy.APIError
	if !errors.As(got, &apiErr) || apiErr.ErrorCode() != "AccessDenied" {
		t.Fatalf("expected wrapped api error, got %v", got)
	}
}
