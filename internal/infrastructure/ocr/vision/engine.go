package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kirillkom/pdf-ocr-pipeline/internal/core/domain"
)

type annotateFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// Engine sends page images to Cloud Vision document text detection.
type Engine struct {
	annotate annotateFunc
	close    func() error
}

func New(ctx context.Context, credentialsFile string) (*Engine, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	return &Engine{
		annotate: func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return client.BatchAnnotateImages(ctx, req)
		},
		close: client.Close,
	}, nil
}

func (e *Engine) Close() error {
	if e.close == nil {
		return nil
	}
	return e.close()
}

// Recognize ignores the tesseract-specific parts of cfg; Vision has no
// equivalent of segmentation modes or character whitelists.
func (e *Engine) Recognize(ctx context.Context, img image.Image, lang string, _ domain.RecognitionConfig) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode page image: %w", err)
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: buf.Bytes()},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{LanguageHints: languageHints(lang)},
			},
		},
	}

	resp, err := e.annotate(ctx, req)
	if err != nil {
		return "", translateError(err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", nil
	}
	page := resp.GetResponses()[0]
	if page.GetError() != nil && page.GetError().GetCode() != int32(codes.OK) {
		return "", fmt.Errorf("vision annotate: %s", page.GetError().GetMessage())
	}
	return page.GetFullTextAnnotation().GetText(), nil
}

// tesseract language codes to the BCP-47 hints Vision expects
var visionLanguages = map[string]string{
	"spa": "es",
	"eng": "en",
	"por": "pt",
	"fra": "fr",
	"deu": "de",
	"ita": "it",
}

func languageHints(lang string) []string {
	if lang == "" {
		return nil
	}
	if hint, ok := visionLanguages[lang]; ok {
		return []string{hint}
	}
	return []string{lang}
}

func translateError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Aborted:
		return domain.WrapError(domain.ErrTemporary, "vision annotate", err)
	}
	return fmt.Errorf("vision annotate: %w", err)
}
