package domain

import "fmt"

// OCRCharWhitelist limits recognition to Spanish letters, digits and common punctuation.
const OCRCharWhitelist = `ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789ÁÉÍÓÚáéíóúÑñÜü.,;:!?()[]{}"-/\% `

type RasterOptions struct {
	Width     int
	Grayscale bool
}

// RecognitionConfig mirrors the tesseract --oem/--psm/whitelist switches.
type RecognitionConfig struct {
	EngineMode    int
	PageSegMode   int
	CharWhitelist string
}

// DefaultRecognitionConfig assumes one uniform block of text per page.
func DefaultRecognitionConfig() RecognitionConfig {
	return RecognitionConfig{
		EngineMode:    3,
		PageSegMode:   6,
		CharWhitelist: OCRCharWhitelist,
	}
}

func (c RecognitionConfig) String() string {
	return fmt.Sprintf("--oem %d --psm %d -c tessedit_char_whitelist='%s'", c.EngineMode, c.PageSegMode, c.CharWhitelist)
}
