// Package textnorm cleans OCR and text-layer output before it is persisted.
package textnorm

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Longer sequences come first: strings.Replacer tries old strings in argument order.
var mojibake = strings.NewReplacer(
	"Ã¡", "á",
	"Ã©", "é",
	"Ã­", "í",
	"Ã³", "ó",
	"Ãº", "ú",
	"Ã±", "ñ",
	"Ã‘", "Ñ",
	"Ã¼", "ü",
	"Ãœ", "Ü",
	"Ã‰", "É",
	"Ã“", "Ó",
	"Ãš", "Ú",
	"Ã\u0081", "Á",
	"Ã\u008d", "Í",
	"Ã§", "ç",
	"Ãª", "ê",
	"Ã´", "ô",
	"Ã¢", "â",
	"Ã", "Á",
	"â€œ", "\"",
	"â€™", "'",
	"â€˜", "'",
	"â€”", "-",
	"â€“", "-",
	"â€¦", "...",
	"â€", "\"",
	"Â°", "°",
	"Âº", "º",
	"Âª", "ª",
	"Â¿", "¿",
	"Â¡", "¡",
	"Â«", "«",
	"Â»", "»",
)

var (
	spaceRun     = regexp.MustCompile(` +`)
	disallowed   = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:?!()\-"'%$°#/&@]`)
	blankLineRun = regexp.MustCompile(`\n{3,}`)
)

// minLineRunes is the shortest line kept; anything shorter is scan noise.
const minLineRunes = 3

// maxRepairPasses bounds repairs of text that was mis-decoded more than once.
const maxRepairPasses = 4

// Normalize repairs mis-decoded characters, strips noise characters and
// drops short lines. It is idempotent.
func Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	text = repairMojibake(text)

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = cleanLine(line)
		if utf8.RuneCountInString(line) < minLineRunes {
			continue
		}
		kept = append(kept, line)
	}

	out := strings.Join(kept, "\n")
	out = blankLineRun.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// repairMojibake reapplies the table until nothing changes, so double-encoded
// input ends up fully repaired in one call.
func repairMojibake(text string) string {
	for i := 0; i < maxRepairPasses; i++ {
		repaired := mojibake.Replace(text)
		if repaired == text {
			break
		}
		text = repaired
	}
	return text
}

func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = spaceRun.ReplaceAllString(line, " ")
	line = disallowed.ReplaceAllString(line, " ")
	line = spaceRun.ReplaceAllString(line, " ")
	return strings.TrimSpace(line)
}
