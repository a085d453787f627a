package vault

import (
	"regexp"
	"strings"

	"github.com/codevault/codevault/pkg/domain"
)

// codePattern matches the canonical provider format: two groups of four
// digits separated by whitespace, or a bare eight-digit run on word
// boundaries so already-normalized codes re-extract identically. The
// boundaries keep eight-digit prefixes of longer digit runs (phone and
// account numbers in surrounding prose) from matching.
var codePattern = regexp.MustCompile(`\d{4}\s+\d{4}|\b\d{8}\b`)

var whitespace = regexp.MustCompile(`\s+`)

// ExtractCodes scans plain text for backup-code shaped substrings in order
// of first occurrence, taking sequential non-overlapping matches, and
// strips internal whitespace from each.
//
// Blank input fails with ErrEmptyInput; input with text but no
// recognizable codes fails with ErrNoCodesFound. Callers surface the two
// differently. Only decoded plain text is accepted here: binary container
// formats must be converted by the caller before extraction.
func ExtractCodes(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}

	matches := codePattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil, domain.ErrNoCodesFound
	}

	codes := make([]string, len(matches))
	for i, m := range matches {
		codes[i] = whitespace.ReplaceAllString(m, "")
	}
	return codes, nil
}
