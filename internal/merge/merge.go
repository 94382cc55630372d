// Package merge joins per-chunk OCR output into one document and drops
// running headers and footers that recur on nearly every chunk.
package merge

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/local/ocrdispatcher/internal/chunk"
)

const (
	// minCountedLength is the trimmed length a line needs before its
	// frequency is tracked.
	minCountedLength = 5
	// maxGenericLength bounds lines that may be considered running noise.
	maxGenericLength = 40
	// A line recurs in "nearly every chunk" above ceil(chunks * 4/5).
	recurrenceNum = 4
	recurrenceDen = 5
)

// structuralPatterns mark lines that are always kept.
var structuralPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{3}\.\d{3}\.\d{3}-\d{2}\b`),
	regexp.MustCompile(`\b\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}\b`),
	regexp.MustCompile(`(?:R\$|US\$|\$|€|£)\s?\d[\d.,]*`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`[\w.+-]+@[\w-]+(?:\.[\w-]+)+`),
	regexp.MustCompile(`\(?\+?\d{2,3}\)?[\s.-]?\d{4,5}[\s.-]?\d{4}\b`),
	regexp.MustCompile(`\b\d{5,}\b`),
	regexp.MustCompile(`^\s*\p{Lu}{2,}(?:\s+\p{Lu}{2,}){1,4}\s*$`),
}

// genericPatterns mark page numbers, timestamps and separators.
var genericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:page|p[aá]g(?:ina)?\.?)\s*\d*(?:\s*(?:of|de|/)\s*\d+)?$`),
	regexp.MustCompile(`^[-–\[(]?\s*\d{1,4}\s*[-–\])]?$`),
	regexp.MustCompile(`^\d{1,4}\s*/\s*\d{1,4}$`),
	regexp.MustCompile(`^\d{1,2}:\d{2}(?::\d{2})?(?:\s*[AaPp][Mm])?$`),
	regexp.MustCompile(`^[-=_*.·•~#\s]{3,}$`),
}

// Merge flattens chunk results in order and removes generic lines that recur
// in more than ceil(0.8 * len(chunks)) places. Lines matching a structural
// pattern survive regardless of frequency. Input with no repeated lines is
// returned as its newline-joined concatenation.
func Merge(chunks []chunk.Result) string {
	var fragments []string
	for _, c := range chunks {
		fragments = append(fragments, c.Pages...)
	}
	if len(fragments) == 0 {
		return ""
	}
	lines := strings.Split(strings.Join(fragments, "\n"), "\n")

	freq := make(map[string]int)
	for _, line := range lines {
		key := strings.TrimSpace(line)
		if utf8.RuneCountInString(key) > minCountedLength {
			freq[key]++
		}
	}

	limit := (len(chunks)*recurrenceNum + recurrenceDen - 1) / recurrenceDen
	kept := lines[:0:0]
	for _, line := range lines {
		key := strings.TrimSpace(line)
		if freq[key] > limit && !structural(key) && generic(key) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func structural(line string) bool {
	for _, p := range structuralPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

func generic(line string) bool {
	if utf8.RuneCountInString(line) > maxGenericLength {
		return false
	}
	for _, p := range genericPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}
