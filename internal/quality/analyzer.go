// Package quality decides whether text extracted directly from a PDF is good
// enough to skip OCR.
package quality

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinTextLength is the size below which direct text is always re-checked by OCR.
	MinTextLength = 2000
	// MaxTextForOCR marks the upper end of the "mid-sized" band.
	MaxTextForOCR = 75000
	// midBandStart marks the lower end of the "mid-sized" band.
	midBandStart = 10000

	repetitionThreshold     = 0.6
	headerRatioLimit        = 0.4
	minContentLines         = 3
	minAlnumRatio           = 0.6
	minWordDensity          = 0.08
	maxWordDensity          = 0.25
	maxFragmentedWords      = 10
	maxIsolatedDigits       = 20
	maxSpaceDensity         = 0.4
	shortTextScore          = 10
	typicalLengthLowerBound = 1000
	typicalLengthUpperBound = 50000
)

// Analysis is the verdict on a block of directly extracted text.
type Analysis struct {
	ShouldSkipOCR         bool `json:"should_skip_ocr"`
	IsHighQuality         bool `json:"is_high_quality"`
	IsRepetitive          bool `json:"is_repetitive"`
	HasOCRIndicators      bool `json:"has_ocr_indicators"`
	HasSubstantialContent bool `json:"has_substantial_content"`
	QualityScore          int  `json:"quality_score"`
}

// Signals holds the raw measurements gathered in one pass over the text.
type Signals struct {
	Length          int
	Lines           int
	RepeatedLines   int
	ContentLines    int
	HeaderLines     int
	AlnumRatio      float64
	SpaceDensity    float64
	WordDensity     float64
	FragmentedWords int
	IsolatedDigits  int
}

// RepetitionRatio is the share of non-empty lines that duplicate an earlier line.
func (s Signals) RepetitionRatio() float64 {
	if s.Lines == 0 {
		return 0
	}
	return float64(s.RepeatedLines) / float64(s.Lines)
}

// HeaderRatio is the share of non-empty lines that look like boilerplate.
func (s Signals) HeaderRatio() float64 {
	if s.Lines == 0 {
		return 0
	}
	return float64(s.HeaderLines) / float64(s.Lines)
}

// Analyze scores text and decides whether OCR can be skipped. It is a pure
// function of its input.
func Analyze(text string) Analysis {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return Analysis{}
	}
	if n < MinTextLength {
		return Analysis{HasOCRIndicators: true, QualityScore: shortTextScore}
	}
	return Evaluate(Measure(text))
}

// Measure gathers every signal the rules need.
func Measure(text string) Signals {
	s := Signals{Length: utf8.RuneCountInString(text)}

	seen := make(map[string]struct{})
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		s.Lines++
		if _, dup := seen[line]; dup {
			s.RepeatedLines++
		} else {
			seen[line] = struct{}{}
		}
		if matchesAny(contentPatterns, line) {
			s.ContentLines++
		}
		if matchesAny(headerPatterns, line) {
			s.HeaderLines++
		}
	}

	var alnum, spaces, nonSpace int
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			alnum++
			nonSpace++
		case r == ' ':
			spaces++
		case unicode.IsSpace(r):
		default:
			nonSpace++
		}
	}
	if s.Length > 0 {
		total := float64(s.Length)
		s.AlnumRatio = float64(alnum) / total
		s.SpaceDensity = float64(spaces) / total
		s.WordDensity = (float64(nonSpace) / 5) / total
	}

	s.FragmentedWords = len(fragmentedWordPattern.FindAllStringIndex(text, -1))
	s.IsolatedDigits = countIsolatedDigits(text)
	return s
}

// countIsolatedDigits counts whitespace-separated tokens that are a single
// ASCII digit. Adjacent digits in "1 2 3" each count.
func countIsolatedDigits(text string) int {
	n := 0
	for _, f := range strings.Fields(text) {
		if len(f) == 1 && f[0] >= '0' && f[0] <= '9' {
			n++
		}
	}
	return n
}

// Evaluate turns measured signals into flags, a skip decision and a score.
func Evaluate(s Signals) Analysis {
	a := Analysis{
		IsRepetitive:          s.RepetitionRatio() > repetitionThreshold,
		HasSubstantialContent: s.ContentLines >= minContentLines && s.HeaderRatio() <= headerRatioLimit,
		HasOCRIndicators: s.FragmentedWords > maxFragmentedWords ||
			s.IsolatedDigits > maxIsolatedDigits ||
			s.SpaceDensity > maxSpaceDensity,
		IsHighQuality: s.AlnumRatio > minAlnumRatio &&
			s.WordDensity >= minWordDensity && s.WordDensity <= maxWordDensity,
	}
	a.ShouldSkipOCR = shouldSkip(a, s.Length)
	a.QualityScore = Score(a, s.Length)
	return a
}

func shouldSkip(a Analysis, length int) bool {
	if a.IsRepetitive || a.HasOCRIndicators {
		return false
	}
	if length < midBandStart || length > MaxTextForOCR {
		return a.IsHighQuality && a.HasSubstantialContent
	}
	return a.IsHighQuality && a.HasSubstantialContent && !a.IsRepetitive
}
