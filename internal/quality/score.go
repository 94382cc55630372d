package quality

// Rule is one weighted predicate contributing to the quality score.
type Rule struct {
	Name   string
	Weight int
	Holds  func(a Analysis, length int) bool
}

// ScoreRules is evaluated once per analysis; the score is the capped sum of
// the weights whose predicate holds.
var ScoreRules = []Rule{
	{Name: "high_quality", Weight: 40, Holds: func(a Analysis, _ int) bool { return a.IsHighQuality }},
	{Name: "substantial_content", Weight: 30, Holds: func(a Analysis, _ int) bool { return a.HasSubstantialContent }},
	{Name: "not_repetitive", Weight: 20, Holds: func(a Analysis, _ int) bool { return !a.IsRepetitive }},
	{Name: "no_ocr_indicators", Weight: 10, Holds: func(a Analysis, _ int) bool { return !a.HasOCRIndicators }},
	{Name: "typical_length", Weight: 10, Holds: func(_ Analysis, n int) bool {
		return n >= typicalLengthLowerBound && n < typicalLengthUpperBound
	}},
}

const maxScore = 100

// Score sums the weights of every rule that holds, capped at 100.
func Score(a Analysis, length int) int {
	total := 0
	for _, r := range ScoreRules {
		if r.Holds(a, length) {
			total += r.Weight
		}
	}
	if total > maxScore {
		return maxScore
	}
	return total
}
