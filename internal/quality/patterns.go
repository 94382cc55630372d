package quality

import "regexp"

// contentPatterns mark lines that carry document substance: identifiers,
// money, dates, certification language and personal names.
var contentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{3}\.\d{3}\.\d{3}-\d{2}\b`),
	regexp.MustCompile(`\b\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}\b`),
	regexp.MustCompile(`\b\d{5,}\b`),
	regexp.MustCompile(`(?:R\$|US\$|\$|€|£)\s?\d[\d.,]*`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+(?:de\s+)?(?:jan(?:uary|eiro)?|feb(?:ruary)?|fev(?:ereiro)?|mar(?:ch|ço)?|apr(?:il)?|abr(?:il)?|may|mai(?:o)?|jun(?:e|ho)?|jul(?:y|ho)?|aug(?:ust)?|ago(?:sto)?|sep(?:tember)?|set(?:embro)?|oct(?:ober)?|out(?:ubro)?|nov(?:ember|embro)?|dec(?:ember)?|dez(?:embro)?)\s+(?:de\s+)?\d{4}\b`),
	regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\b(?:certif(?:y|ies|ied|ico|ica|icado)|hereby|attest|sworn|notar(?:y|ial|io)|witness|assinad[oa]|registrad[oa])\b`),
	regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+(?:da|de|do|dos|das|van|von|del)?\s*[A-Z][a-z]+){1,3}\b`),
}

// headerPatterns mark boilerplate: page numbers, institutional letterheads
// and contact lines.
var headerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(?:page|p[aá]g(?:ina)?\.?)\s*\d+(?:\s*(?:of|de|/)\s*\d+)?\s*$`),
	regexp.MustCompile(`^\s*[-–]?\s*\d{1,4}\s*[-–]?\s*$`),
	regexp.MustCompile(`^\s*\d{1,4}\s*/\s*\d{1,4}\s*$`),
	regexp.MustCompile(`(?i)^\s*(?:republic|rep[uú]blica|ministry|minist[eé]rio|tribunal|court of|department of|poder judici[aá]rio|government of|governo|estado de|state of|prefeitura|city of)\b`),
	regexp.MustCompile(`(?i)\b(?:tel\.?|phone|fone|fax|e-?mail|cep)\s*[:.]`),
	regexp.MustCompile(`(?i)(?:www\.|https?://)`),
}

// fragmentedWordPattern matches letters separated by single spaces, e.g.
// "I N V O I C E", a common OCR-layer artifact.
var fragmentedWordPattern = regexp.MustCompile(`\b(?:\pL ){3,}\pL\b`)

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, p := range patterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}
