package service

import (
	"regexp"
	"sort"
	"strings"

	"github.com/lexgraph/lexgraph/internal/domain"
	"go.uber.org/zap"
)

// defaultIntentConfidence is used when no category pattern matches and the
// query falls through to scenario analysis.
const defaultIntentConfidence = 0.3

// categoryOrder fixes evaluation order so classification is deterministic
// when two categories tie on match ratio.
var categoryOrder = []domain.Category{
	domain.CategoryDefinitionLookup,
	domain.CategorySectionRetrieval,
	domain.CategoryRightsQuery,
	domain.CategoryScenarioAnalysis,
}

// categoryPatterns is the trigger-phrase catalog per category. Confidence
// is the fraction of a category's patterns that matched, so the table can
// be recalibrated by editing entries without touching scoring logic.
var categoryPatterns = map[domain.Category][]*regexp.Regexp{
	domain.CategoryDefinitionLookup: {
		regexp.MustCompile(`\b(?:what\s+is|define|definition\s+of|meaning\s+of|explain)\b.*?\b(?:consumer|trader|defect|deficiency|unfair\s+trade|advertisement)\b`),
		regexp.MustCompile(`\b(?:consumer|trader|defect|deficiency|unfair\s+trade|advertisement)\b.*?\b(?:means?|definition|defined\s+as)\b`),
		regexp.MustCompile(`\b(?:term|word)\b.*?\b(?:consumer|trader|defect|deficiency|unfair\s+trade|advertisement)\b`),
	},
	domain.CategorySectionRetrieval: {
		regexp.MustCompile(`\bsection\s+\d+\b`),
		regexp.MustCompile(`\bs\.\s*\d+\b`),
		regexp.MustCompile(`\bsec\.\s*\d+\b`),
		regexp.MustCompile(`\b(?:show|tell|find|get)\b.*?\bsection\b`),
		regexp.MustCompile(`\b(?:chapter|part)\s+\d+\b`),
	},
	domain.CategoryRightsQuery: {
		regexp.MustCompile(`\b(?:rights?|entitled?|entitlement|protection)\b.*?\b(?:consumer|buyer|customer)\b`),
		regexp.MustCompile(`\b(?:consumer|buyer|customer)\b.*?\b(?:rights?|entitled?|entitlement|protection)\b`),
		regexp.MustCompile(`\b(?:what\s+can|how\s+can)\b.*?\b(?:consumer|buyer|customer)\b.*?\b(?:do|claim|get)\b`),
		regexp.MustCompile(`\b(?:remedies|redressal|compensation)\b`),
	},
	domain.CategoryScenarioAnalysis: {
		regexp.MustCompile(`\b(?:if|suppose|what\s+happens|scenario|case|situation)\b`),
		regexp.MustCompile(`\b(?:can\s+i|should\s+i|may\s+i)\b.*?\b(?:file|complain|sue|claim)\b`),
		regexp.MustCompile(`\b(?:defective|faulty|damaged)\b.*?\b(?:product|goods|service)\b`),
		regexp.MustCompile(`\b(?:unfair|misleading|false)\b.*?\b(?:advertisement|practice|contract)\b`),
	},
}

// legalTerms is the fixed vocabulary for legal-term extraction. Matching
// checks the term itself plus underscore and concatenated variants.
var legalTerms = []string{
	"consumer", "trader", "manufacturer", "service provider", "complainant",
	"defect", "deficiency", "unfair trade practice", "restrictive trade practice",
	"misleading advertisement", "false advertisement", "consumer rights",
	"product liability", "compensation", "redressal", "complaint",
	"district commission", "state commission", "national commission",
	"central authority", "consumer protection", "goods", "services",
	"warranty", "guarantee", "endorsement", "e-commerce", "direct selling",
}

var sectionNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bsection\s+(\d+(?:\.\d+)*)\b`),
	regexp.MustCompile(`\bs\.\s*(\d+(?:\.\d+)*)\b`),
	regexp.MustCompile(`\bsec\.\s*(\d+(?:\.\d+)*)\b`),
	regexp.MustCompile(`\b(\d+)\s*(?:of|under)\s+(?:cpa|consumer\s+protection\s+act)\b`),
}

var (
	quotedPattern      = regexp.MustCompile(`"([^"]*)"`)
	capitalizedPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	temporalYear       = regexp.MustCompile(`\b(?:in|during|as\s+of|before|after)\s+(\d{4})\b`)
	temporalVersion    = regexp.MustCompile(`\b(\d{4})\s+(?:version|amendment|act)\b`)
	temporalCurrent    = regexp.MustCompile(`\b(?:current|latest|present|now)\b`)
)

// IntentService classifies raw query text into one of the four categories
// and extracts entities. It is independent of the graph and never fails:
// empty or nonsense input resolves to a valid, low-confidence intent.
type IntentService struct {
	termPatterns map[string][]*regexp.Regexp
	logger       *zap.Logger
}

func NewIntentService(logger *zap.Logger) *IntentService {
	patterns := make(map[string][]*regexp.Regexp, len(legalTerms))
	for _, term := range legalTerms {
		variants := []string{
			term,
			strings.ReplaceAll(term, " ", "_"),
			strings.ReplaceAll(term, " ", ""),
			term + "s",
		}
		for _, v := range variants {
			patterns[term] = append(patterns[term],
				regexp.MustCompile(`\b`+regexp.QuoteMeta(strings.ToLower(v))+`\b`))
		}
	}
	return &IntentService{termPatterns: patterns, logger: logger}
}

// Parse extracts the legal intent from a user query.
func (s *IntentService) Parse(query string) domain.QueryIntent {
	lower := strings.ToLower(strings.TrimSpace(query))

	intent := domain.QueryIntent{
		Entities:       s.extractEntities(query),
		SectionNumbers: s.extractSectionNumbers(lower),
		LegalTerms:     s.extractLegalTerms(lower),
		OriginalQuery:  query,
		Temporal:       s.extractTemporal(lower),
	}
	intent.Category, intent.Confidence = s.classify(lower)

	s.logger.Debug("parsed query intent",
		zap.String("category", string(intent.Category)),
		zap.Float64("confidence", intent.Confidence),
		zap.Strings("legal_terms", intent.LegalTerms),
		zap.Strings("section_numbers", intent.SectionNumbers))

	return intent
}

func (s *IntentService) classify(query string) (domain.Category, float64) {
	best := domain.CategoryScenarioAnalysis
	bestScore := 0.0

	for _, category := range categoryOrder {
		patterns := categoryPatterns[category]
		matched := 0
		for _, p := range patterns {
			if p.MatchString(query) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		score := float64(matched) / float64(len(patterns))
		if score > bestScore {
			best = category
			bestScore = score
		}
	}

	if bestScore == 0 {
		// Catch-all: unparseable input still gets a valid intent.
		return domain.CategoryScenarioAnalysis, defaultIntentConfidence
	}
	if bestScore > 1.0 {
		bestScore = 1.0
	}
	return best, bestScore
}

func (s *IntentService) extractEntities(query string) []string {
	seen := make(map[string]bool)
	var entities []string
	add := func(e string) {
		if e != "" && !seen[e] {
			seen[e] = true
			entities = append(entities, e)
		}
	}
	for _, m := range quotedPattern.FindAllStringSubmatch(query, -1) {
		add(m[1])
	}
	for _, m := range capitalizedPattern.FindAllString(query, -1) {
		add(m)
	}
	return entities
}

func (s *IntentService) extractSectionNumbers(query string) []string {
	seen := make(map[string]bool)
	var numbers []string
	for _, p := range sectionNumberPatterns {
		for _, m := range p.FindAllStringSubmatch(query, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				numbers = append(numbers, m[1])
			}
		}
	}
	return numbers
}

func (s *IntentService) extractLegalTerms(query string) []string {
	var found []string
	for _, term := range legalTerms {
		for _, p := range s.termPatterns[term] {
			if p.MatchString(query) {
				found = append(found, term)
				break
			}
		}
	}
	sort.Strings(found)
	return found
}

func (s *IntentService) extractTemporal(query string) string {
	if temporalCurrent.MatchString(query) {
		return "current"
	}
	if m := temporalYear.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	if m := temporalVersion.FindStringSubmatch(query); m != nil {
		return m[1]
	}
	return ""
}

// Complexity derives a 3-level routing label from entity count, category,
// temporal qualifier and classification confidence.
func (s *IntentService) Complexity(intent domain.QueryIntent) domain.Complexity {
	score := 0
	if len(intent.Entities) > 2 {
		score++
	}
	if len(intent.LegalTerms) > 3 {
		score++
	}
	if intent.Category == domain.CategoryScenarioAnalysis {
		score += 2
	}
	if intent.Temporal != "" {
		score++
	}
	if intent.Confidence < 0.6 {
		score++
	}

	switch {
	case score <= 1:
		return domain.ComplexitySimple
	case score <= 3:
		return domain.ComplexityModerate
	default:
		return domain.ComplexityComplex
	}
}
