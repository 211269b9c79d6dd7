package service

import (
	"reflect"
	"testing"

	"github.com/lexgraph/lexgraph/internal/domain"
	"go.uber.org/zap"
)

func TestParse_Categories(t *testing.T) {
	svc := NewIntentService(zap.NewNop())

	cases := []struct {
		query string
		want  domain.Category
	}{
		{"What is a defect?", domain.CategoryDefinitionLookup},
		{"What does Section 35 say?", domain.CategorySectionRetrieval},
		{"What are my rights as a consumer?", domain.CategoryRightsQuery},
		{"I bought a defective product, can I file a complaint?", domain.CategoryScenarioAnalysis},
	}

	for _, tc := range cases {
		intent := svc.Parse(tc.query)
		if intent.Category != tc.want {
			t.Errorf("Parse(%q) category = %s, want %s", tc.query, intent.Category, tc.want)
		}
		if intent.Confidence <= 0 || intent.Confidence > 1 {
			t.Errorf("Parse(%q) confidence = %v, want (0,1]", tc.query, intent.Confidence)
		}
		if intent.OriginalQuery != tc.query {
			t.Errorf("Parse(%q) did not preserve the original query", tc.query)
		}
	}
}

func TestParse_SectionNumbers(t *testing.T) {
	svc := NewIntentService(zap.NewNop())

	// Extraction runs pattern by pattern: "section N" first, then the
	// abbreviated forms.
	intent := svc.Parse("Compare section 35 with sec. 39 and s. 2")
	want := []string{"35", "2", "39"}
	if !reflect.DeepEqual(intent.SectionNumbers, want) {
		t.Errorf("SectionNumbers = %v, want %v", intent.SectionNumbers, want)
	}

	intent = svc.Parse("Tell me about section 35 and section 35 again")
	if !reflect.DeepEqual(intent.SectionNumbers, []string{"35"}) {
		t.Errorf("duplicate sections not collapsed: %v", intent.SectionNumbers)
	}
}

func TestParse_LegalTermsSorted(t *testing.T) {
	svc := NewIntentService(zap.NewNop())

	intent := svc.Parse("The trader sold goods with a defect to the consumer")
	want := []string{"consumer", "defect", "goods", "trader"}
	if !reflect.DeepEqual(intent.LegalTerms, want) {
		t.Errorf("LegalTerms = %v, want %v", intent.LegalTerms, want)
	}
}

func TestParse_NonsenseFallsBack(t *testing.T) {
	svc := NewIntentService(zap.NewNop())

	intent := svc.Parse("xyzzy plugh quux")
	if intent.Category != domain.CategoryScenarioAnalysis {
		t.Errorf("category = %s, want %s", intent.Category, domain.CategoryScenarioAnalysis)
	}
	if intent.Confidence != defaultIntentConfidence {
		t.Errorf("confidence = %v, want %v", intent.Confidence, defaultIntentConfidence)
	}
}

func TestParse_Temporal(t *testing.T) {
	svc := NewIntentService(zap.NewNop())

	cases := []struct {
		query string
		want  string
	}{
		{"What is the current definition of consumer?", "current"},
		{"What did the law say as of 2019?", "2019"},
		{"Under the 2020 amendment, what changed?", "2020"},
		{"What is a defect?", ""},
	}
	for _, tc := range cases {
		if got := svc.Parse(tc.query).Temporal; got != tc.want {
			t.Errorf("Parse(%q) temporal = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestComplexity(t *testing.T) {
	svc := NewIntentService(zap.NewNop())

	simple := svc.Parse("What does Section 35 say?")
	if got := svc.Complexity(simple); got != domain.ComplexitySimple {
		t.Errorf("Complexity(section query) = %s, want %s", got, domain.ComplexitySimple)
	}

	moderate := svc.Parse("I bought a defective product, can I file a complaint?")
	if got := svc.Complexity(moderate); got != domain.ComplexityModerate {
		t.Errorf("Complexity(scenario) = %s, want %s", got, domain.ComplexityModerate)
	}

	complexQuery := "Suppose in 2020 a consumer files a complaint about a defect and deficiency in goods and services, what happens?"
	complexIntent := svc.Parse(complexQuery)
	if got := svc.Complexity(complexIntent); got != domain.ComplexityComplex {
		t.Errorf("Complexity(%q) = %s, want %s", complexQuery, got, domain.ComplexityComplex)
	}
}
