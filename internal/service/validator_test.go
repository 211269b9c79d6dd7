package service

import (
	"strings"
	"testing"

	"github.com/lexgraph/lexgraph/internal/domain"
	"go.uber.org/zap"
)

func newTestValidator(t *testing.T) *ValidatorService {
	t.Helper()
	return NewValidatorService(testIndex(t), DefaultValidationPolicy(), zap.NewNop())
}

func testAssembled() domain.AssembledContext {
	return domain.AssembledContext{
		Citations: map[string]string{
			"Citation-1": "Section 35, " + domain.SupportedAct,
			"Citation-2": "Section 39, " + domain.SupportedAct,
		},
	}
}

func TestValidate_CleanResponse(t *testing.T) {
	v := newTestValidator(t)

	response := "Section 35 provides that a complaint may be filed with the District Commission. [Citation-1] " +
		"This information is for educational purposes only and does not constitute legal advice."
	res := v.Validate(response, testAssembled(), domain.GraphContext{})

	if !res.IsValid {
		t.Fatalf("clean response invalid: %+v", res.Issues)
	}
	if res.ShouldBlockResponse() {
		t.Error("clean response blocked")
	}
	if res.HasErrors() {
		t.Errorf("unexpected errors: %+v", res.Issues)
	}
	if res.CitationCount != 1 {
		t.Errorf("citation count = %d, want 1", res.CitationCount)
	}
	if res.RequiresHumanReview {
		t.Errorf("clean response flagged for review, confidence %v", res.Confidence)
	}
}

func TestValidate_PredictiveLanguageBlocks(t *testing.T) {
	v := newTestValidator(t)

	response := "Based on the facts you will win the case. [Citation-1] " +
		"This information is for educational purposes only."
	res := v.Validate(response, testAssembled(), domain.GraphContext{})

	if res.IsValid {
		t.Fatal("predictive response marked valid")
	}
	if !res.ShouldBlockResponse() {
		t.Error("predictive response not blocked")
	}
	if len(res.IssuesOfKind(domain.IssuePredictiveLanguage)) == 0 {
		t.Errorf("no predictive_language issue: %+v", res.Issues)
	}
	if res.CorrectedResponse != "" {
		t.Error("predictive language must not be auto-corrected")
	}
}

func TestValidate_FabricatedSection(t *testing.T) {
	v := newTestValidator(t)

	response := "Section 9999 states that all sales are final. [Citation-1] See § 21 for penalties. " +
		"This information is for educational purposes only."
	res := v.Validate(response, testAssembled(), domain.GraphContext{})

	if res.IsValid {
		t.Fatal("fabricated section marked valid")
	}
	if len(res.FabricatedReferences) != 1 || res.FabricatedReferences[0] != "Section 9999" {
		t.Errorf("fabricated references = %v, want [Section 9999]", res.FabricatedReferences)
	}
	if !res.RequiresHumanReview {
		t.Error("fabricated section must require human review")
	}
}

func TestValidate_FabricatedSubsectionForm(t *testing.T) {
	v := newTestValidator(t)

	// Section 35(1) is not indexed as-is but its base section exists.
	response := "Section 35(1) allows electronic filing. [Citation-1] " +
		"This information is for educational purposes only."
	res := v.Validate(response, testAssembled(), domain.GraphContext{})

	if len(res.FabricatedReferences) != 0 {
		t.Errorf("subsection of a real section flagged: %v", res.FabricatedReferences)
	}

	response = "Under § 77(2) the claim fails. This information is for educational purposes only."
	res = v.Validate(response, testAssembled(), domain.GraphContext{})
	if len(res.FabricatedReferences) != 1 {
		t.Errorf("fabricated § form not flagged: %v", res.FabricatedReferences)
	}
}

func TestValidate_UnknownCitationKey(t *testing.T) {
	v := newTestValidator(t)

	response := "Consumers are entitled to a refund. [Citation-99] " +
		"This information is for educational purposes only."
	res := v.Validate(response, testAssembled(), domain.GraphContext{})

	issues := res.IssuesOfKind(domain.IssueInvalidCitation)
	if len(issues) != 1 {
		t.Fatalf("invalid citation issues = %+v, want exactly one", issues)
	}
	if issues[0].Severity != domain.SeverityError {
		t.Errorf("severity = %s, want error", issues[0].Severity)
	}
}

func TestValidate_MissingDisclaimerAutoCorrect(t *testing.T) {
	v := newTestValidator(t)

	// Five uncited claims and no disclaimer drag confidence below the
	// validity floor, but nothing blocking remains, so a disclaimer can be
	// appended mechanically.
	response := "Section 35 provides a complaint route and sellers should take notice of the long procedural history involved here. " +
		"It is well understood that consumers must act without unreasonable delay in every forum and before every authority. " +
		"According to section 39 a range of remedies is available once the commission has examined the matter in full detail. " +
		"The act provides protections that go beyond the ordinary law of contract in many separately argued respects. " +
		"The law requires sellers to deal honestly with buyers at every stage of the transaction."
	res := v.Validate(response, testAssembled(), domain.GraphContext{})

	if res.IsValid {
		t.Fatal("response with unsupported claims and no disclaimer marked valid")
	}
	if res.CorrectedResponse == "" {
		t.Fatal("no corrected response produced")
	}
	if !strings.HasPrefix(res.CorrectedResponse, response) {
		t.Error("correction must preserve the original text")
	}
	if !strings.Contains(res.CorrectedResponse, "Disclaimer:") {
		t.Error("correction missing the appended disclaimer")
	}
	if len(res.UnsupportedClaims) != 5 {
		t.Errorf("unsupported claims = %d, want 5", len(res.UnsupportedClaims))
	}
}

func TestValidate_WrongActReference(t *testing.T) {
	v := newTestValidator(t)

	response := "Section 11 of the Sale of Goods Act applies here. " +
		"This information is for educational purposes only."
	res := v.Validate(response, testAssembled(), domain.GraphContext{})

	if res.IsValid {
		t.Fatal("reference to a foreign act marked valid")
	}
	if len(res.IssuesOfKind(domain.IssueHallucinatedContent)) == 0 {
		t.Errorf("no hallucinated_content issue: %+v", res.Issues)
	}

	// The supported act never trips the check.
	response = "Section 35 of the Consumer Protection Act, 2019 provides a complaint route. [Citation-1] " +
		"This information is for educational purposes only."
	res = v.Validate(response, testAssembled(), domain.GraphContext{})
	if len(res.IssuesOfKind(domain.IssueHallucinatedContent)) != 0 {
		t.Errorf("supported act flagged as hallucination: %+v", res.Issues)
	}

	// Bare self-references to the act are not foreign statutes.
	for _, response := range []string{
		"Section 35 of the Act provides a complaint route. [Citation-1] " +
			"This information is for educational purposes only.",
		"A complaint under Section 39 of this Act is heard by the District Commission. [Citation-2] " +
			"This information is for educational purposes only.",
	} {
		res = v.Validate(response, testAssembled(), domain.GraphContext{})
		if issues := res.IssuesOfKind(domain.IssueHallucinatedContent); len(issues) != 0 {
			t.Errorf("self-reference flagged as hallucination: %+v", issues)
		}
	}
}

func TestValidate_ContentMismatchWarns(t *testing.T) {
	v := newTestValidator(t)

	gc := domain.GraphContext{Nodes: []domain.Node{{
		ID:   "SEC_35",
		Kind: domain.NodeSection,
		Section: &domain.Section{
			ID: "SEC_35", Number: "35", Title: "Manner of filing complaint",
			Text: "A complaint may be filed with the District Commission.",
			Act:  domain.SupportedAct,
		},
	}}}

	response := "Section 35 states that aircraft carriers enjoy blanket immunity. [Citation-1] " +
		"This information is for educational purposes only."
	res := v.Validate(response, testAssembled(), gc)

	issues := res.IssuesOfKind(domain.IssueContentMismatch)
	if len(issues) != 1 {
		t.Fatalf("content mismatch issues = %+v, want exactly one", issues)
	}
	if issues[0].Severity != domain.SeverityWarning {
		t.Errorf("mismatch severity = %s, want warning", issues[0].Severity)
	}
	if !res.RequiresHumanReview {
		t.Error("content mismatch must require human review")
	}
}
