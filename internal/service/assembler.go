package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lexgraph/lexgraph/internal/domain"
	"github.com/lexgraph/lexgraph/internal/graph"
	"go.uber.org/zap"
)

const (
	DefaultMaxContextLength = 8000

	truncationMarker = "[Context truncated due to length]"

	blockPrimary      = "PRIMARY LEGAL PROVISIONS"
	blockDefinitions  = "LEGAL DEFINITIONS"
	blockRights       = "CONSUMER RIGHTS"
	blockRelated      = "RELATED PROVISIONS"
	blockHierarchical = "CONTEXTUAL INFORMATION"

	hierarchyLimit = 3
)

// AssemblerService turns a graph context into the citation-tagged text block
// handed to generation. Citation keys are sequential per call, so concurrent
// requests never share a counter.
type AssemblerService struct {
	idx       *graph.Index
	maxLength int
	logger    *zap.Logger
}

func NewAssemblerService(idx *graph.Index, maxLength int, logger *zap.Logger) *AssemblerService {
	if maxLength <= 0 {
		maxLength = DefaultMaxContextLength
	}
	return &AssemblerService{idx: idx, maxLength: maxLength, logger: logger}
}

// block is one titled segment of the assembled context. Blocks are emitted
// in a fixed order and truncated from the tail.
type block struct {
	title string
	body  string
}

// citationTagger allocates sequential Citation-N keys and records what each
// one refers to.
type citationTagger struct {
	next int
	refs map[string]string
}

func newCitationTagger() *citationTagger {
	return &citationTagger{next: 1, refs: make(map[string]string)}
}

// tag registers a citation and returns its bracketed token.
func (t *citationTagger) tag(citation string) string {
	key := fmt.Sprintf("Citation-%d", t.next)
	t.next++
	t.refs[key] = citation
	return "[" + key + "]"
}

// Assemble builds the assembled context for one retrieval result. The same
// graph context and intent always produce identical output, including
// citation numbering.
func (s *AssemblerService) Assemble(gc domain.GraphContext, intent domain.QueryIntent) domain.AssembledContext {
	tagger := newCitationTagger()

	var blocks []block
	if intent.Category == domain.CategoryRightsQuery {
		blocks = append(blocks, s.rightsBlock(gc, tagger))
	} else {
		if b, ok := s.primaryBlock(gc, tagger); ok {
			blocks = append(blocks, b)
		}
	}
	if b, ok := s.definitionsBlock(gc, tagger); ok {
		blocks = append(blocks, b)
	}
	if b, ok := s.relatedBlock(gc, tagger); ok {
		blocks = append(blocks, b)
	}

	hierarchical := s.hierarchicalContext(gc)
	if len(hierarchical) > 0 {
		blocks = append(blocks, block{
			title: blockHierarchical,
			body:  "Other provisions in the same chapter: " + strings.Join(hierarchical, "; "),
		})
	}

	text, truncated := renderBlocks(blocks, s.maxLength)

	ac := domain.AssembledContext{
		FormattedText:       text,
		Citations:           tagger.refs,
		PrimaryProvisions:   nodeCitations(gc.PrimaryNodes()),
		RelatedProvisions:   nodeCitations(gc.RelatedNodes()),
		Definitions:         definitionTerms(gc.Nodes),
		HierarchicalContext: hierarchical,
		SectionCounts:       countByKind(gc.Nodes),
		Truncated:           truncated,
	}

	s.logger.Debug("assembled context",
		zap.Int("length", ac.TotalLength()),
		zap.Int("citations", ac.CitationCount()),
		zap.Bool("truncated", ac.Truncated))

	return ac
}

func (s *AssemblerService) primaryBlock(gc domain.GraphContext, tagger *citationTagger) (block, bool) {
	var sb strings.Builder
	for _, n := range gc.PrimaryNodes() {
		if n.Kind == domain.NodeDefinition {
			continue // definitions get their own block
		}
		writeNodeEntry(&sb, n, tagger)
	}
	if sb.Len() == 0 {
		return block{}, false
	}
	return block{title: blockPrimary, body: sb.String()}, true
}

func (s *AssemblerService) definitionsBlock(gc domain.GraphContext, tagger *citationTagger) (block, bool) {
	var sb strings.Builder
	for _, n := range gc.Nodes {
		if n.Kind != domain.NodeDefinition {
			continue
		}
		fmt.Fprintf(&sb, "%s %q means: %s\n\n", tagger.tag(n.Citation()), n.Definition.Term, n.Definition.Definition)
	}
	if sb.Len() == 0 {
		return block{}, false
	}
	return block{title: blockDefinitions, body: sb.String()}, true
}

// rightsBlock enumerates the closed fundamental-right catalog first, each
// entry cited against its granting provision, then groups any further
// rights from the graph by type.
func (s *AssemblerService) rightsBlock(gc domain.GraphContext, tagger *citationTagger) block {
	var sb strings.Builder

	for i, fr := range domain.FundamentalRights[domain.SupportedAct] {
		citation := fmt.Sprintf("%s, %s", fr.Provision, domain.SupportedAct)
		fmt.Fprintf(&sb, "%s %d. %s: %s\n\n", tagger.tag(citation), i+1, fr.Title, fr.Description)
	}

	grouped := make(map[string][]domain.Node)
	var order []string
	for _, n := range gc.Nodes {
		if n.Kind != domain.NodeRight || n.Right.RightType == consumerRightType {
			continue
		}
		if _, ok := grouped[n.Right.RightType]; !ok {
			order = append(order, n.Right.RightType)
		}
		grouped[n.Right.RightType] = append(grouped[n.Right.RightType], n)
	}
	for _, rightType := range order {
		fmt.Fprintf(&sb, "%s rights:\n", titleCase(strings.ReplaceAll(rightType, "_", " ")))
		for _, n := range grouped[rightType] {
			fmt.Fprintf(&sb, "%s %s\n", tagger.tag(n.Citation()), n.Right.Description)
		}
		sb.WriteString("\n")
	}

	return block{title: blockRights, body: sb.String()}
}

func (s *AssemblerService) relatedBlock(gc domain.GraphContext, tagger *citationTagger) (block, bool) {
	var sb strings.Builder
	for _, n := range gc.RelatedNodes() {
		if n.Kind == domain.NodeDefinition || n.Kind == domain.NodeRight {
			continue
		}
		writeNodeEntry(&sb, n, tagger)
	}
	if sb.Len() == 0 {
		return block{}, false
	}
	return block{title: blockRelated, body: sb.String()}, true
}

func (s *AssemblerService) hierarchicalContext(gc domain.GraphContext) []string {
	for _, n := range gc.PrimaryNodes() {
		if n.Kind != domain.NodeSection {
			continue
		}
		siblings := s.idx.SectionHierarchy(n.ID, hierarchyLimit)
		var out []string
		for _, sib := range siblings {
			out = append(out, fmt.Sprintf("Section %s (%s)", sib.Section.Number, sib.Section.Title))
		}
		return out
	}
	return nil
}

func writeNodeEntry(sb *strings.Builder, n domain.Node, tagger *citationTagger) {
	switch n.Kind {
	case domain.NodeSection:
		fmt.Fprintf(sb, "%s Section %s: %s\n%s\n\n", tagger.tag(n.Citation()), n.Section.Number, n.Section.Title, n.Section.Text)
	case domain.NodeClause:
		fmt.Fprintf(sb, "%s Clause %s: %s\n\n", tagger.tag(n.Citation()), n.Clause.Label, n.Clause.Text)
	case domain.NodeDefinition:
		fmt.Fprintf(sb, "%s %q means: %s\n\n", tagger.tag(n.Citation()), n.Definition.Term, n.Definition.Definition)
	case domain.NodeRight:
		fmt.Fprintf(sb, "%s %s\n\n", tagger.tag(n.Citation()), n.Right.Description)
	}
}

// renderBlocks joins titled blocks and truncates from the tail when the
// result exceeds maxLength. The first two blocks always survive so the
// primary provisions are never cut.
func renderBlocks(blocks []block, maxLength int) (string, bool) {
	render := func(bs []block) string {
		var sb strings.Builder
		for _, b := range bs {
			fmt.Fprintf(&sb, "=== %s ===\n%s", b.title, b.body)
			if !strings.HasSuffix(b.body, "\n") {
				sb.WriteString("\n")
			}
		}
		return strings.TrimRight(sb.String(), "\n")
	}

	full := render(blocks)
	if len(full) <= maxLength {
		return full, false
	}

	keep := blocks
	for len(keep) > 2 {
		keep = keep[:len(keep)-1]
		if text := render(keep); len(text) <= maxLength {
			return text + "\n\n" + truncationMarker, true
		}
	}
	return render(keep) + "\n\n" + truncationMarker, true
}

// FormatForAudience rewrites the assembled text for the target reader. The
// citation map and the embedded citation tokens are never altered.
func (s *AssemblerService) FormatForAudience(ac domain.AssembledContext, audience domain.Audience) domain.AssembledContext {
	out := ac
	out.Audience = audience

	switch audience {
	case domain.AudienceCitizen:
		out.FormattedText = "Here is what the law says, in plain terms. Keep the [Citation-N] markers when you cite a provision.\n\n" + ac.FormattedText
	case domain.AudienceLawyer:
		out.FormattedText = ac.FormattedText + "\n\n=== CITATION SUMMARY ===\n" + citationSummary(ac.Citations)
	case domain.AudienceJudge:
		out.FormattedText = "The following statutory provisions bear on the question presented.\n\n" + ac.FormattedText
	}
	return out
}

func citationSummary(citations map[string]string) string {
	keys := make([]string, 0, len(citations))
	for k := range citations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		// Citation-2 sorts before Citation-10.
		return citationOrdinal(keys[i]) < citationOrdinal(keys[j])
	})
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "[%s] %s\n", k, citations[k])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func citationOrdinal(key string) int {
	n := 0
	fmt.Sscanf(key, "Citation-%d", &n)
	return n
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func nodeCitations(nodes []domain.Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Citation())
	}
	return out
}

func definitionTerms(nodes []domain.Node) []string {
	var out []string
	for _, n := range nodes {
		if n.Kind == domain.NodeDefinition {
			out = append(out, n.Definition.Term)
		}
	}
	return out
}

func countByKind(nodes []domain.Node) map[string]int {
	counts := make(map[string]int)
	for _, n := range nodes {
		counts[string(n.Kind)]++
	}
	return counts
}
