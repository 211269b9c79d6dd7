package llm

import (
	"fmt"
	"strings"

	"github.com/lexgraph/lexgraph/internal/domain"
)

const baseSystemPrompt = `You are a legal information assistant. Your role is to provide accurate legal information grounded in authoritative sources.

CRITICAL RULES:
1. ONLY use information from the provided legal context
2. CITE every legal claim using the [Citation-N] keys provided
3. If information is not in context, respond: "Information not available in current knowledge base"
4. Distinguish between legal text (in quotes) and your explanation
5. Include disclaimers that this is information, not legal advice
6. Never make predictions about case outcomes or judicial decisions

RESPONSE STRUCTURE:
1. Direct answer to the question
2. Relevant legal provisions (quoted with citations)
3. Clear explanation in appropriate language
4. Disclaimer about non-binding nature

Remember: You provide information only, not legal advice or binding determinations.`

var audienceInstructions = map[domain.Audience]struct {
	language   string
	structure  string
	disclaimer string
}{
	domain.AudienceCitizen: {
		language:   "Use simple, accessible language that non-lawyers can understand. Avoid legal jargon and explain technical terms.",
		structure:  "Provide practical guidance and explain what the law means for everyday situations.",
		disclaimer: "This information is for educational purposes only. For legal advice specific to your situation, consult a qualified lawyer.",
	},
	domain.AudienceLawyer: {
		language:   "Use precise legal terminology and include technical details. Provide comprehensive analysis.",
		structure:  "Include cross-references, related provisions, and analytical context for legal research.",
		disclaimer: "This information is for research purposes. Verify all citations and consult primary sources for legal practice.",
	},
	domain.AudienceJudge: {
		language:   "Use formal legal language appropriate for judicial consideration. Include analytical framework.",
		structure:  "Provide comprehensive legal analysis with precedent context and interpretive guidance.",
		disclaimer: "This analysis is assistive only. Judicial discretion and independent legal analysis remain paramount.",
	},
}

var intentInstructions = map[domain.Category]struct {
	focus     string
	structure string
}{
	domain.CategoryDefinitionLookup: {
		focus:     "Provide clear, authoritative definitions with legal context and practical implications.",
		structure: "1. Definition (quoted from law), 2. Explanation in simple terms, 3. Examples if helpful",
	},
	domain.CategorySectionRetrieval: {
		focus:     "Present the complete section text with proper context and cross-references.",
		structure: "1. Full section text (quoted), 2. Context within the Act, 3. Related provisions",
	},
	domain.CategoryRightsQuery: {
		focus:     "Explain consumer rights clearly with enforcement mechanisms and practical guidance.",
		structure: "1. Specific rights applicable, 2. How to exercise these rights, 3. Remedies available",
	},
	domain.CategoryScenarioAnalysis: {
		focus:     "Analyze the legal scenario step-by-step with applicable provisions and potential outcomes.",
		structure: "1. Legal analysis of situation, 2. Applicable laws and rights, 3. Recommended actions",
	},
}

// BuildSystemPrompt assembles the system prompt for an audience and intent.
func BuildSystemPrompt(audience domain.Audience, category domain.Category) string {
	var sb strings.Builder
	sb.WriteString(baseSystemPrompt)

	if a, ok := audienceInstructions[audience]; ok {
		fmt.Fprintf(&sb, "\n\nAUDIENCE: %s\n", strings.ToUpper(string(audience)))
		fmt.Fprintf(&sb, "Language: %s\n", a.language)
		fmt.Fprintf(&sb, "Structure: %s", a.structure)
	}

	if in, ok := intentInstructions[category]; ok {
		fmt.Fprintf(&sb, "\n\nQUERY TYPE: %s\n", strings.ToUpper(string(category)))
		fmt.Fprintf(&sb, "Focus: %s\n", in.focus)
		fmt.Fprintf(&sb, "Response Structure: %s", in.structure)
	}

	sb.WriteString("\n\nCITATION FORMAT:\nCite using the bracketed keys from the context, e.g. [Citation-1]. Use only the keys that appear in AVAILABLE CITATIONS.")

	if a, ok := audienceInstructions[audience]; ok {
		fmt.Fprintf(&sb, "\n\nDISCLAIMER: %s", a.disclaimer)
	}

	return sb.String()
}

// BuildUserPrompt assembles the user prompt: context, citation map, metadata
// and the original query.
func BuildUserPrompt(query string, ac domain.AssembledContext, category domain.Category) string {
	var sb strings.Builder

	sb.WriteString("LEGAL CONTEXT:\n")
	sb.WriteString(ac.FormattedText)

	if len(ac.Citations) > 0 {
		sb.WriteString("\n\nAVAILABLE CITATIONS:\n")
		for i := 1; i <= len(ac.Citations); i++ {
			key := fmt.Sprintf("Citation-%d", i)
			if ref, ok := ac.Citations[key]; ok {
				fmt.Fprintf(&sb, "%s: %s\n", key, ref)
			}
		}
	}

	sb.WriteString("\nCONTEXT METADATA:\n")
	fmt.Fprintf(&sb, "- Primary Provisions: %d\n", len(ac.PrimaryProvisions))
	fmt.Fprintf(&sb, "- Related Provisions: %d\n", len(ac.RelatedProvisions))
	fmt.Fprintf(&sb, "- Definitions: %d\n", len(ac.Definitions))
	fmt.Fprintf(&sb, "- Total Citations: %d\n", ac.CitationCount())

	if in, ok := intentInstructions[category]; ok {
		fmt.Fprintf(&sb, "\nINSTRUCTIONS: %s\n", in.focus)
	}

	sb.WriteString("\nUSER QUERY:\n")
	sb.WriteString(query)
	sb.WriteString("\n\nPlease provide a response following all the rules and constraints above.")

	return sb.String()
}
