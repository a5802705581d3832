package ai

import (
	"fmt"
	"strings"

	"github.com/lexguard/backend/pkg/common"
)

const ExtractionSystemPrompt = `
# Task Context
You are a legal analyst specialized in extracting structured entities from legal documents. You will be provided with a single document and must identify the legally relevant entities it contains.

# Detailed Task Description & Rules
- Extract every legally relevant entity from the document.
- Each entity must have one of these types: TIME_PERIOD, MONETARY_VALUE, PARTY, OBLIGATION, RIGHT, CONDITION, PENALTY, CLAUSE.
- "name" is a short, stable label for the entity (e.g., "Notice Period", "Monthly Rent").
- "value" is the concrete content of the entity (e.g., "90 days", "EUR 1,200").
- "source_context" is the exact sentence or clause fragment the entity was extracted from.
- Record relationships between extracted entities where the document states them. Relationship types are: DEFINES, REFERENCES, OVERRIDES, CONFLICTS_WITH, DEPENDS_ON.
- A relationship's "target_entity_name" must exactly match the "name" of another entity in your output. Do not invent targets.
- Do not extract entities that are not present in the document text.
- Provide a short "document_summary" describing the document's purpose.

# Output Formatting
Return a JSON object matching the requested schema. Return an empty "entities" list if the document contains no legally relevant entities.
`

const ReasoningSystemPrompt = `
# Task Context
You are a legal conflict analyst. You will be provided with a list of entities extracted from a set of legal documents and must identify genuine conflicts between them.

# Detailed Task Description & Rules
- A conflict exists when two or more entities impose contradictory requirements, such as different notice periods for the same termination right, incompatible payment terms, or clauses that override each other.
- Only report conflicts supported by the listed entities. Do not speculate about terms that are not present.
- Severity must be one of: LOW, MEDIUM, HIGH, CRITICAL.
- "reasoning" must explain why the entities contradict each other.
- "legal_principle" names the doctrine that governs the resolution (e.g., "Lex Specialis", "Lex Posterior", "Lex Superior") or is empty when none applies.
- "involved_entity_names" must list the names of the conflicting entities exactly as they appear in the input.

# Thinking Step by Step
1. Group entities that govern the same subject matter.
2. Within each group, compare values and identify contradictions.
3. For each contradiction, judge its severity and the applicable legal principle.
4. Provide an "overall_summary" of the analysis.

# Output Formatting
Return a JSON object matching the requested schema. Return an empty "conflicts" list if the entities do not contradict each other.
`

// BuildExtractionPrompt assembles the user prompt for entity extraction
// from a single document.
func BuildExtractionPrompt(name string, docType common.DocumentType, content string) string {
	var sb strings.Builder
	sb.WriteString("# Document\n")
	fmt.Fprintf(&sb, "Name: %s\n", name)
	fmt.Fprintf(&sb, "Type: %s\n", docType)
	sb.WriteString("\n# Content\n")
	sb.WriteString(content)
	return sb.String()
}

// BuildReasoningPrompt assembles the user prompt for conflict analysis
// from the entities of the documents under analysis.
func BuildReasoningPrompt(entities []common.Entity) string {
	var sb strings.Builder
	sb.WriteString("# Entities\n")
	for _, e := range entities {
		fmt.Fprintf(&sb, "- %s (%s): %s", e.Name, e.EntityType, e.Value)
		if e.SourceContext != "" {
			fmt.Fprintf(&sb, " [context: %s]", e.SourceContext)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
