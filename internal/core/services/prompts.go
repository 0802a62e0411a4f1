package services

import "github.com/Ilygos/marianalyzer/internal/core/domain"

// Prompt templates for the extraction and answering passes. Each
// extraction prompt asks for a fixed JSON shape so responses can be
// decoded directly into extractionResult.

const requirementExtractionPrompt = `You are analyzing a document chunk to extract requirements.

A requirement is a statement that specifies what must/should/may be done or what conditions must be met.
Keywords: must, shall, should, required, mandatory, may, optional, needs to, has to

Analyze the following chunk and extract structured information in JSON format:

{
  "found": true/false,
  "text": "exact text of requirement if found, null otherwise",
  "modality": "must" | "should" | "may" | null,
  "topic": "brief topic classification (e.g., security, performance, compliance)" | null,
  "entities": ["entity1", "entity2"] | null,
  "confidence": 0.0-1.0
}

Guidelines:
- found: true if the chunk contains a clear requirement statement
- text: the exact requirement text (may be subset of chunk)
- modality: the requirement strength (must > should > may)
- topic: general category or domain
- entities: mentioned standards, technologies, or specific terms (e.g., "GDPR", "HTTPS", "ISO 27001")
- confidence: how confident you are this is a genuine requirement (0.0-1.0)

Chunk:
%s

JSON output:
`

const successExtractionPrompt = `You are analyzing a document chunk to identify success points.

A success point is a statement describing something that was achieved, delivered or demonstrated successfully.

Analyze the following chunk and extract structured information in JSON format:

{
  "found": true/false,
  "text": "exact text of the success point if found, null otherwise",
  "category": "brief category (e.g., delivery, performance, compliance)" | null,
  "topic": "brief topic classification" | null,
  "entities": ["entity1", "entity2"] | null,
  "confidence": 0.0-1.0
}

Guidelines:
- found: true only if the chunk describes a concrete accomplishment
- text: the exact statement (may be a subset of the chunk)
- confidence: how confident you are this is a genuine success point (0.0-1.0)

Chunk:
%s

JSON output:
`

const failureExtractionPrompt = `You are analyzing a document chunk to identify failure points.

A failure point is a statement describing something that failed, a shortcoming, a gap or an unresolved problem.

Analyze the following chunk and extract structured information in JSON format:

{
  "found": true/false,
  "text": "exact text of the failure point if found, null otherwise",
  "category": "brief category (e.g., delivery, technical, process)" | null,
  "severity": "high" | "medium" | "low" | null,
  "topic": "brief topic classification" | null,
  "entities": ["entity1", "entity2"] | null,
  "confidence": 0.0-1.0
}

Guidelines:
- found: true only if the chunk describes a concrete failure or shortcoming
- severity: how serious the failure is
- confidence: how confident you are this is a genuine failure point (0.0-1.0)

Chunk:
%s

JSON output:
`

const riskExtractionPrompt = `You are analyzing a document chunk to identify risks.

A risk is a statement about something that could go wrong, a threat, a vulnerability or an exposure.

Analyze the following chunk and extract structured information in JSON format:

{
  "found": true/false,
  "text": "exact text of the risk if found, null otherwise",
  "category": "brief category (e.g., technical, financial, schedule)" | null,
  "severity": "high" | "medium" | "low" | null,
  "topic": "brief topic classification" | null,
  "entities": ["entity1", "entity2"] | null,
  "confidence": 0.0-1.0
}

Guidelines:
- found: true only if the chunk describes a potential future problem
- severity: the impact if the risk materializes
- confidence: how confident you are this is a genuine risk (0.0-1.0)

Chunk:
%s

JSON output:
`

const constraintExtractionPrompt = `You are analyzing a document chunk to identify constraints.

A constraint is a statement about a limitation, restriction, dependency, prerequisite or a bound that must be respected.

Analyze the following chunk and extract structured information in JSON format:

{
  "found": true/false,
  "text": "exact text of the constraint if found, null otherwise",
  "category": "brief category (e.g., budget, technical, legal)" | null,
  "topic": "brief topic classification" | null,
  "entities": ["entity1", "entity2"] | null,
  "confidence": 0.0-1.0
}

Guidelines:
- found: true only if the chunk describes a concrete limitation or restriction
- text: the exact statement (may be a subset of the chunk)
- confidence: how confident you are this is a genuine constraint (0.0-1.0)

Chunk:
%s

JSON output:
`

const answerPrompt = `You are a helpful assistant analyzing RFP (Request for Proposal) documents.

Based on the following context from document chunks, answer the user's question.

Context:
%s

Question: %s

Provide a structured answer in JSON format:

{
  "answer": "comprehensive answer to the question",
  "key_points": ["point 1", "point 2", "point 3"],
  "citations": ["chunk_id_1", "chunk_id_2"]
}

Guidelines:
- Only use information from the provided context
- Include citations to relevant chunks
- If you cannot answer from the context, state that clearly
- Be concise but comprehensive

JSON output:
`

// extractionPrompts maps each pattern type to its prompt template.
// Templates take the chunk text as their single format argument.
var extractionPrompts = map[domain.PatternType]string{
	domain.PatternRequirement: requirementExtractionPrompt,
	domain.PatternSuccess:     successExtractionPrompt,
	domain.PatternFailure:     failureExtractionPrompt,
	domain.PatternRisk:        riskExtractionPrompt,
	domain.PatternConstraint:  constraintExtractionPrompt,
}

// extractionKeywords maps each pattern type to the pre-filter keywords
// that gate the LLM call. Matching is word-boundary and case-insensitive.
var extractionKeywords = map[domain.PatternType][]string{
	domain.PatternRequirement: {
		"must", "shall", "should", "required", "mandatory", "may",
		"optional", "needs to", "need to", "has to",
	},
	domain.PatternSuccess: {
		"achieved", "completed", "successful", "exceeded", "delivered",
		"proven", "demonstrated", "track record", "accomplished",
		"effective", "improved",
	},
	domain.PatternFailure: {
		"risk", "issue", "failed", "problem", "challenge", "gap",
		"concern", "weakness", "unable to", "limitation", "blocker",
		"difficulty",
	},
	domain.PatternRisk: {
		"risk", "potential", "possible", "may occur", "likelihood",
		"probability", "threat", "vulnerability", "exposure",
	},
	domain.PatternConstraint: {
		"limited to", "restricted", "cannot", "constraint", "limitation",
		"dependency", "prerequisite", "maximum", "minimum",
		"must not exceed",
	},
}
