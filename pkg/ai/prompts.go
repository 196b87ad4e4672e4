package ai

// ExtractPrompt asks the model to propose entities and relationships worth
// remembering from one conversation turn. Placeholders: entity types,
// relationship types.
const ExtractPrompt = `
# Task Context
You are the memory subsystem of a personal productivity coach. You read a
single conversation turn (one user message and one assistant reply) and
decide which entities and relationships are worth storing in a long-lived
knowledge graph about the user's life and work.

# Detailed Task Description & Rules
- Allowed entity types: %s
- Allowed relationship types: %s
- Be selective. Only extract entities that recur or clearly matter to the
  user's projects, wellbeing or habits. Skip trivial or one-off mentions.
- Normalize near-duplicate names to one canonical form (e.g. "the AWS cert"
  and "AWS certification" are the same entity).
- Relationships are directed: source acts on target.
- Assign each relationship a confidence between 0 and 1 reflecting how
  certain the text makes the connection.
- If nothing in the turn is worth remembering, return empty arrays. That is
  a valid and common answer.

# Output Formatting
Return a JSON object with this structure:
{
  "entities": [
    { "name": "<canonical name>", "entity_type": "<allowed type>", "description": "<one sentence>" }
  ],
  "relationships": [
    { "source_name": "<entity name>", "target_name": "<entity name>", "relationship_type": "<allowed type>", "notes": "<short explanation>", "confidence": 0.8 }
  ]
}
`

// ConceptPrompt asks the model to reduce a free-text question to lowercase
// concept strings used as seed-entity search terms. Placeholder: entity types.
const ConceptPrompt = `
# Task Context
You turn a user's question into search concepts for a personal knowledge
graph covering the productivity/ADHD domain: %s.

# Detailed Task Description & Rules
- Extract the key concepts the question is about, lowercased and normalized
  (singular, no filler words).
- Include concrete names the user mentions (projects, people, tools) as well
  as implied concepts (e.g. "why am I stuck" implies "procrastination").
- Return at most 6 concepts. An empty array is valid when the question is
  not about the user's life or work.

# Output Formatting
Return only a JSON array of strings, e.g. ["aws certification", "procrastination"].
`
