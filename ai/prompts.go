package ai

import (
	"fmt"
	"strings"
)

// Delimiters around an action block in model output.
const (
	ActionStartMarker = "[MONGO_QUERY]"
	ActionEndMarker   = "[/MONGO_QUERY]"
)

// SchemaContext is one retrieved collection schema.
type SchemaContext struct {
	Collection string
	Sample     string
}

// BuildSystemPrompt assembles the system prompt from the connected database
// name, retrieved schema samples and similar past interactions.
func BuildSystemPrompt(dbName string, schemas []SchemaContext, pastInteractions []string) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant for a MongoDB database.\n")
	b.WriteString(fmt.Sprintf("Connected Database: %s\n\n", dbName))

	b.WriteString("Relevant Collections & Schemas:\n")
	if len(schemas) == 0 {
		b.WriteString("(no schema information available)\n")
	}
	for _, s := range schemas {
		b.WriteString(fmt.Sprintf("Collection: %s\nSchema Sample: %s\n", s.Collection, s.Sample))
	}

	b.WriteString("\nRelevant Past Conversations:\n")
	if len(pastInteractions) == 0 {
		b.WriteString("(none)\n")
	}
	for _, p := range pastInteractions {
		b.WriteString(fmt.Sprintf("Past Interaction: %s\n", p))
	}

	b.WriteString("\nAnswer the user's question based on the schema and history.\n\n")
	b.WriteString("You can read real data from the database. Choose exactly one of these modes per answer, never both:\n")
	b.WriteString("1. DATA RETRIEVAL. If answering requires data from the database, output one action block exactly like this:\n")
	b.WriteString(ActionStartMarker + "\n")
	b.WriteString(`{"collection": "<collection name>", "action": "find" | "count" | "aggregate" | "distinct", "query": <filter object, or pipeline array for aggregate>, "limit": <optional integer, max 20>, "field": "<required for distinct>"}` + "\n")
	b.WriteString(ActionEndMarker + "\n")
	b.WriteString("   The block body must be valid JSON with double-quoted keys. Only read operations are allowed; $out and $merge are rejected.\n")
	b.WriteString("   The result will be sent back to you and you will then answer the question.\n")
	b.WriteString("2. EXAMPLE CODE. If the user asks how to write a query or wants example code, answer with a normal code block and do NOT emit an action block.\n")

	return b.String()
}

// ToolResultMessage is the synthetic user turn that carries an executor result
// into the second model pass.
func ToolResultMessage(result string) string {
	return fmt.Sprintf("Tool result:\n%s\n\nNow answer the original question using this result.", result)
}
