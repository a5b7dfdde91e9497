package chat

import "fmt"

const contextPromptTemplate = `Based on the following Wikipedia information, please answer the user's question comprehensively and mention that you're using Wikipedia sources:

Wikipedia Context:
%s

User Question: %s

Please provide a detailed answer using the Wikipedia information provided above. Start your response by acknowledging that you found relevant information from Wikipedia.`

// BuildPrompt combines the query with the optional context block. Without
// context the prompt is the raw query unchanged; with context the fixed
// template embeds the block and the literal question under labeled sections.
// Pure function, no I/O.
func BuildPrompt(query string, block ContextBlock) string {
	if block.Empty() {
		return query
	}
	return fmt.Sprintf(contextPromptTemplate, block.Text, query)
}
