package rag

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are a helpful assistant for Superteam Vietnam. Use the following information to answer questions.
If you're not confident about the answer or don't have enough context, say "I don't have enough information to answer this question accurately."

Context:
%s

Question: %s

Instructions:
1. If the context is relevant, provide a clear and concise answer.
2. If you're not confident, say so clearly.
3. Only use information from the provided context.

Answer: Let me help you with that.`

// BuildPrompt assembles the generation prompt from retrieved chunk texts and
// the user's question.
func BuildPrompt(contexts []string, question string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(contexts, "\n\n"), question)
}
