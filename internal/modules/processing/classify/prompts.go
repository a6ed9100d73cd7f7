package classify

import (
	"fmt"
	"strings"

	"github.com/rulemate-india/core/internal/pkg/llm"
)

const domainSystemPrompt = `You decide whether a question is about Indian government rules, laws, fines, taxes, official documents, schemes or government procedures.
Reply with exactly one word: YES or NO.`

const relatedSystemPrompt = "You generate related Indian government rule questions."

func categorySystemPrompt() string {
	labels := make([]string, 0, len(allCategories))
	for _, c := range allCategories {
		labels = append(labels, string(c))
	}
	return "You label questions about Indian government rules.\n" +
		"Allowed labels: " + strings.Join(labels, ", ") + ".\n" +
		"Reply with exactly one label from the list and nothing else. Use \"general\" when no other label fits."
}

func domainRequest(question string) llm.Request {
	return llm.Request{
		System:      domainSystemPrompt,
		Prompt:      question,
		Temperature: 0,
		MaxTokens:   3,
	}
}

func categoryRequest(question string) llm.Request {
	return llm.Request{
		System:      categorySystemPrompt(),
		Prompt:      question,
		Temperature: 0,
		MaxTokens:   10,
	}
}

// RelatedRequest asks for follow-up questions to question, one per line.
func RelatedRequest(question string) llm.Request {
	return llm.Request{
		System: relatedSystemPrompt,
		Prompt: fmt.Sprintf("Based on this question: %q\nGenerate %d related follow-up questions.\nReturn ONLY the questions, one per line.",
			question, MaxRelated),
		Temperature: 0.4,
		MaxTokens:   300,
	}
}
