package loom

import "fmt"

// prompts maps each action to its template. Each template has exactly one
// substitution slot for the input text.
var prompts = map[Action]string{
	ActionClean: `You are a text cleaner. Your task is to correct grammar, fix spelling errors, remove unnecessary whitespace, and ensure the text is coherent and professional, without changing its original meaning or tone.

Input Text:
%s`,

	ActionSummarize: `You are a summarizer. Your task is to provide a concise summary of the input text, capturing the main ideas and crucial details while discarding redundant information.

Input Text:
%s`,

	ActionKeypoints: `You are an analyst. Your task is to extract the key points from the input text and present them as a clear, bulleted list.

Input Text:
%s`,

	ActionSimplify: `You are a simplifier. Your task is to rewrite the input text in simple, plain language that is easy for a general audience (including non-experts) to understand. Avoid jargon and complex sentence structures.

Input Text:
%s`,

	ActionAnalogy: `You are a creative teacher. Your task is to provide a clear analogy or real-world example that illustrates the concepts discussed in the input text, making it easier to grasp.

Input Text:
%s`,

	ActionClassify: `You are a classifier. Your task is to categorize the input text into a single, specific category that best describes its content (e.g., specific topic, intent, or domain). Return ONLY the category name.

Input Text:
%s`,

	ActionTone: `You are a sentiment analyst. Your task is to analyze the emotional tone of the input text. Describe the sentiment (e.g., positive, negative, neutral, urgent, sarcastic) and briefly explain why.

Input Text:
%s`,
}

// repairPrefix is prepended to the prompt when a generation attempt
// returned empty output and the step is retried.
const repairPrefix = "The previous attempt returned an empty response. Please try again carefully.\n\n"

// PromptFor returns the template registered for the action.
func PromptFor(a Action) (string, error) {
	tmpl, ok := prompts[a]
	if !ok {
		return "", &UnknownActionError{Action: a}
	}
	return tmpl, nil
}

// BuildPrompt substitutes the input text into the action's template.
func BuildPrompt(a Action, inputText string) (string, error) {
	tmpl, err := PromptFor(a)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(tmpl, inputText), nil
}

// RepairPrompt wraps a prompt with an instruction that the previous
// attempt produced no output.
func RepairPrompt(prompt string) string {
	return repairPrefix + prompt
}
