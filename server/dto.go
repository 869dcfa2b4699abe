package server

import (
	"github.com/textloom/loom"
	"github.com/textloom/loom/workflow"
)

type createWorkflowRequest struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Steps       []workflow.StepSpec `json:"steps"`
}

type runRequest struct {
	InputText string `json:"input_text"`
}

type keyValidationRequest struct {
	APIKey string `json:"api_key"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type keyValidationResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Template is a predefined workflow the UI can offer as a starting point.
type Template struct {
	Label       string        `json:"label"`
	Description string        `json:"description"`
	Steps       []loom.Action `json:"steps"`
}

var predefinedTemplates = map[string]Template{
	"quick": {
		Label:       "Quick Understanding",
		Description: "Clean text, summarize it, and extract key points.",
		Steps:       []loom.Action{loom.ActionClean, loom.ActionSummarize, loom.ActionKeypoints},
	},
	"simplify": {
		Label:       "Simplify",
		Description: "Clean text, rewrite it simply, and provide an analogy.",
		Steps:       []loom.Action{loom.ActionClean, loom.ActionSimplify, loom.ActionAnalogy},
	},
	"office": {
		Label:       "Office Assistant",
		Description: "Clean text, classify it, and analyze the tone.",
		Steps:       []loom.Action{loom.ActionClean, loom.ActionClassify, loom.ActionTone},
	},
}
