package model

import "strings"

// ModelInfo describes one entry of the built-in model catalog.
type ModelInfo struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	SupportsVision bool   `json:"supports_vision"`
}

// CustomModelPrefix marks a free-form model identifier entered by the user
// rather than picked from the catalog.
const CustomModelPrefix = "custom:"

// DefaultModel is used when no model has been selected yet.
const DefaultModel = "meta-llama/llama-4-maverick:free"

var catalog = []ModelInfo{
	{ID: "meta-llama/llama-4-maverick:free", Label: "Meta - Llama 4 Maverick", SupportsVision: false},
	{ID: "google/gemini-2.0-flash-exp:free", Label: "Google - Gemini 2.0 Flash", SupportsVision: true},
	{ID: "deepseek/deepseek-chat-v3-0324:free", Label: "DeepSeek - V3", SupportsVision: false},
	{ID: "qwen/qwq-32b:free", Label: "Qwen - QwQ", SupportsVision: false},
}

// visionKeywords mark custom model identifiers that are assumed to accept
// image input.
var visionKeywords = []string{"vision", "gpt-4", "gemini", "claude"}

// Catalog returns the built-in model list for the settings UI.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, len(catalog))
	copy(out, catalog)
	return out
}

// IsCustomModel reports whether the identifier is a free-form one.
func IsCustomModel(id string) bool {
	return strings.HasPrefix(id, CustomModelPrefix)
}

// ResolveRequestModel strips the custom prefix, yielding the identifier sent
// to the API.
func ResolveRequestModel(id string) string {
	return strings.TrimPrefix(id, CustomModelPrefix)
}

// SupportsVision reports whether the selected model accepts image input.
// Catalog models use their capability flag; custom identifiers fall back to
// a case-insensitive keyword heuristic.
func SupportsVision(id string) bool {
	if IsCustomModel(id) {
		name := strings.ToLower(ResolveRequestModel(id))
		for _, kw := range visionKeywords {
			if strings.Contains(name, kw) {
				return true
			}
		}
		return false
	}
	for _, m := range catalog {
		if m.ID == id {
			return m.SupportsVision
		}
	}
	return false
}
