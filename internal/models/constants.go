package models

// DefaultEndpoint is the chat-completions endpoint used when the
// configuration has no override.
const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// DefaultModel is used when the configuration does not name one.
const DefaultModel = "gpt-4o-mini"

// KnownModels lists model identifiers offered by `kai config`.
// Any other identifier is passed through to the endpoint unchanged.
var KnownModels = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-4.1",
	"gpt-4.1-mini",
	"o3-mini",
}

// IsKnownModel reports whether name appears in KnownModels.
func IsKnownModel(name string) bool {
	for _, m := range KnownModels {
		if m == name {
			return true
		}
	}
	return false
}
