package llm

import "github.com/openai/openai-go/v3"

// Setting names shown to users.
const (
	ModelGPT35Turbo    = "gpt3.5-turbo"
	ModelGPT35Turbo16K = "gpt3.5-turbo-16k"
	ModelGPT4          = "gpt4"
)

// Models lists the selectable settings in menu order.
var Models = []string{ModelGPT35Turbo, ModelGPT35Turbo16K, ModelGPT4}

// APIModel maps a setting name to the OpenAI model id. Unknown names use the
// 16k context model.
func APIModel(name string) openai.ChatModel {
	switch name {
	case ModelGPT4:
		return openai.ChatModel("gpt-4")
	case ModelGPT35Turbo:
		return openai.ChatModel("gpt-3.5-turbo")
	default:
		return openai.ChatModel("gpt-3.5-turbo-16k")
	}
}
