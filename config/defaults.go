package config

// DefaultSystemPromptText is used when the user has not set a prompt of
// their own.
const DefaultSystemPromptText = `You are HejChat, a friendly study assistant. Help with questions, homework and projects.

When answering:
- Use Markdown formatting (bold, lists, headings)
- Use fenced code blocks with a language tag for code
- Split long answers into sections with headings
- If you are unsure, say so honestly and suggest other sources`

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/hejchat",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		API: APIConfig{
			Endpoint: "https://openrouter.ai/api/v1/chat/completions",
		},
		ListenAddr:          "127.0.0.1:8135",
		DefaultSystemPrompt: "",
	}
}

func GenerateSystemConfigTemplate() string {
	return `# HejChat System Configuration
# Location: ~/.config/hejchat/settings.toml
# This file uses TOML format: https://toml.io

# Directory where settings and chat history are stored
data_directory = "~/.local/share/hejchat"
`
}

func GenerateUserConfigTemplate() string {
	return `# HejChat User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Address the local web interface listens on
listen_addr = "127.0.0.1:8135"

# Default system prompt used when none is set in the web interface (optional)
# Example: "You are a helpful coding assistant."
default_system_prompt = ""

[api]
# Chat completions endpoint
endpoint = "https://openrouter.ai/api/v1/chat/completions"
`
}
