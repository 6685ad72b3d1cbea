package realtime

import "github.com/microcosm-cc/bluemonday"

// chatPolicy keeps a handful of phrasing elements so people can emphasise
// text. None of them can close the chat_room container, and every attribute
// is dropped. script/style bodies are removed together with their tags.
var chatPolicy = newChatPolicy()

func newChatPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "em", "strong", "u", "s", "code", "br")
	return p
}

// Sanitize neutralises untrusted text for embedding inside an HTML element.
// It never truncates and never fails.
func Sanitize(input string) string {
	return chatPolicy.Sanitize(input)
}
