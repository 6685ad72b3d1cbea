package realtime

import "strings"

// Element ids shared with the chat widget markup.
const (
	ChatRoomID      = "chat_room"
	ComposerFormID  = "form-ws"
	ComposerInputID = "typed_message"
)

const (
	appendOpen  = `<div id="` + ChatRoomID + `" hx-swap-oob="beforeend">`
	appendClose = "<br></div>\n"

	composerFragment = `<form id="` + ComposerFormID + `" ws-send hx-swap-oob="morphdom">` +
		`<label><input id="` + ComposerInputID + `" name="chat_message" type="text" ` +
		`placeholder="Type your message..." autofocus autocomplete required minlength="5" maxlength="20" /></label>` +
		`<button type="submit">submit</button>` +
		"</form>\n"
)

// RenderFragment builds the out-of-band htmx payload for one chat message:
// an append into the chat log followed by a fresh composer form.
// message must already be sanitized.
func RenderFragment(message string) string {
	var b strings.Builder
	b.Grow(len(appendOpen) + len(message) + len(appendClose) + len(composerFragment))
	b.WriteString(appendOpen)
	b.WriteString(message)
	b.WriteString(appendClose)
	b.WriteString(composerFragment)
	return b.String()
}
