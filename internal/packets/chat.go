package packets

import "encoding/json"

// TextComponent is the minimal chat document: a bare text node.
type TextComponent struct {
	Text string `json:"text"`
}

// TranslateComponent renders a translation key with substitutions, e.g.
// chat.type.text for an ordinary player chat line.
type TranslateComponent struct {
	Translate string   `json:"translate"`
	With      []string `json:"with"`
}

// TextJSON renders msg as a bare text chat document.
func TextJSON(msg string) string {
	raw, _ := json.Marshal(TextComponent{Text: msg})
	return string(raw)
}

// ChatTextJSON renders a standard player chat line attributed to sender.
func ChatTextJSON(sender, message string) string {
	raw, _ := json.Marshal(TranslateComponent{
		Translate: "chat.type.text",
		With:      []string{sender, message},
	})
	return string(raw)
}

// PlainText extracts the text of a chat JSON document, falling back to the
// raw string for documents this package did not produce.
func PlainText(doc string) string {
	var text TextComponent
	if err := json.Unmarshal([]byte(doc), &text); err != nil || text.Text == "" {
		return doc
	}
	return text.Text
}
