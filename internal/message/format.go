package message

const noTitle = "No title"

// Format renders a notification body for one entry.
// When noPreview is set the link is wrapped in angle brackets, which
// chat services treat as "do not unfurl".
func Format(t Template, source, title, link string, noPreview bool) string {
	if title == "" {
		title = noTitle
	}
	if noPreview && link != "" {
		link = "<" + link + ">"
	}
	return t.Execute(Fields{Source: source, Title: title, Link: link})
}
