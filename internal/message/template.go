// Package message renders notification bodies from a message template.
package message

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultTemplate is used when no message_template is configured.
const DefaultTemplate = "**[{source}]** {title}\n{link}"

// ErrUnknownPlaceholder is returned for placeholders other than source, title and link.
var ErrUnknownPlaceholder = errors.New("unknown placeholder")

type field int

const (
	fieldLiteral field = iota
	fieldSource
	fieldTitle
	fieldLink
)

var fieldNames = map[string]field{
	"source": fieldSource,
	"title":  fieldTitle,
	"link":   fieldLink,
}

type segment struct {
	field field
	text  string
}

// Fields are the values substituted into a Template.
type Fields struct {
	Source string
	Title  string
	Link   string
}

// Template is a parsed message template.
// Placeholders are {source}, {title} and {link}; {{ and }} produce literal braces.
type Template struct {
	raw      string
	segments []segment
}

// ParseTemplate parses s into a Template.
func ParseTemplate(s string) (Template, error) {
	var (
		segs []segment
		lit  strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{field: fieldLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return Template{}, fmt.Errorf("unclosed placeholder at offset %d", i)
			}
			name := s[i+1 : i+1+end]
			f, ok := fieldNames[name]
			if !ok {
				return Template{}, fmt.Errorf("%w {%s}", ErrUnknownPlaceholder, name)
			}
			flush()
			segs = append(segs, segment{field: f})
			i += end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return Template{}, fmt.Errorf("single '}' at offset %d", i)
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return Template{raw: s, segments: segs}, nil
}

// MustParseTemplate is like ParseTemplate but panics on error.
func MustParseTemplate(s string) Template {
	t, err := ParseTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the template source.
func (t Template) String() string {
	return t.raw
}

// Execute renders the template with the given fields.
func (t Template) Execute(f Fields) string {
	var b strings.Builder
	for _, seg := range t.segments {
		switch seg.field {
		case fieldSource:
			b.WriteString(f.Source)
		case fieldTitle:
			b.WriteString(f.Title)
		case fieldLink:
			b.WriteString(f.Link)
		default:
			b.WriteString(seg.text)
		}
	}
	return b.String()
}
