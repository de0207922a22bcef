package interpreter

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

type element struct {
	name   string
	fields ParsedMessage
	text   strings.Builder
}

// ParseFragment converts one XML element into a ParsedMessage keyed by the root tag.
// Namespace prefixes are kept in keys as written, e.g. "e:Demand".
func ParseFragment(fragment string) (ParsedMessage, error) {
	decoder := xml.NewDecoder(strings.NewReader(fragment))

	var (
		stack  []*element
		result ParsedMessage
	)
	for {
		// RawToken leaves prefixes untranslated, so element matching is done here.
		token, err := decoder.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedXML, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if result != nil {
				return nil, fmt.Errorf("%w: junk after document element", ErrMalformedXML)
			}
			el := &element{name: qualified(t.Name), fields: ParsedMessage{}}
			for _, attr := range t.Attr {
				el.fields["@"+qualified(attr.Name)] = attr.Value
			}
			stack = append(stack, el)

		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, fmt.Errorf("%w: text outside document element", ErrMalformedXML)
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)

		case xml.EndElement:
			if len(stack) == 0 || stack[len(stack)-1].name != qualified(t.Name) {
				return nil, fmt.Errorf("%w: unexpected end element </%s>", ErrMalformedXML, qualified(t.Name))
			}
			el := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			value := el.value()
			if len(stack) == 0 {
				result = ParsedMessage{el.name: value}
				continue
			}
			stack[len(stack)-1].fields.add(el.name, value)
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unexpected EOF inside <%s>", ErrMalformedXML, stack[len(stack)-1].name)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: no element found", ErrMalformedXML)
	}
	return result, nil
}

// ConvertToDict is ParseFragment that logs failures and returns an empty message.
func ConvertToDict(fragment string) ParsedMessage {
	msg, err := ParseFragment(fragment)
	if err != nil {
		log.Infof("not supported XML: %s (%v)", fragment, err)
		return ParsedMessage{}
	}
	return msg
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func (e *element) value() any {
	text := strings.TrimSpace(e.text.String())
	if len(e.fields) == 0 {
		if text == "" {
			return nil
		}
		return text
	}
	if text != "" {
		e.fields["#text"] = text
	}
	return e.fields
}

func (m ParsedMessage) add(name string, value any) {
	existing, ok := m[name]
	if !ok {
		m[name] = value
		return
	}
	if list, isList := existing.([]any); isList {
		m[name] = append(list, value)
		return
	}
	m[name] = []any{existing, value}
}
