/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package schema

import (
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// stringConfig escapes description strings without HTML escaping.
var stringConfig = jsoniter.Config{EscapeHTML: false}.Froze()

// Print writes the schema in the GraphQL schema definition language. Custom scalars come first,
// followed by every other type in synthesis order. The output only depends on the schema so printing
// two schemas synthesized from the same graph gives identical text.
func Print(s *Schema) string {
	p := &printer{}

	var scalars, others []NamedType
	for _, t := range s.Types {
		if _, ok := t.(*Scalar); ok {
			scalars = append(scalars, t)
		} else {
			others = append(others, t)
		}
	}

	for _, t := range append(scalars, others...) {
		if p.Len() > 0 {
			p.WriteString("\n\n")
		}
		p.printType(t)
	}
	if p.Len() > 0 {
		p.WriteString("\n")
	}
	return p.String()
}

type printer struct {
	strings.Builder
	indentLevel int
}

func (p *printer) beginBlock() {
	p.WriteString(" {")
	p.indentLevel++
}

func (p *printer) endBlock() {
	p.indentLevel--
	p.writeNewLineWithIndent()
	p.WriteString("}")
}

func (p *printer) writeNewLineWithIndent() {
	p.WriteString("\n")
	p.WriteString(p.indentation())
}

func (p *printer) indentation() string {
	return strings.Repeat(" ", 2*p.indentLevel)
}

func (p *printer) printType(t NamedType) {
	p.printDescription(t.TypeDescription(), false)

	switch t := t.(type) {
	case *Scalar:
		p.WriteString("scalar ")
		p.WriteString(t.Name)

	case *Enum:
		p.WriteString("enum ")
		p.WriteString(t.Name)
		p.beginBlock()
		for _, value := range t.Values {
			p.writeNewLineWithIndent()
			p.printDescription(value.Description, true)
			p.WriteString(value.Name)
			p.printDeprecated(value.DeprecationReason)
		}
		p.endBlock()

	case *Union:
		p.WriteString("union ")
		p.WriteString(t.Name)
		for i, member := range t.Members {
			if i == 0 {
				p.WriteString(" = ")
			} else {
				p.WriteString(" | ")
			}
			p.WriteString(member.Name)
		}

	case *InputObject:
		p.WriteString("input ")
		p.WriteString(t.Name)
		if len(t.Fields) > 0 {
			p.beginBlock()
			for _, field := range t.Fields {
				p.writeNewLineWithIndent()
				p.printInputValue(field)
			}
			p.endBlock()
		}

	case *Object:
		p.WriteString("type ")
		p.WriteString(t.Name)
		if len(t.Fields) > 0 {
			p.beginBlock()
			for _, field := range t.Fields {
				p.writeNewLineWithIndent()
				p.printField(field)
			}
			p.endBlock()
		}
	}
}

func (p *printer) printField(field *Field) {
	p.printDescription(field.Description, true)
	p.WriteString(field.Name)
	if len(field.Args) > 0 {
		p.WriteString("(")
		for i, arg := range field.Args {
			if i > 0 {
				p.WriteString(", ")
			}
			p.printInputValue(arg)
		}
		p.WriteString(")")
	}
	p.WriteString(": ")
	p.WriteString(field.Type.String())
	p.printDeprecated(field.DeprecationReason)
}

func (p *printer) printInputValue(value *InputValue) {
	if value.Description != "" {
		p.printString(value.Description)
		p.WriteString(" ")
	}
	p.WriteString(value.Name)
	p.WriteString(": ")
	p.WriteString(value.Type.String())
	p.printDeprecated(value.DeprecationReason)
}

func (p *printer) printDeprecated(reason string) {
	if reason == "" {
		return
	}
	p.WriteString(" @deprecated(reason: ")
	p.printString(reason)
	p.WriteString(")")
}

// printDescription prints a description followed by a line break. Multi-line descriptions are
// printed as block strings.
func (p *printer) printDescription(description string, nested bool) {
	if description == "" {
		return
	}
	if strings.ContainsRune(description, '\n') {
		p.printBlockString(description)
	} else {
		p.printString(description)
	}
	if nested {
		p.writeNewLineWithIndent()
	} else {
		p.WriteString("\n")
	}
}

func (p *printer) printString(value string) {
	s, err := stringConfig.MarshalToString(value)
	if err != nil {
		s = `""`
	}
	p.WriteString(s)
}

// printBlockString prints value as a block string with a leading and trailing line break.
func (p *printer) printBlockString(value string) {
	p.WriteString(`"""`)
	p.writeNewLineWithIndent()
	value = strings.Replace(value, `"""`, `\"""`, -1)
	value = strings.Replace(value, "\n", "\n"+p.indentation(), -1)
	p.WriteString(value)
	p.writeNewLineWithIndent()
	p.WriteString(`"""`)
}
