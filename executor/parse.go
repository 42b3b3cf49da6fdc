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

package executor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/botobag/typegraph/gqlerrors"
	"github.com/botobag/typegraph/metadata"
)

// Request documents use the selection syntax of GraphQL:
//
//	mutation SavePost {
//	  saved: postSave(title: "Hello", status: PUBLISHED) {
//	    title
//	    category { name }
//	    ... on Post { tags }
//	  }
//	}
//
// Commas are insignificant. Arguments may refer to variables with "$name".
var documentLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`},
	{Name: "Ident", Pattern: `[_A-Za-z][_0-9A-Za-z]*`},
	{Name: "Punct", Pattern: `\.\.\.|[{}():\[\]$]`},
	{Name: "Whitespace", Pattern: `[\s,]+`},
})

type documentAST struct {
	Header    *headerAST      `parser:"@@?"`
	Selection []*selectionAST `parser:"'{' @@* '}'"`
}

type headerAST struct {
	Kind string `parser:"@('query' | 'mutation' | 'subscription')"`
	Name string `parser:"@Ident?"`
}

type selectionAST struct {
	Fragment *fragmentAST `parser:"  @@"`
	Field    *fieldAST    `parser:"| @@"`
}

type fragmentAST struct {
	On        string          `parser:"'...' 'on' @Ident"`
	Selection []*selectionAST `parser:"'{' @@* '}'"`
}

type fieldAST struct {
	Alias     string          `parser:"( @Ident ':' )?"`
	Name      string          `parser:"@Ident"`
	Args      []*argumentAST  `parser:"( '(' @@* ')' )?"`
	Selection []*selectionAST `parser:"( '{' @@* '}' )?"`
}

type argumentAST struct {
	Name  string    `parser:"@Ident ':'"`
	Value *valueAST `parser:"@@"`
}

type valueAST struct {
	Variable *string    `parser:"  '$' @Ident"`
	String   *string    `parser:"| @String"`
	Number   *string    `parser:"| @Number"`
	Bool     *string    `parser:"| @('true' | 'false')"`
	Null     bool       `parser:"| @'null'"`
	Enum     *string    `parser:"| @Ident"`
	List     *listAST   `parser:"| @@"`
	Object   *objectAST `parser:"| @@"`
}

type listAST struct {
	Open   string      `parser:"@'['"`
	Values []*valueAST `parser:"@@* ']'"`
}

type objectAST struct {
	Open   string         `parser:"@'{'"`
	Fields []*argumentAST `parser:"@@* '}'"`
}

var documentParser = participle.MustBuild[documentAST](
	participle.Lexer(documentLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses a request document. A document without an operation keyword is a query.
func Parse(document string) (*Request, error) {
	ast, err := documentParser.ParseString("", document)
	if err != nil {
		return nil, gqlerrors.NewError(fmt.Sprintf("syntax error: %s", err),
			gqlerrors.Op("executor.Parse"),
			gqlerrors.ErrKindValidation,
			err)
	}

	request := &Request{}
	if ast.Header != nil {
		switch ast.Header.Kind {
		case "mutation":
			request.Kind = metadata.OperationMutation
		case "subscription":
			request.Kind = metadata.OperationSubscription
		}
	}

	request.Selection, err = selections(ast.Selection)
	if err != nil {
		return nil, gqlerrors.NewError(err.Error(), gqlerrors.Op("executor.Parse"), gqlerrors.ErrKindValidation)
	}
	return request, nil
}

func selections(asts []*selectionAST) ([]*Selection, error) {
	result := make([]*Selection, 0, len(asts))
	for _, ast := range asts {
		var (
			selection = &Selection{}
			nested    []*selectionAST
		)
		if fragment := ast.Fragment; fragment != nil {
			selection.On = fragment.On
			nested = fragment.Selection
		} else {
			field := ast.Field
			selection.Alias = field.Alias
			selection.Name = field.Name
			nested = field.Selection
			if len(field.Args) > 0 {
				args, err := objectValue(field.Args)
				if err != nil {
					return nil, err
				}
				selection.Args = args
			}
		}
		children, err := selections(nested)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 {
			selection.Selection = children
		}
		result = append(result, selection)
	}
	return result, nil
}

func objectValue(fields []*argumentAST) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		if _, exists := result[field.Name]; exists {
			return nil, fmt.Errorf(`argument "%s" is given more than once`, field.Name)
		}
		value, err := field.Value.value()
		if err != nil {
			return nil, err
		}
		result[field.Name] = value
	}
	return result, nil
}

func (v *valueAST) value() (interface{}, error) {
	switch {
	case v.Variable != nil:
		return Variable(*v.Variable), nil

	case v.String != nil:
		return *v.String, nil

	case v.Number != nil:
		if !strings.ContainsAny(*v.Number, ".eE") {
			if i, err := strconv.Atoi(*v.Number); err == nil {
				return i, nil
			}
		}
		return strconv.ParseFloat(*v.Number, 64)

	case v.Bool != nil:
		return *v.Bool == "true", nil

	case v.Null:
		return nil, nil

	case v.Enum != nil:
		return EnumLiteral(*v.Enum), nil

	case v.List != nil:
		list := make([]interface{}, 0, len(v.List.Values))
		for _, element := range v.List.Values {
			value, err := element.value()
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil

	case v.Object != nil:
		return objectValue(v.Object.Fields)
	}
	return nil, nil
}
