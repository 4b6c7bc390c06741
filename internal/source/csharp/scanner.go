// Package csharp implements the source.Adapter interface with a
// hand-written structural scanner for C# source files.
//
// The scanner is not a C# parser. It tokenizes just enough of the
// language (comments, string literal forms, identifiers, punctuation)
// to recover type declarations, their base lists, their methods, and
// the call expressions inside method bodies. That structural view is
// all the endpoint extractor consumes.
package csharp

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/permaudit/permaudit/internal/source"
)

// Scanner is a structural scanner for C# source files.
// It is stateless and safe for concurrent use.
type Scanner struct{}

// NewScanner creates a Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// ListDeclarations reads and scans the file at path.
// Read or scan failures are returned to the caller, which treats them
// as a soft per-file skip.
func (s *Scanner) ListDeclarations(ctx context.Context, path string) ([]source.Declaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) //nolint:gosec // Scanning user-specified source trees is the point
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}

	tokens := lex(string(data))
	return parseDeclarations(tokens), nil
}

// tokenKind discriminates lexer output.
type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenString
	tokenPunct
)

// token is one lexical unit. Comments and whitespace never become
// tokens; string literals carry their decoded text.
type token struct {
	kind tokenKind
	text string
}

// lex tokenizes C# source. It understands line and block comments,
// regular, verbatim (@""), and interpolated ($"") string literals, and
// character literals. Everything it does not understand becomes a
// single-character punctuation token, which is enough for brace and
// parenthesis matching.
func lex(src string) []token {
	var tokens []token
	i := 0
	n := len(src)

	for i < n {
		c := src[i]

		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++

		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < n && src[i+1] == '*':
			i += 2
			for i+1 < n && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i += 2

		case c == '@' && i+1 < n && src[i+1] == '"':
			text, next := lexVerbatimString(src, i+2)
			tokens = append(tokens, token{kind: tokenString, text: text})
			i = next

		case c == '$' && i+1 < n && src[i+1] == '"':
			text, next := lexQuotedString(src, i+2)
			tokens = append(tokens, token{kind: tokenString, text: text})
			i = next

		case c == '$' && i+2 < n && src[i+1] == '@' && src[i+2] == '"':
			text, next := lexVerbatimString(src, i+3)
			tokens = append(tokens, token{kind: tokenString, text: text})
			i = next

		case c == '"':
			text, next := lexQuotedString(src, i+1)
			tokens = append(tokens, token{kind: tokenString, text: text})
			i = next

		case c == '\'':
			// Character literal; skipped entirely.
			i++
			for i < n && src[i] != '\'' {
				if src[i] == '\\' {
					i++
				}
				i++
			}
			i++

		case isIdentStart(c):
			start := i
			for i < n && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: src[start:i]})

		default:
			tokens = append(tokens, token{kind: tokenPunct, text: string(c)})
			i++
		}
	}

	return tokens
}

// lexQuotedString consumes a double-quoted string body starting after
// the opening quote. Backslash escapes are passed through verbatim;
// the extractor only compares literal route and permission text, which
// in practice contains no escapes.
func lexQuotedString(src string, start int) (string, int) {
	i := start
	n := len(src)
	var sb strings.Builder

	for i < n && src[i] != '"' {
		if src[i] == '\\' && i+1 < n {
			sb.WriteByte(src[i+1])
			i += 2
			continue
		}
		sb.WriteByte(src[i])
		i++
	}

	return sb.String(), i + 1
}

// lexVerbatimString consumes a verbatim string body where doubled
// quotes escape a quote.
func lexVerbatimString(src string, start int) (string, int) {
	i := start
	n := len(src)
	var sb strings.Builder

	for i < n {
		if src[i] == '"' {
			if i+1 < n && src[i+1] == '"' {
				sb.WriteByte('"')
				i += 2
				continue
			}
			return sb.String(), i + 1
		}
		sb.WriteByte(src[i])
		i++
	}

	return sb.String(), i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// typeKeywords introduce a type declaration whose members we scan.
var typeKeywords = map[string]bool{
	"class":  true,
	"record": true,
	"struct": true,
}

// parseDeclarations walks the token stream and extracts type
// declarations with their base lists and methods.
func parseDeclarations(tokens []token) []source.Declaration {
	var decls []source.Declaration

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.kind != tokenIdent || !typeKeywords[t.text] {
			continue
		}
		if i+1 >= len(tokens) || tokens[i+1].kind != tokenIdent {
			continue
		}

		decl := source.Declaration{Name: tokens[i+1].text}
		j := skipGenericArgs(tokens, i+2)

		// Base list: ": Capability, Other<T>, ..." up to the body or a
		// generic constraint clause.
		if j < len(tokens) && tokens[j].kind == tokenPunct && tokens[j].text == ":" {
			j++
			for j < len(tokens) {
				t := tokens[j]
				if t.kind == tokenPunct && t.text == "{" {
					break
				}
				if t.kind == tokenIdent && t.text == "where" {
					break
				}
				if t.kind == tokenIdent {
					name := t.text
					// Qualified names keep only the final segment.
					for j+2 < len(tokens) &&
						tokens[j+1].kind == tokenPunct && tokens[j+1].text == "." &&
						tokens[j+2].kind == tokenIdent {
						name = tokens[j+2].text
						j += 2
					}
					decl.Capabilities = append(decl.Capabilities, name)
					j = skipGenericArgs(tokens, j+1)
					continue
				}
				j++
			}
		}

		// Skip ahead to the body. A semicolon first means a body-less
		// declaration (e.g. a positional record).
		bodyless := false
		for j < len(tokens) {
			if tokens[j].kind == tokenPunct {
				if tokens[j].text == "{" {
					break
				}
				if tokens[j].text == ";" {
					bodyless = true
					break
				}
			}
			j++
		}
		if bodyless || j >= len(tokens) {
			decls = append(decls, decl)
			i = j
			continue
		}

		bodyStart, bodyEnd := j+1, matchBrace(tokens, j)
		decl.Methods = parseMethods(tokens[bodyStart:bodyEnd])
		decls = append(decls, decl)
		i = bodyEnd
	}

	return decls
}

// skipGenericArgs advances past a balanced <...> starting at i,
// returning i unchanged if no generic argument list is present.
func skipGenericArgs(tokens []token, i int) int {
	if i >= len(tokens) || tokens[i].kind != tokenPunct || tokens[i].text != "<" {
		return i
	}
	depth := 0
	for j := i; j < len(tokens); j++ {
		if tokens[j].kind != tokenPunct {
			continue
		}
		switch tokens[j].text {
		case "<":
			depth++
		case ">":
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return i
}

// matchBrace returns the index of the closing brace matching the
// opening brace at open, or len(tokens) if the source is unbalanced.
func matchBrace(tokens []token, open int) int {
	depth := 0
	for j := open; j < len(tokens); j++ {
		if tokens[j].kind != tokenPunct {
			continue
		}
		switch tokens[j].text {
		case "{":
			depth++
		case "}":
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(tokens)
}

// matchParen returns the index of the closing parenthesis matching the
// opening one at open, or len(tokens) if unbalanced.
func matchParen(tokens []token, open int) int {
	depth := 0
	for j := open; j < len(tokens); j++ {
		if tokens[j].kind != tokenPunct {
			continue
		}
		switch tokens[j].text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(tokens)
}

// parseMethods finds method members inside a type body: an identifier
// followed by a parameter list whose closing parenthesis is followed
// by a block body or an expression body. Properties and fields have no
// parameter list and fall through naturally.
func parseMethods(body []token) []source.Method {
	var methods []source.Method

	for i := 0; i < len(body); i++ {
		if body[i].kind != tokenIdent {
			continue
		}
		if i+1 >= len(body) || body[i+1].kind != tokenPunct || body[i+1].text != "(" {
			continue
		}

		closeParen := matchParen(body, i+1)
		if closeParen >= len(body)-1 {
			continue
		}

		next := body[closeParen+1]
		switch {
		case next.kind == tokenPunct && next.text == "{":
			end := matchBrace(body, closeParen+1)
			methods = append(methods, source.Method{
				Name:  body[i].text,
				Calls: parseCalls(body[closeParen+2 : end]),
			})
			i = end

		case next.kind == tokenPunct && next.text == "=" &&
			closeParen+2 < len(body) &&
			body[closeParen+2].kind == tokenPunct && body[closeParen+2].text == ">":
			// Expression-bodied member: "Name(...) => expr;"
			end := closeParen + 3
			for end < len(body) && !(body[end].kind == tokenPunct && body[end].text == ";") {
				end++
			}
			methods = append(methods, source.Method{
				Name:  body[i].text,
				Calls: parseCalls(body[closeParen+3 : end]),
			})
			i = end

		default:
			// A constructor invocation or other expression at member
			// level; skip past the parameter list.
			i = closeParen
		}
	}

	return methods
}

// parseCalls extracts call expressions from a method body in textual
// order, which is the traversal order the extractor relies on. Nested
// and chained calls are all visited because every "ident(" pair in the
// body is considered.
func parseCalls(body []token) []source.CallExpr {
	var calls []source.CallExpr

	for i := 0; i+1 < len(body); i++ {
		if body[i].kind != tokenIdent {
			continue
		}
		if body[i+1].kind != tokenPunct || body[i+1].text != "(" {
			continue
		}

		call := source.CallExpr{CalleeName: body[i].text}
		if i+2 < len(body) && body[i+2].kind == tokenString {
			call.FirstLiteralArg = body[i+2].text
			call.HasLiteralArg = true
		}
		calls = append(calls, call)
	}

	return calls
}
