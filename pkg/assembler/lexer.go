// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package assembler

import (
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/lassandro/golms/pkg/encoding"
)

// Rule order matters: labels must win over identifiers and comments over the
// separators. Number runs on through any word characters so that `10loop`
// is one malformed literal rather than a literal and a name.
var lmsLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "BlockComment", Pattern: `/\*([^*]|\*+[^*/])*\*+/`},
	{Name: "String", Pattern: `'(\\.|[^'\\\n])*'`},
	{Name: "Number", Pattern: `[-+]?(\d|\.\d)([eE][-+]|[0-9A-Za-z_.])*`},
	{Name: "Label", Pattern: `[A-Za-z_][A-Za-z0-9_]*:`},
	{Name: "Ident", Pattern: `[@&]?[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Block", Pattern: `[{}]`},
	{Name: "Separator", Pattern: `[(),]`},
	{Name: "Newline", Pattern: `\n`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
})

var tokenTypes map[lexer.TokenType]TokenType
var blockType lexer.TokenType

func init() {
	symbols := lmsLexer.Symbols()

	tokenTypes = map[lexer.TokenType]TokenType{
		symbols["Ident"]:  TOKEN_IDENT,
		symbols["Number"]: TOKEN_LITERAL,
		symbols["String"]: TOKEN_STRING,
		symbols["Label"]:  TOKEN_LABEL,
	}

	blockType = symbols["Block"]
}

// lex splits source into statements. A statement holds the tokens of one
// line; braces always stand alone so that `vmthread MAIN {` yields two.
func lex(source string) ([]Statement, error) {
	stream, err := lmsLexer.LexString("", source)

	if err != nil {
		return nil, lexError(source, err)
	}

	raw, err := lexer.ConsumeAll(stream)

	if err != nil {
		return nil, lexError(source, err)
	}

	var statements []Statement
	var current []Token
	var line int

	flush := func() {
		if len(current) > 0 {
			statements = append(statements, Statement{current})
			current = nil
		}
	}

	for _, tok := range raw {
		var token Token

		if tok.Type == blockType {
			token.Type = TOKEN_BLOCK_START

			if tok.Value == "}" {
				token.Type = TOKEN_BLOCK_END
			}
		} else if tokenType, exists := tokenTypes[tok.Type]; exists {
			token.Type = tokenType
		} else {
			continue
		}

		token.Position = cursorAt(tok.Pos, len(tok.Value))
		token.Value = tok.Value

		if token.Type == TOKEN_LITERAL && !validLiteral(tok.Value) {
			return nil, &InvalidLiteralError{token.Position}
		}

		if token.Type == TOKEN_LABEL {
			token.Value = strings.TrimSuffix(tok.Value, ":")
		}

		if tok.Pos.Line != line || token.Type == TOKEN_BLOCK_START || token.Type == TOKEN_BLOCK_END {
			flush()
			line = tok.Pos.Line
		}

		current = append(current, token)

		if token.Type == TOKEN_BLOCK_START || token.Type == TOKEN_BLOCK_END {
			flush()
		}
	}

	flush()

	return statements, nil
}

func validLiteral(s string) bool {
	var err error

	if encoding.IsFloat(s) {
		_, err = encoding.ParseFloat(s)
	} else {
		_, err = encoding.ParseInt(s)
	}

	return err == nil
}

func cursorAt(pos lexer.Position, size int) Cursor {
	return Cursor{
		Line:     pos.Line,
		Column:   pos.Column,
		Byte:     int64(pos.Offset),
		Size:     int64(size),
		LineByte: int64(pos.Offset - (pos.Column - 1)),
	}
}

func lexError(source string, err error) error {
	positioned, ok := err.(interface{ Position() lexer.Position })

	if !ok {
		return err
	}

	pos := positioned.Position()
	cursor := cursorAt(pos, 1)

	if pos.Offset >= len(source) {
		return &UnexpectedCharacterError{cursor, utf8.RuneError}
	}

	char, _ := utf8.DecodeRuneInString(source[pos.Offset:])

	if char == '\'' {
		cursor.Size = int64(len(source) - pos.Offset)

		if end := strings.IndexByte(source[pos.Offset:], '\n'); end != -1 {
			cursor.Size = int64(end)
		}

		return &InvalidStringError{cursor}
	}

	return &UnexpectedCharacterError{cursor, char}
}
