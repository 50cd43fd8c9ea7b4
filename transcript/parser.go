package transcript

import (
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/weeed/layout"
)

var (
	transcriptLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Mention", Pattern: `@[^\s:"]+`},
		{Name: "Ident", Pattern: `[A-Za-z0-9_][A-Za-z0-9_.\-]*`},
		{Name: "Symbol", Pattern: `[:]`},
	})

	transcriptParser = participle.MustBuild[Transcript](
		participle.Lexer(transcriptLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.Unquote("String"),
	)
)

// Transcript is the root AST node of a chat transcript file.
//
//	# comments are ignored
//	alice: "hello there"
//	@bob: "hi alice" "second line"
//	123456789: "snowflake authors work too"
type Transcript struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Entries []*Entry       `parser:"Newline* ( @@ Newline* )*"`
}

// Entry is one chat message. Several strings are joined with newlines.
type Entry struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Author string         `parser:"@( Ident | Mention )"`
	Texts  []string       `parser:"':' @String+"`
}

// AuthorID returns the author with any leading @ removed.
func (e *Entry) AuthorID() string {
	return strings.TrimPrefix(e.Author, "@")
}

// Text joins the entry's strings with newlines.
func (e *Entry) Text() string {
	return strings.Join(e.Texts, "\n")
}

// Messages converts the transcript into ordered layout messages.
func (t *Transcript) Messages() []layout.Message {
	if t == nil {
		return nil
	}
	out := make([]layout.Message, 0, len(t.Entries))
	for i, e := range t.Entries {
		out = append(out, layout.Message{AuthorID: e.AuthorID(), Text: e.Text(), Position: i})
	}
	return out
}

// Parse parses transcript content from an io.Reader.
func Parse(r io.Reader) (*Transcript, error) {
	return transcriptParser.Parse("", r)
}

// ParseString parses transcript content from a string.
func ParseString(input string) (*Transcript, error) {
	return transcriptParser.ParseString("", input)
}
