package annotations

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// The grammar below is deliberately small: it covers exactly the argument
// shapes spec.md §4.A and §6 describe (deps(...), Lazy(...) with an
// optional retry bag, a bare scope string, object-literal option bags)
// and nothing else. It mirrors the teacher's own participle_parser.go in
// spirit: a hand-sized lexer plus a struct-tagged grammar, not a general
// expression parser.
//
// spec.md §4.A lists four equivalent surface forms for a dependency list:
// a bare array literal, a nullary closure returning one, the deps(...)
// call form, and an object literal's dependencies: field. All four
// re-target to Go annotation syntax below and all four produce the same
// []*depItemNode shape:
//
//	//alloy:service([A, B])                     bare list literal
//	//alloy:service(func() []any{ A, B })       thunk-returning-list
//	//alloy:service(deps(A, B))                 deps(...) call form
//	//alloy:service({dependencies: [A, B]})     object-literal field

type argList struct {
	Items []*argNode `parser:"@@ (',' @@)*"`
}

type argNode struct {
	Deps   *depsCall     `parser:"( @@"`
	Thunk  *thunkList    `parser:"| @@"`
	List   *listLiteral  `parser:"| @@"`
	Lazy   *lazyCall     `parser:"| @@"`
	Option *optionObject `parser:"| @@"`
	Str    *string       `parser:"| @String"`
	Ident  *string       `parser:"| @Ident )"`
}

type depsCall struct {
	Items []*depItemNode `parser:"'deps' '(' (@@ (',' @@)*)? ')'"`
}

// listLiteral is the bare "[A, B]" dependency-list form.
type listLiteral struct {
	Items []*depItemNode `parser:"'[' (@@ (',' @@)*)? ']'"`
}

// thunkList is the "func() []any{ A, B }" nullary-closure form: spec.md
// §4.A's "nullary arrow returning an array literal", re-targeted to a Go
// function literal. It parses to the same element list as listLiteral;
// the wrapping func()/[]any syntax carries no semantic weight of its own
// (Go has no bare top-level array-literal expression, so this is the
// closure-wrapped shape a Go author would actually write).
type thunkList struct {
	Items []*depItemNode `parser:"'func' '(' ')' '[' ']' 'any' '{' (@@ (',' @@)*)? '}'"`
}

type depItemNode struct {
	Lazy  *lazyCall `parser:"( @@"`
	Ident *string   `parser:"| @Ident )"`
}

type lazyCall struct {
	Importer string        `parser:"'Lazy' '(' @Ident"`
	Options  *optionObject `parser:"(',' @@)? ')'"`
}

type optionObject struct {
	Fields []*optField `parser:"'{' (@@ (',' @@)*)? '}'"`
}

// optField's value is either a scalar (Number/String/Ident) or, for the
// "dependencies" key, a list literal.
type optField struct {
	Key   string       `parser:"@Ident ':'"`
	List  *listLiteral `parser:"( @@"`
	Value *string      `parser:"| (@Number | @String | @Ident) )"`
}

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?`},
	{Name: "Punct", Pattern: `[(){}:,\[\]]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var argListParser = participle.MustBuild[argList](
	participle.Lexer(annotationLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

func parseArgList(src string) (*argList, error) {
	return argListParser.ParseString("", src)
}
