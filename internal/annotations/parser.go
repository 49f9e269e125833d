package annotations

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser turns a raw "//alloy:kind(...)" comment line into a ParsedAnnotation.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

const prefix = "//alloy:"

// Recognize reports whether a comment line carries an alloy annotation at all.
func Recognize(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), prefix)
}

// Parse parses one annotation comment line.
func (p *Parser) Parse(line string, loc SourceLocation) (*ParsedAnnotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, prefix) {
		return nil, fmt.Errorf("%s:%d: not an alloy annotation", loc.File, loc.Line)
	}
	body := strings.TrimPrefix(trimmed, prefix)

	kindText := body
	argsText := ""
	if idx := strings.IndexByte(body, '('); idx >= 0 {
		if !strings.HasSuffix(body, ")") {
			return &ParsedAnnotation{}, &SyntaxError{Location: loc, Message: "unterminated annotation argument list", Raw: line}
		}
		kindText = body[:idx]
		argsText = body[idx+1 : len(body)-1]
	}

	kind, err := ParseKind(strings.TrimSpace(kindText))
	if err != nil {
		return nil, &SyntaxError{Location: loc, Message: err.Error(), Raw: line}
	}

	result := &ParsedAnnotation{Kind: kind, Location: loc, Raw: line}

	if kind == KindInterface {
		result.InterfaceRef = strings.TrimSpace(argsText)
		return result, nil
	}
	if kind == KindLogger {
		return result, nil
	}
	if strings.TrimSpace(argsText) == "" {
		return result, nil
	}

	parsed, err := parseArgList(argsText)
	if err != nil {
		return nil, &SyntaxError{Location: loc, Message: fmt.Sprintf("malformed argument list: %v", err), Raw: line}
	}

	for _, item := range parsed.Items {
		switch {
		case item.Deps != nil:
			for _, d := range item.Deps.Items {
				result.Deps = append(result.Deps, toDepItem(d))
			}
		case item.List != nil:
			for _, d := range item.List.Items {
				result.Deps = append(result.Deps, toDepItem(d))
			}
		case item.Thunk != nil:
			for _, d := range item.Thunk.Items {
				result.Deps = append(result.Deps, toDepItem(d))
			}
		case item.Lazy != nil:
			result.Deps = append(result.Deps, DepItem{
				LazyImporter: item.Lazy.Importer,
				LazyRetry:    toRetryOptions(item.Lazy.Options),
			})
		case item.Option != nil:
			applyScopeOption(item.Option, result)
		case item.Str != nil:
			result.ScopeLiteral = *item.Str
		case item.Ident != nil:
			// A bare identifier at the top level is the (possible)
			// second positional scope argument, e.g. Injectable(deps, singleton)
			// re-targeted to Go as service(deps(...), singleton).
			if *item.Ident == "singleton" || *item.Ident == "transient" {
				result.ScopeLiteral = *item.Ident
			}
		}
	}

	return result, nil
}

func toDepItem(d *depItemNode) DepItem {
	if d.Lazy != nil {
		return DepItem{LazyImporter: d.Lazy.Importer, LazyRetry: toRetryOptions(d.Lazy.Options)}
	}
	return DepItem{Ident: *d.Ident}
}

func toRetryOptions(o *optionObject) *RetryOptions {
	if o == nil {
		return nil
	}
	out := &RetryOptions{}
	for _, f := range o.Fields {
		if f.Value == nil {
			continue
		}
		switch f.Key {
		case "retries":
			if n, err := strconv.Atoi(*f.Value); err == nil {
				out.Retries = &n
			}
		case "backoffMs":
			if n, err := strconv.Atoi(*f.Value); err == nil {
				out.BackoffMS = &n
			}
		case "factor":
			if n, err := strconv.ParseFloat(*f.Value, 64); err == nil {
				out.Factor = &n
			}
		}
	}
	return out
}

func applyScopeOption(o *optionObject, result *ParsedAnnotation) {
	for _, f := range o.Fields {
		if f.Key == "scope" && f.Value != nil {
			result.ScopeLiteral = strings.Trim(*f.Value, `"`)
		}
		if f.Key == "dependencies" && f.List != nil {
			for _, d := range f.List.Items {
				result.Deps = append(result.Deps, toDepItem(d))
			}
		}
	}
}
