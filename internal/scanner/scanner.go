// Package scanner implements Component A of the compiler: it parses one Go
// source file and extracts //alloy:service / //alloy:singleton annotated
// types into the shared models.DiscoveredService shape, following the same
// go/ast walking style as the teacher's internal/parser/parser.go.
package scanner

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strings"

	"github.com/alloy-di/alloy/internal/annotations"
	compileerrors "github.com/alloy-di/alloy/internal/errors"
	"github.com/alloy-di/alloy/internal/models"
)

// Result is everything one file's scan produces.
type Result struct {
	Services     []models.DiscoveredService
	DeferredKeys map[models.DeferredKey]bool
}

// importInfo is one entry of the file's local import table.
type importInfo struct {
	path string // Go import path, e.g. "github.com/org/proj/internal/billing"
	name string // local identifier used to qualify references, "." for dot imports
}

// Scanner is pure and stateless: the same (filePath, source) always yields
// byte-identical output, matching spec.md §4.B's purity requirement.
type Scanner struct {
	annotationParser *annotations.Parser
}

func New() *Scanner {
	return &Scanner{annotationParser: annotations.NewParser()}
}

// Scan parses source text from fileName (a slash-normalized path relative
// to the module root) and extracts its annotated services.
//
// packageDir is the canonical package-level path used as FilePath on every
// DiscoveredService found in this file: Go dependencies are resolved at
// package granularity (spec.md's identifier_key names "<package>/<relative
// path>", not an exact filename), so services declared in sibling files of
// the same package share one FilePath.
func (s *Scanner) Scan(fileName, packageDir, source string) (*Result, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, fileName, source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("scanner: failed to parse %s: %w", fileName, err)
	}

	imports := buildImportTable(file)

	result := &Result{DeferredKeys: map[models.DeferredKey]bool{}}

	for _, decl := range file.Decls {
		genDecl, ok := decl.(*ast.GenDecl)
		if !ok || genDecl.Tok != token.TYPE || genDecl.Doc == nil {
			continue
		}
		for _, spec := range genDecl.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			svc, deferredKeys, ok, err := s.processTypeDoc(genDecl.Doc, typeSpec.Name.Name, packageDir, fset, imports)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			result.Services = append(result.Services, *svc)
			for k := range deferredKeys {
				result.DeferredKeys[k] = true
			}
		}
	}

	return result, nil
}

func (s *Scanner) processTypeDoc(doc *ast.CommentGroup, typeName, packageDir string, fset *token.FileSet, imports map[string]importInfo) (*models.DiscoveredService, map[models.DeferredKey]bool, bool, error) {
	var svcAnn *annotations.ParsedAnnotation
	var ifaceRef string
	loggerOnly := false

	for _, comment := range doc.List {
		if !annotations.Recognize(comment.Text) {
			continue
		}
		pos := fset.Position(comment.Pos())
		ann, err := s.annotationParser.Parse(comment.Text, annotations.SourceLocation{
			File: packageDir, Line: pos.Line, Column: pos.Column,
		})
		if err != nil {
			// Any //alloy: line that fails to parse, including an unknown
			// annotation kind, aborts the scan of this file with the parse
			// error so the author gets a diagnostic; no malformed
			// annotation is skipped silently.
			return nil, nil, false, err
		}
		switch ann.Kind {
		case annotations.KindInterface:
			ifaceRef = ann.InterfaceRef
		case annotations.KindLogger:
			loggerOnly = true
		case annotations.KindService, annotations.KindSingleton:
			svcAnn = ann
		}
	}

	if svcAnn == nil && !loggerOnly {
		return nil, nil, false, nil
	}

	// A bare //alloy:logger annotation needs no accompanying
	// //alloy:service or //alloy:singleton: it names its own zero-
	// dependency singleton and codegen synthesizes the constructor, so
	// there is nothing here to merge dependencies or scope from.
	if svcAnn == nil && loggerOnly {
		filePath := path.Clean(packageDir)
		svc := &models.DiscoveredService{
			ClassName:     typeName,
			FilePath:      filePath,
			IdentifierKey: fmt.Sprintf("alloy:%s#%s", filePath, typeName),
			InterfaceName: ifaceRef,
			Synthesized:   models.SynthesizedZapLogger,
			Metadata:      models.ServiceMetadata{Scope: models.ScopeSingleton},
			Origin:        models.OriginLocal,
		}
		return svc, nil, true, nil
	}

	scope := models.ScopeTransient
	if svcAnn.Kind == annotations.KindSingleton || svcAnn.ScopeLiteral == "singleton" {
		scope = models.ScopeSingleton
	}

	filePath := path.Clean(packageDir)
	identifierKey := fmt.Sprintf("alloy:%s#%s", filePath, typeName)

	svc := &models.DiscoveredService{
		ClassName:     typeName,
		FilePath:      filePath,
		IdentifierKey: identifierKey,
		InterfaceName: ifaceRef,
		Metadata:      models.ServiceMetadata{Scope: scope},
		Origin:        models.OriginLocal,
	}

	deferredKeys := map[models.DeferredKey]bool{}
	for _, dep := range svcAnn.Deps {
		descriptor, refImports, keys, err := buildDependency(dep, imports, svcAnn.Location)
		if err != nil {
			return nil, nil, false, err
		}
		svc.Metadata.Dependencies = append(svc.Metadata.Dependencies, descriptor)
		svc.ReferencedImports = append(svc.ReferencedImports, refImports...)
		for k := range keys {
			deferredKeys[k] = true
		}
	}

	return svc, deferredKeys, true, nil
}

// buildDependency turns one parsed dependency item into its descriptor. A
// Lazy(...) argument qualified by a package alias that this file never
// actually imports (e.g. a typo, or an alias for a package the author
// removed) does not resolve to a known import: spec.md §7's
// unsupported-lazy-identifier error aborts the scan rather than silently
// emitting a deferred key that can never be satisfied.
func buildDependency(dep annotations.DepItem, imports map[string]importInfo, loc annotations.SourceLocation) (models.DependencyDescriptor, []models.ReferencedImport, map[models.DeferredKey]bool, error) {
	keys := map[models.DeferredKey]bool{}
	var refImports []models.ReferencedImport

	if dep.LazyImporter != "" {
		if idx := strings.LastIndexByte(dep.LazyImporter, '.'); idx >= 0 {
			alias := dep.LazyImporter[:idx]
			if _, ok := imports[alias]; !ok {
				return models.DependencyDescriptor{}, nil, nil, compileerrors.NewUnsupportedLazyIdentifier(dep.LazyImporter, compileerrors.SourceLocation{
					File: loc.File, Line: loc.Line, Column: loc.Column,
				})
			}
		}

		targetPath, exportName := resolveTarget(dep.LazyImporter, imports)
		keys[models.ServiceDeferredKey(targetPath, exportName)] = true

		retry := toModelRetry(dep.LazyRetry)
		expr := fmt.Sprintf("Lazy(%s", dep.LazyImporter)
		if retry != nil {
			expr += fmt.Sprintf(", {retries: %d, backoffMs: %d, factor: %v}", retry.AttemptsAfterFirst, retry.InitialBackoffMS, retry.Factor)
		}
		expr += ")"

		descriptor := models.DependencyDescriptor{
			Expression:            expr,
			ReferencedIdentifiers: []string{dep.LazyImporter},
			IsDeferred:            true,
			Retry:                 retry,
			TargetImportPath:      targetPath,
			TargetExportName:      exportName,
		}
		if ri, ok := referencedImportFor(dep.LazyImporter, imports); ok {
			refImports = append(refImports, ri)
		}
		return descriptor, refImports, keys, nil
	}

	targetPath, exportName := resolveTarget(dep.Ident, imports)
	descriptor := models.DependencyDescriptor{
		Expression:            dep.Ident,
		ReferencedIdentifiers: []string{dep.Ident},
		IsDeferred:            false,
		TargetImportPath:      targetPath,
		TargetExportName:      exportName,
	}
	if ri, ok := referencedImportFor(dep.Ident, imports); ok {
		refImports = append(refImports, ri)
	}
	return descriptor, refImports, keys, nil
}

func toModelRetry(o *annotations.RetryOptions) *models.RetryPolicy {
	if o == nil {
		return nil
	}
	policy := models.DefaultRetryPolicy()
	if o.Retries != nil {
		policy.AttemptsAfterFirst = *o.Retries
	}
	if o.BackoffMS != nil {
		policy.InitialBackoffMS = *o.BackoffMS
	}
	if o.Factor != nil {
		policy.Factor = *o.Factor
	}
	return &policy
}

// resolveTarget splits "pkgalias.Symbol" or a bare "Symbol" into the
// candidate package path and export name the deferred-key algorithm needs.
func resolveTarget(ident string, imports map[string]importInfo) (pkgPath, export string) {
	if idx := strings.LastIndexByte(ident, '.'); idx >= 0 {
		alias, symbol := ident[:idx], ident[idx+1:]
		if info, ok := imports[alias]; ok {
			return info.path, symbol
		}
		return alias, symbol
	}
	return "", ident
}

func referencedImportFor(ident string, imports map[string]importInfo) (models.ReferencedImport, bool) {
	idx := strings.LastIndexByte(ident, '.')
	if idx < 0 {
		return models.ReferencedImport{}, false
	}
	alias, symbol := ident[:idx], ident[idx+1:]
	info, ok := imports[alias]
	if !ok {
		return models.ReferencedImport{}, false
	}
	return models.ReferencedImport{
		LocalName:          alias,
		ModuleSpecifier:    info.path,
		OriginalExportName: symbol,
	}, true
}

func buildImportTable(file *ast.File) map[string]importInfo {
	table := map[string]importInfo{}
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		name := path.Base(importPath)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		if name == "_" {
			continue // blank imports never resolve to a dependency identifier
		}
		table[name] = importInfo{path: importPath, name: name}
	}
	return table
}
