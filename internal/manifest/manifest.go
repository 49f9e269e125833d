// Package manifest implements Component C: it validates and normalizes
// prebuilt-library descriptors into the models.DiscoveredService shape so
// codegen can treat local and ingested services identically.
package manifest

import (
	"strconv"
	"strings"

	compileerrors "github.com/alloy-di/alloy/internal/errors"
	"github.com/alloy-di/alloy/internal/models"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Ingested is the aggregated output of ingesting a batch of manifests.
type Ingested struct {
	Services    []models.DiscoveredService
	Providers   []string
	Diagnostics []string
}

// ParseYAML decodes one manifest document. Returns an error only on
// malformed YAML; schema violations are reported by Validate so the caller
// can choose to skip rather than abort (spec.md §4.C: manifests must not
// abort compilation).
func ParseYAML(data []byte) (*models.LibraryManifest, error) {
	var m models.LibraryManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks a manifest against the schema of spec.md §3. A missing
// SchemaVersion is tolerated and treated as 1 (forward/backward
// compatibility, per spec.md §3).
func Validate(m *models.LibraryManifest) error {
	if m.SchemaVersion == 0 {
		m.SchemaVersion = 1
	}
	return validate.Struct(m)
}

// Ingestor aggregates a sequence of manifests, skipping any that fail
// validation and recording a diagnostic for each one skipped.
type Ingestor struct {
	// existing is a snapshot of already-discovered services (typically the
	// local scan's output), used for best-match dependency resolution.
	existing []models.DiscoveredService
}

func NewIngestor(existing []models.DiscoveredService) *Ingestor {
	return &Ingestor{existing: existing}
}

// Ingest validates and materializes every manifest, skipping invalid ones
// per spec.md §4.C. A manifest that validates structurally but declares
// providers under a build mode that can't yield stable public subpath
// specifiers is a harder failure: spec.md §7's providers-require-
// preserve-modules is an abort, not a skip, since a provider wired
// against an unstable import path would silently break at runtime.
func (ig *Ingestor) Ingest(manifests []*models.LibraryManifest) (Ingested, error) {
	var result Ingested

	// The best-match resolver needs to see services materialized by
	// earlier manifests in this same batch too, so accumulate as we go.
	pool := append([]models.DiscoveredService{}, ig.existing...)

	for _, m := range manifests {
		if m == nil {
			continue
		}
		if err := Validate(m); err != nil {
			result.Diagnostics = append(result.Diagnostics, "skipped invalid manifest "+m.PackageName+": "+err.Error())
			continue
		}
		if len(m.Providers) > 0 && m.BuildMode != "preserve-modules" {
			return result, compileerrors.NewProvidersRequirePreserveModules(m.PackageName, m.BuildMode)
		}
		result.Diagnostics = append(result.Diagnostics, m.Diagnostics...)
		result.Providers = append(result.Providers, m.Providers...)

		for _, ms := range m.Services {
			svc := ig.materialize(m, ms, pool)
			result.Services = append(result.Services, svc)
			pool = append(pool, svc)
		}
	}

	return result, nil
}

func (ig *Ingestor) materialize(m *models.LibraryManifest, ms models.ManifestService, pool []models.DiscoveredService) models.DiscoveredService {
	scope := ms.Scope
	if scope == "" {
		scope = models.ScopeTransient
	}

	svc := models.DiscoveredService{
		ClassName:     ms.ExportName,
		FilePath:      ms.ImportPath,
		IdentifierKey: ms.SymbolKey,
		Metadata:      models.ServiceMetadata{Scope: scope},
		Origin:        models.OriginManifest,
	}

	for _, depName := range ms.Deps {
		className, importPath := ig.bestMatch(depName, ms.ImportPath, pool)
		svc.Metadata.Dependencies = append(svc.Metadata.Dependencies, models.DependencyDescriptor{
			Expression:            className,
			ReferencedIdentifiers: []string{className},
			TargetImportPath:      importPath,
			TargetExportName:      className,
		})
	}

	for _, td := range ms.TokenDeps {
		svc.Metadata.Dependencies = append(svc.Metadata.Dependencies, models.DependencyDescriptor{
			Expression:            td.ExportName,
			ReferencedIdentifiers: []string{td.ExportName},
			TargetImportPath:      td.ImportPath,
			TargetExportName:      td.ExportName,
			IsToken:               true,
		})
		svc.ReferencedImports = append(svc.ReferencedImports, models.ReferencedImport{
			LocalName:          td.ExportName,
			ModuleSpecifier:    td.ImportPath,
			OriginalExportName: td.ExportName,
		})
	}

	for _, dd := range ms.DeferredDeps {
		retry := dd.Retry
		if retry == nil {
			def := models.DefaultRetryPolicy()
			retry = &def
		}
		expr := reconstructLazyExpression(dd.ImportPath, dd.ExportName, retry)
		svc.Metadata.Dependencies = append(svc.Metadata.Dependencies, models.DependencyDescriptor{
			Expression:            expr,
			ReferencedIdentifiers: []string{dd.ExportName},
			IsDeferred:            true,
			Retry:                 retry,
			TargetImportPath:      dd.ImportPath,
			TargetExportName:      dd.ExportName,
		})
	}

	return svc
}

// bestMatch implements spec.md §4.C's disambiguation rule: exact unique
// match preferred; on ambiguity prefer a candidate sharing the manifest's
// import-path scope prefix; otherwise the first candidate; otherwise keep
// the bare name (the runtime will fail at resolution if it's truly
// missing). Returns the matched class name and its declaring import path,
// so the caller can populate DependencyDescriptor.TargetImportPath without
// a second lookup.
func (ig *Ingestor) bestMatch(name, scopePrefix string, pool []models.DiscoveredService) (className, importPath string) {
	var candidates []models.DiscoveredService
	for _, svc := range pool {
		if svc.ClassName == name {
			candidates = append(candidates, svc)
		}
	}
	switch len(candidates) {
	case 0:
		return name, ""
	case 1:
		return candidates[0].ClassName, candidates[0].FilePath
	default:
		for _, c := range candidates {
			if strings.HasPrefix(c.FilePath, scopePrefix) {
				return c.ClassName, c.FilePath
			}
		}
		return candidates[0].ClassName, candidates[0].FilePath
	}
}

func reconstructLazyExpression(importPath, exportName string, retry *models.RetryPolicy) string {
	return "Lazy(" + importPath + "." + exportName +
		", {retries: " + strconv.Itoa(retry.AttemptsAfterFirst) +
		", backoffMs: " + strconv.Itoa(retry.InitialBackoffMS) +
		", factor: " + strconv.FormatFloat(retry.Factor, 'g', -1, 64) + "})"
}
