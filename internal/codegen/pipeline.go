// Package codegen implements Component D: it reconciles local and ingested
// services, resolves identifier collisions, filters deferred-only
// references, and synthesizes the Go source of the virtual wiring package
// that populates pkg/alloy's process-wide registry at init time.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	compileerrors "github.com/alloy-di/alloy/internal/errors"
	"github.com/alloy-di/alloy/internal/models"
	"golang.org/x/tools/imports"
)

// Generate runs the full codegen algorithm and returns formatted Go source.
func Generate(in Input) (*Output, error) {
	active := computeActiveServices(in.Services, in.DeferredKeys)

	if err := detectDuplicates(active); err != nil {
		return nil, err
	}

	units := buildUnits(active, in.FactoryDeferred)
	unitsByKey := make(map[string]*unit, len(units))
	for i := range units {
		unitsByKey[units[i].svc.Key()] = &units[i]
	}

	im := newImportManager()
	for i := range units {
		u := &units[i]
		if u.svc.FilePath == in.PackageImportPath {
			continue
		}
		u.pkgAlias = im.Add(u.svc.FilePath, u.svc.ClassName)
	}

	// Tokens are minted once, here, as package-level vars: since one
	// Generate call produces the single project-wide wiring file, every
	// token dependency across every active service shares one identity
	// without needing cross-package interning.
	tokens := collectTokens(active)

	needsProviders := len(in.Providers) > 0

	var b strings.Builder
	writeHeader(&b, in.PackageName)
	writeImports(&b, in, im, units)
	writeTokenVars(&b, tokens)
	writeServiceKeyVars(&b, units)
	writeServiceIdentifiersType(&b, units)
	writeProviderVar(&b, in.Providers)
	writeInitFunc(&b, units, unitsByKey, needsProviders)

	// FormatOnly: the import block above is already deduplicated and
	// aliased by importManager, so this pass only needs gofmt-equivalent
	// formatting, not import-set inference (which would need a real build
	// context to resolve packages against).
	formatted, err := imports.Process("wiring_generated.go", []byte(b.String()), &imports.Options{FormatOnly: true, Comments: true, TabIndent: true, TabWidth: 8})
	if err != nil {
		return nil, fmt.Errorf("codegen: failed to format generated source: %w", err)
	}

	var ab strings.Builder
	writeAmbientFile(&ab, in, units)
	ambientFormatted, err := imports.Process("alloy_identifiers_gen.go", []byte(ab.String()), &imports.Options{FormatOnly: true, Comments: true, TabIndent: true, TabWidth: 8})
	if err != nil {
		return nil, fmt.Errorf("codegen: failed to format ambient declarations: %w", err)
	}

	identifiers := make(map[string]string, len(units))
	for _, u := range units {
		identifiers[u.fieldName] = u.varName
	}

	return &Output{Source: string(formatted), AmbientSource: string(ambientFormatted), Identifiers: identifiers}, nil
}

// computeActiveServices implements spec.md §4.D steps 1-2: services
// referenced only through a deferral are excluded from eager emission
// unless some other, still-active service also references them eagerly.
func computeActiveServices(services []models.DiscoveredService, deferredKeys map[models.DeferredKey]bool) []models.DiscoveredService {
	provisional := make([]models.DiscoveredService, 0, len(services))
	var excluded []models.DiscoveredService

	for _, svc := range services {
		key := models.ServiceDeferredKey(svc.FilePath, svc.ClassName)
		if deferredKeys[key] {
			excluded = append(excluded, svc)
			continue
		}
		provisional = append(provisional, svc)
	}

	eagerNames := map[string]bool{}
	for _, svc := range provisional {
		for _, dep := range svc.Metadata.Dependencies {
			if dep.IsDeferred || dep.IsToken {
				continue
			}
			if dep.TargetExportName != "" {
				eagerNames[dep.TargetExportName] = true
			}
		}
	}

	active := provisional
	for _, svc := range excluded {
		if eagerNames[svc.ClassName] {
			active = append(active, svc)
		}
	}
	return active
}

// detectDuplicates implements step 4: a class name discovered both locally
// and in an ingested manifest aborts codegen.
func detectDuplicates(active []models.DiscoveredService) error {
	byName := map[string][]models.DiscoveredService{}
	var names []string
	for _, svc := range active {
		if _, ok := byName[svc.ClassName]; !ok {
			names = append(names, svc.ClassName)
		}
		byName[svc.ClassName] = append(byName[svc.ClassName], svc)
	}
	sort.Strings(names)

	var agg compileerrors.MultipleErrors
	for _, name := range names {
		var localPaths, manifestPaths []string
		for _, svc := range byName[name] {
			switch svc.Origin {
			case models.OriginManifest:
				manifestPaths = append(manifestPaths, svc.FilePath)
			default:
				localPaths = append(localPaths, svc.FilePath)
			}
		}
		if len(localPaths) == 0 || len(manifestPaths) == 0 {
			continue
		}
		sort.Strings(localPaths)
		sort.Strings(manifestPaths)
		agg.Add(compileerrors.NewDuplicateRegistration(name, strings.Join(localPaths, ", "), strings.Join(manifestPaths, ", ")))
	}

	if agg.IsEmpty() {
		return nil
	}
	return &agg
}

// buildUnits implements step 5 (identifier-collision resolution) plus the
// step-3 factory-deferral augmentation, and sorts for deterministic
// emission order.
func buildUnits(active []models.DiscoveredService, factoryDeferred map[string]bool) []unit {
	countByName := map[string]int{}
	for _, svc := range active {
		countByName[svc.ClassName]++
	}

	units := make([]unit, 0, len(active))
	for _, svc := range active {
		name := svc.ClassName
		exportName := svc.ClassName
		if countByName[svc.ClassName] > 1 {
			h := shortHash(svc.FilePath)
			name = fmt.Sprintf("%s__%s", svc.ClassName, h)
			exportName = fmt.Sprintf("%s_%s", svc.ClassName, h)
		}

		isFactory := factoryDeferred[svc.IdentifierKey] || svc.Metadata.Factory != nil
		u := unit{
			svc:         svc,
			varName:     uncapitalize(name) + "Key",
			fieldName:   capitalize(exportName),
			factory:     isFactory,
			synthesized: svc.Synthesized,
		}
		if isFactory {
			u.realVarName = uncapitalize(name) + "RealKey"
		}
		if svc.InterfaceName != "" {
			u.ifaceFieldName = capitalize(svc.InterfaceName)
			u.ifaceIdentifierKey = fmt.Sprintf("alloy:%s#%s", svc.FilePath, svc.InterfaceName)
		}
		units = append(units, u)
	}

	sort.Slice(units, func(i, j int) bool {
		if units[i].svc.FilePath != units[j].svc.FilePath {
			return units[i].svc.FilePath < units[j].svc.FilePath
		}
		return units[i].svc.ClassName < units[j].svc.ClassName
	})
	return units
}

type tokenRef struct {
	exportName string
	varName    string
}

// collectTokens gathers one shared *alloy.Token var per distinct token
// export name so that consumer code importing the generated package can
// call Container.ProvideValue against the same identity the generated
// registrations reference. Identity is scoped by export name, not by the
// manifest's declaring import path: since one Generate call produces the
// whole project's wiring file, two manifests naming the same token export
// are assumed to mean the same external token.
func collectTokens(active []models.DiscoveredService) []tokenRef {
	seen := map[string]bool{}
	var out []tokenRef
	for _, svc := range active {
		for _, dep := range svc.Metadata.Dependencies {
			if !dep.IsToken || seen[dep.TargetExportName] {
				continue
			}
			seen[dep.TargetExportName] = true
			out = append(out, tokenRef{
				exportName: dep.TargetExportName,
				varName:    capitalize(dep.TargetExportName) + "Token",
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].exportName < out[j].exportName })
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func uncapitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
