package codegen

import (
	"fmt"
	"strings"

	"github.com/alloy-di/alloy/internal/models"
)

func writeHeader(b *strings.Builder, packageName string) {
	b.WriteString("// Code generated by the alloy compiler. DO NOT EDIT.\n\n")
	fmt.Fprintf(b, "package %s\n\n", packageName)
}

// writeImports emits the runtime import, every deduplicated dependency
// import, and one aliased import per provider module. Unlike the
// specification's host language, Go needs no separate conditional import
// for "the Lazy helper" or "the identifier-registration function" — both
// are ordinary methods on the already-imported runtime package.
func writeImports(b *strings.Builder, in Input, im *importManager, units []unit) {
	b.WriteString("import (\n")
	fmt.Fprintf(b, "\talloy %q\n", in.RuntimeImport)
	if needsZap(units) {
		b.WriteString("\t\"go.uber.org/zap\"\n")
	}
	for _, e := range im.Entries() {
		fmt.Fprintf(b, "\t%s %q\n", e.alias, e.path)
	}
	for i, p := range in.Providers {
		fmt.Fprintf(b, "\tproviders_%d %q\n", i, p.ImportPath)
	}
	b.WriteString(")\n\n")
}

func needsZap(units []unit) bool {
	for _, u := range units {
		if u.synthesized == models.SynthesizedZapLogger {
			return true
		}
	}
	return false
}

func writeTokenVars(b *strings.Builder, tokens []tokenRef) {
	if len(tokens) == 0 {
		return
	}
	b.WriteString("var (\n")
	for _, t := range tokens {
		fmt.Fprintf(b, "\t%s = alloy.CreateToken(%q)\n", t.varName, t.exportName)
	}
	b.WriteString(")\n\n")
}

func writeServiceKeyVars(b *strings.Builder, units []unit) {
	b.WriteString("var (\n")
	for _, u := range units {
		if u.factory {
			// The public identity is a placeholder: it participates in the
			// registry and identifier registration like any other service,
			// but resolving it directly (not through its identifier) warns,
			// and constructing it without a real key registered is fatal.
			fmt.Fprintf(b, "\t%s = alloy.NewPlaceholderKey(%q, %q)\n", u.varName, u.svc.ClassName, u.svc.IdentifierKey)
			realIdentifierKey := u.svc.IdentifierKey + "#real"
			fmt.Fprintf(b, "\t%s = alloy.NewServiceKey(%q, %q)\n", u.realVarName, u.svc.ClassName+"Real", realIdentifierKey)
			continue
		}
		fmt.Fprintf(b, "\t%s = alloy.NewServiceKey(%q, %q)\n", u.varName, u.svc.ClassName, u.svc.IdentifierKey)
	}
	b.WriteString(")\n\n")
}

func writeServiceIdentifiersType(b *strings.Builder, units []unit) {
	b.WriteString("// ServiceIdentifiers exposes every active service's stable identifier,\n")
	b.WriteString("// keyed the same way generated identifier-registration code populated it.\n")
	b.WriteString("type ServiceIdentifiers struct {\n")
	for _, u := range units {
		fmt.Fprintf(b, "\t%s *alloy.Identifier\n", u.fieldName)
		if u.ifaceFieldName != "" {
			fmt.Fprintf(b, "\t%s *alloy.Identifier // alias of %s, bound via //alloy:interface\n", u.ifaceFieldName, u.fieldName)
		}
	}
	b.WriteString("}\n\n")
	b.WriteString("var Identifiers ServiceIdentifiers\n\n")
}

// writeAmbientFile emits the companion declarations file: the process-wide
// Container plus one *alloy.ServiceKey per active service under
// ServiceSymbols. Go has no separate ambient-declaration file concept the
// way a TypeScript bundler does, so this is the direct structural
// equivalent, sharing the same units the primary file was built from.
func writeAmbientFile(b *strings.Builder, in Input, units []unit) {
	writeHeader(b, in.PackageName)
	fmt.Fprintf(b, "import alloy %q\n\n", in.RuntimeImport)

	b.WriteString("// Container is the process-wide resolution graph this package's init\n")
	b.WriteString("// function registers every generated service against.\n")
	b.WriteString("var Container = alloy.New()\n\n")

	if len(units) == 0 {
		return
	}

	b.WriteString("// ServiceSymbols exposes one *alloy.ServiceKey per active service, so\n")
	b.WriteString("// consumer code can reference a service's identity directly instead of\n")
	b.WriteString("// importing the registry internals that minted it.\n")
	b.WriteString("var ServiceSymbols = struct {\n")
	for _, u := range units {
		fmt.Fprintf(b, "\t%s *alloy.ServiceKey\n", u.fieldName)
	}
	b.WriteString("}{\n")
	for _, u := range units {
		fmt.Fprintf(b, "\t%s: %s,\n", u.fieldName, u.varName)
	}
	b.WriteString("}\n")
}

func writeProviderVar(b *strings.Builder, mods []ProviderModule) {
	if len(mods) == 0 {
		return
	}
	b.WriteString("func collectProviders() []alloy.Provider {\n")
	b.WriteString("\tvar out []alloy.Provider\n")
	for i, p := range mods {
		fmt.Fprintf(b, "\tout = append(out, providers_%d.%s()...)\n", i, p.FuncName)
	}
	b.WriteString("\treturn out\n")
	b.WriteString("}\n\n")
}

func writeInitFunc(b *strings.Builder, units []unit, unitsByKey map[string]*unit, needsProviders bool) {
	b.WriteString("func init() {\n")

	for _, u := range units {
		writeRegistration(b, u, unitsByKey)
	}

	for _, u := range units {
		fmt.Fprintf(b, "\tif id, err := alloy.DefaultIdentifiers.Register(%s, nil); err != nil {\n", u.varName)
		b.WriteString("\t\tpanic(err)\n")
		b.WriteString("\t} else {\n")
		fmt.Fprintf(b, "\t\tIdentifiers.%s = id\n", u.fieldName)
		b.WriteString("\t}\n")
		if u.ifaceFieldName != "" {
			fmt.Fprintf(b, "\tIdentifiers.%s = alloy.SymbolFor(%q)\n", u.ifaceFieldName, u.ifaceIdentifierKey)
			fmt.Fprintf(b, "\tif err := alloy.DefaultIdentifiers.RegisterAlias(%s, Identifiers.%s); err != nil {\n", u.varName, u.ifaceFieldName)
			b.WriteString("\t\tpanic(err)\n")
			b.WriteString("\t}\n")
		}
	}

	if needsProviders {
		b.WriteString("\tif err := alloy.ApplyProviders(alloy.New(), collectProviders()); err != nil {\n")
		b.WriteString("\t\tpanic(err)\n")
		b.WriteString("\t}\n")
	}

	b.WriteString("}\n")
}

func writeRegistration(b *strings.Builder, u unit, unitsByKey map[string]*unit) {
	scope := "alloy.Transient"
	if u.svc.Metadata.Scope == models.ScopeSingleton {
		scope = "alloy.Singleton"
	}

	if u.synthesized == models.SynthesizedZapLogger {
		fmt.Fprintf(b, "\talloy.DefaultRegistry.Register(%s, alloy.RegistryEntry{\n", u.varName)
		fmt.Fprintf(b, "\t\tScope: %s,\n", scope)
		b.WriteString("\t\tNew: func(args []any) (any, error) { return zap.NewProduction() },\n")
		b.WriteString("\t})\n")
		return
	}

	ctorRef := constructorRef(u)

	if u.factory {
		retry := "alloy.DefaultRetryPolicy()"
		fmt.Fprintf(b, "\talloy.DefaultRegistry.Register(%s, alloy.RegistryEntry{\n", u.varName)
		fmt.Fprintf(b, "\t\tScope: %s,\n", scope)
		b.WriteString("\t\tFactory: &alloy.Deferred{\n")
		fmt.Fprintf(b, "\t\t\tImport: func() (*alloy.ServiceKey, error) { return %s, nil },\n", u.realVarName)
		fmt.Fprintf(b, "\t\t\tRetry:  %s,\n", retry)
		b.WriteString("\t\t},\n")
		b.WriteString("\t})\n")

		fmt.Fprintf(b, "\talloy.DefaultRegistry.Register(%s, alloy.RegistryEntry{\n", u.realVarName)
		fmt.Fprintf(b, "\t\tScope: %s,\n", scope)
		writeDependenciesThunk(b, u, unitsByKey)
		fmt.Fprintf(b, "\t\tNew: func(args []any) (any, error) { return alloy.CallConstructor(%s, args) },\n", ctorRef)
		b.WriteString("\t})\n")
		return
	}

	fmt.Fprintf(b, "\talloy.DefaultRegistry.Register(%s, alloy.RegistryEntry{\n", u.varName)
	fmt.Fprintf(b, "\t\tScope: %s,\n", scope)
	writeDependenciesThunk(b, u, unitsByKey)
	fmt.Fprintf(b, "\t\tNew: func(args []any) (any, error) { return alloy.CallConstructor(%s, args) },\n", ctorRef)
	b.WriteString("\t})\n")
}

func constructorRef(u unit) string {
	if u.pkgAlias == "" {
		return fmt.Sprintf("New%s", u.svc.ClassName)
	}
	return fmt.Sprintf("%s.New%s", u.pkgAlias, u.svc.ClassName)
}

func writeDependenciesThunk(b *strings.Builder, u unit, unitsByKey map[string]*unit) {
	deps := u.svc.Metadata.Dependencies
	if len(deps) == 0 {
		return
	}
	b.WriteString("\t\tDependenciesThunk: func() []alloy.Dependency {\n")
	b.WriteString("\t\t\treturn []alloy.Dependency{\n")
	for _, dep := range deps {
		b.WriteString("\t\t\t\t")
		writeDependencyLiteral(b, dep, u, unitsByKey)
		b.WriteString(",\n")
	}
	b.WriteString("\t\t\t}\n")
	b.WriteString("\t\t},\n")
}

func writeDependencyLiteral(b *strings.Builder, dep models.DependencyDescriptor, declaring unit, unitsByKey map[string]*unit) {
	if dep.IsToken {
		varName := capitalize(dep.TargetExportName) + "Token"
		fmt.Fprintf(b, "alloy.Dependency{Kind: alloy.KindToken, Token: %s}", varName)
		return
	}

	importPath := dep.TargetImportPath
	if importPath == "" {
		importPath = declaring.svc.FilePath
	}
	target, ok := unitsByKey[importPath+"#"+dep.TargetExportName]
	if !ok {
		fmt.Fprintf(b, "alloy.Dependency{Kind: alloy.KindInvalid, InvalidValue: %q}", dep.Expression)
		return
	}

	if dep.IsDeferred {
		retry := "alloy.DefaultRetryPolicy()"
		if dep.Retry != nil {
			retry = fmt.Sprintf("alloy.RetryPolicy{AttemptsAfterFirst: %d, InitialBackoffMS: %d, Factor: %v}",
				dep.Retry.AttemptsAfterFirst, dep.Retry.InitialBackoffMS, dep.Retry.Factor)
		}
		fmt.Fprintf(b, "alloy.Dependency{Kind: alloy.KindDeferred, Deferred: &alloy.Deferred{Import: func() (*alloy.ServiceKey, error) { return %s, nil }, Retry: %s}}",
			target.varName, retry)
		return
	}

	fmt.Fprintf(b, "alloy.Dependency{Kind: alloy.KindConstructor, Target: %s}", target.varName)
}
