package alloy

// Deps is an identity helper: annotation source spells a dependency list
// as deps(A, B, Lazy(C, {...})) purely so it reads as a tuple next to the
// constructor it decorates. At runtime it returns its arguments
// unchanged; the scanner is what actually gives each argument meaning.
func Deps(items ...any) []any {
	return items
}

// AssertDeps documents, at the call site, which constructor a
// hand-written dependency thunk belongs to. The association it records is
// verified by the scanner reading annotation source, not by this
// function: at runtime AssertDeps is the identity on depsThunk.
func AssertDeps(depsThunk func() []any, target any) func() []any {
	return depsThunk
}
