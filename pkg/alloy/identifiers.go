package alloy

import (
	"fmt"
	"sync"
)

// Identifier is Alloy's stand-in for a JS `Symbol.for(description)`: two
// calls to SymbolFor with the same description return the same pointer,
// giving cross-package identity without a shared registration step.
type Identifier struct {
	Description string
}

var (
	symbolMu    sync.Mutex
	symbolTable = map[string]*Identifier{}
)

// SymbolFor interns an identifier by description, exactly mirroring
// Symbol.for's cross-module identity guarantee (spec.md §4.D step 8).
func SymbolFor(description string) *Identifier {
	symbolMu.Lock()
	defer symbolMu.Unlock()
	if id, ok := symbolTable[description]; ok {
		return id
	}
	id := &Identifier{Description: description}
	symbolTable[description] = id
	return id
}

// IdentifierRegistry is the constructor <-> identifier bijection of
// spec.md §3 / §4.E.3. It is process-wide by default (DefaultIdentifiers)
// but callers wanting a no-globals setup can construct their own.
type IdentifierRegistry struct {
	mu      sync.RWMutex
	toIdent map[*ServiceKey]*Identifier
	toKey   map[*Identifier]*ServiceKey
}

func NewIdentifierRegistry() *IdentifierRegistry {
	return &IdentifierRegistry{
		toIdent: map[*ServiceKey]*Identifier{},
		toKey:   map[*Identifier]*ServiceKey{},
	}
}

// DefaultIdentifiers is the process-wide identifier registry generated
// modules register into unless a Container is built with WithIdentifiers.
var DefaultIdentifiers = NewIdentifierRegistry()

// Register is idempotent per key: registering the same key twice returns
// the same identifier. An explicit identifier may be supplied once;
// reusing an explicit identifier already bound to a different key is
// fatal, matching spec.md's "rebinding is a fatal error" invariant.
func (r *IdentifierRegistry) Register(key *ServiceKey, explicit *Identifier) (*Identifier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.toIdent[key]; ok {
		return existing, nil
	}

	ident := explicit
	if ident == nil {
		ident = SymbolFor(key.IdentifierKey)
	}
	if boundKey, ok := r.toKey[ident]; ok && boundKey != key {
		return nil, fmt.Errorf("alloy: identifier %q is already bound to %s, cannot rebind to %s", ident.Description, boundKey, key)
	}

	r.toIdent[key] = ident
	r.toKey[ident] = key
	return ident, nil
}

// RegisterAlias binds an additional identifier to a key that has already
// gone through Register, without displacing the key's primary identifier
// (IdentifierOf still returns that one). This is how a service annotated
// with //alloy:interface becomes resolvable both under its own identity
// and under the interface's identity: two identifiers, one key.
func (r *IdentifierRegistry) RegisterAlias(key *ServiceKey, alias *Identifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if boundKey, ok := r.toKey[alias]; ok && boundKey != key {
		return fmt.Errorf("alloy: identifier %q is already bound to %s, cannot alias to %s", alias.Description, boundKey, key)
	}
	r.toKey[alias] = key
	return nil
}

// Lookup resolves an identifier to its constructor key.
func (r *IdentifierRegistry) Lookup(id *Identifier) (*ServiceKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.toKey[id]
	return key, ok
}

// IdentifierOf returns the identifier a key was registered under, if any.
func (r *IdentifierRegistry) IdentifierOf(key *ServiceKey) (*Identifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.toIdent[key]
	return id, ok
}

// Clear resets the registry; used by tests.
func (r *IdentifierRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toIdent = map[*ServiceKey]*Identifier{}
	r.toKey = map[*Identifier]*ServiceKey{}
}
