package sig

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds the signatures of all commands known to the parser. A
// Registry is safe for concurrent use, but must not be mutated while a
// parse that references it is in flight; callers register all signatures
// up front.
type Registry struct {
	mu       sync.RWMutex
	cmds     map[string]*Signature
	maxWords int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]*Signature)}
}

// Register adds a signature. Registering a name twice is an error; a
// command's signature never changes after registration.
func (r *Registry) Register(s *Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cmds[s.Name]; ok {
		return fmt.Errorf("command %q already registered", s.Name)
	}
	r.cmds[s.Name] = s
	if n := len(s.Words()); n > r.maxWords {
		r.maxWords = n
	}
	return nil
}

// MustRegister is like Register but panics on duplicate names. It is for
// registering builtin command sets at init time.
func (r *Registry) MustRegister(s *Signature) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Lookup finds a signature by its exact full name.
func (r *Registry) Lookup(name string) (*Signature, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.cmds[name]
	return s, ok
}

// LookupLongest matches the longest registered command name against the
// leading words, returning the signature and the number of words the name
// consumed. It returns (nil, 0) when no prefix of words is registered.
func (r *Registry) LookupLongest(words []string) (*Signature, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	max := r.maxWords
	if max > len(words) {
		max = len(words)
	}
	for n := max; n >= 1; n-- {
		if s, ok := r.cmds[strings.Join(words[:n], " ")]; ok {
			return s, n
		}
	}
	return nil, 0
}

// Names returns all registered command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
