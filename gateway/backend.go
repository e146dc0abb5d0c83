package gateway

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/watershed/errors"
	"github.com/kbukum/watershed/process"
	"github.com/kbukum/watershed/provider"
)

// Backend binds the gateway to one concrete toolbox. Init is the
// process-wide toolbox initialization and loads the algorithm catalog;
// Close releases whatever Init acquired.
type Backend interface {
	provider.RequestResponse[Invocation, Output]
	provider.Initializable
	provider.Closeable
	// Version is the toolbox version reported during Init.
	Version() string
	// Catalog is the set of native algorithms discovered during Init.
	Catalog() *Catalog
}

// Runner executes toolbox subprocesses. Backends accept one so tests can
// substitute canned results.
type Runner = provider.RequestResponse[process.Command, *process.Result]

var backends = provider.NewRegistry[Config, Backend]()

// RegisterBackend makes a backend selectable through Config.Backend.
func RegisterBackend(name string, factory provider.Factory[Config, Backend]) {
	backends.RegisterFactory(name, factory)
}

// Backends lists the registered backend names.
func Backends() []string {
	return backends.List()
}

// NewBackend creates the backend named in cfg.
func NewBackend(cfg Config) (Backend, error) {
	b, err := backends.Create(cfg.Backend, cfg)
	if err != nil {
		return nil, errors.InvalidInput("toolbox.backend", err.Error())
	}
	return b, nil
}

// Catalog is the set of algorithm names a toolbox advertises.
type Catalog struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

// NewCatalog builds a catalog from native algorithm names.
func NewCatalog(names ...string) *Catalog {
	c := &Catalog{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		c.Add(n)
	}
	return c
}

// Add records a native name. Matching is case-insensitive.
func (c *Catalog) Add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[strings.ToLower(name)] = struct{}{}
}

// Has reports whether the toolbox advertises name.
func (c *Catalog) Has(name string) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.names[strings.ToLower(name)]
	return ok
}

// Len returns the number of advertised algorithms.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Names returns the advertised names, sorted.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.names))
	for n := range c.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// RunError maps a failed toolbox subprocess to the gateway taxonomy. A
// missing binary makes the toolbox unavailable; a non-zero exit is an
// execution failure carrying the last lines the tool printed. Context
// errors pass through so the caller can classify them.
func RunError(toolbox string, alg AlgorithmID, err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return err
	}
	if stderrors.Is(err, process.ErrBinaryNotFound) {
		return errors.ToolboxUnavailable(toolbox, err.Error()).WithCause(err)
	}
	var exitErr *process.ExitError
	if stderrors.As(err, &exitErr) {
		return errors.AlgorithmExecutionFailed(string(alg), exitErr.Result.Diagnostic(5), err)
	}
	return errors.AlgorithmExecutionFailed(string(alg), "", err)
}

// MergeEnv prepends defaults to configured env entries so configuration wins.
func MergeEnv(defaults []string, configured []string) []string {
	out := make([]string, 0, len(defaults)+len(configured))
	out = append(out, defaults...)
	return append(out, configured...)
}
