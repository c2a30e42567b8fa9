package provider

import (
	"fmt"
	"sort"
	"sync"
)

// registry mirrors ai.ProviderRegistry from the teacher framework: vendor
// packages self-register via init() so Router.Complete never hard-codes
// which adapters exist.
type registry struct {
	mu       sync.RWMutex
	factories map[Tag]AdapterFactory
}

var globalRegistry = &registry{factories: make(map[Tag]AdapterFactory)}

// Register adds a vendor factory. Called from adapter package init()s.
func Register(f AdapterFactory) error {
	if f == nil {
		return fmt.Errorf("provider: factory cannot be nil")
	}
	tag := f.Tag()
	if tag == "" {
		return fmt.Errorf("provider: factory.Tag() cannot be empty")
	}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.factories[tag]; exists {
		return fmt.Errorf("provider: %q already registered", tag)
	}
	globalRegistry.factories[tag] = f
	return nil
}

// MustRegister registers a factory and panics on error, for use in init().
func MustRegister(f AdapterFactory) {
	if err := Register(f); err != nil {
		panic(err)
	}
}

func getFactory(tag Tag) (AdapterFactory, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	f, ok := globalRegistry.factories[tag]
	return f, ok
}

// RegisteredTags lists every vendor tag with a registered factory, sorted.
func RegisteredTags() []Tag {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	tags := make([]Tag, 0, len(globalRegistry.factories))
	for t := range globalRegistry.factories {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
