package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFactory struct {
	tag       Tag
	envVar    string
	newCalled *int
}

func (s stubFactory) Tag() Tag             { return s.tag }
func (s stubFactory) CredentialEnvVar() string { return s.envVar }
func (s stubFactory) New(envLookup func(string) (string, bool)) (Adapter, error) {
	if s.newCalled != nil {
		*s.newCalled++
	}
	return nil, nil
}

func resetGlobalRegistry() {
	globalRegistry.mu.Lock()
	globalRegistry.factories = make(map[Tag]AdapterFactory)
	globalRegistry.mu.Unlock()
}

func TestRegisterRejectsNilAndEmptyTag(t *testing.T) {
	resetGlobalRegistry()
	defer resetGlobalRegistry()

	assert.Error(t, Register(nil))
	assert.Error(t, Register(stubFactory{tag: ""}))
}

func TestRegisterRejectsDuplicateTag(t *testing.T) {
	resetGlobalRegistry()
	defer resetGlobalRegistry()

	require.NoError(t, Register(stubFactory{tag: "dup-test"}))
	assert.Error(t, Register(stubFactory{tag: "dup-test"}))
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	resetGlobalRegistry()
	defer resetGlobalRegistry()

	MustRegister(stubFactory{tag: "panic-test"})
	assert.Panics(t, func() { MustRegister(stubFactory{tag: "panic-test"}) })
}

func TestRegisteredTagsIsSorted(t *testing.T) {
	resetGlobalRegistry()
	defer resetGlobalRegistry()

	require.NoError(t, Register(stubFactory{tag: "zzz"}))
	require.NoError(t, Register(stubFactory{tag: "aaa"}))

	tags := RegisteredTags()
	require.Len(t, tags, 2)
	assert.Equal(t, Tag("aaa"), tags[0])
	assert.Equal(t, Tag("zzz"), tags[1])
}
