package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mthomas46/Hackathon-sub022/internal/infrastructure/logging"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	return NewRegistry(map[string]BreakerConfig{
		"doc-store":    {Criticality: CriticalityCritical},
		"prompt-store": {Criticality: CriticalityStandard},
	}, logging.NewNop())
}

func TestRegistryPrePopulates(t *testing.T) {
	registry := newTestRegistry(t)

	require.NotNil(t, registry.Get("doc-store"))
	require.NotNil(t, registry.Get("prompt-store"))
	assert.Nil(t, registry.Get("unknown"))
}

func TestRegistryCriticalityDefaults(t *testing.T) {
	registry := newTestRegistry(t)

	critical := registry.Get("doc-store").Status()
	assert.Equal(t, uint32(3), critical.FailureThreshold)
	assert.Equal(t, 60.0, critical.RecoveryTimeout)

	standard := registry.Get("prompt-store").Status()
	assert.Equal(t, uint32(5), standard.FailureThreshold)
	assert.Equal(t, 30.0, standard.RecoveryTimeout)
}

func TestRegistryConfigOverridesDefaults(t *testing.T) {
	registry := NewRegistry(map[string]BreakerConfig{
		"analyzer": {
			Criticality:      CriticalityStandard,
			FailureThreshold: 7,
			SuccessThreshold: 3,
			RecoveryTimeout:  10 * time.Second,
		},
	}, logging.NewNop())

	status := registry.Get("analyzer").Status()
	assert.Equal(t, uint32(7), status.FailureThreshold)
	assert.Equal(t, uint32(3), status.SuccessThreshold)
	assert.Equal(t, 10.0, status.RecoveryTimeout)
}

func TestRegistryExecuteWithBreaker(t *testing.T) {
	registry := newTestRegistry(t)

	result, err := registry.ExecuteWithBreaker("doc-store", succeedingCall)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	// Unknown service is a configuration error, not a breaker failure
	_, err = registry.ExecuteWithBreaker("unknown", succeedingCall)
	require.Error(t, err)
	assert.False(t, IsOpenError(err))
}

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	registry := newTestRegistry(t)

	first := registry.Register("analyzer", BreakerConfig{Criticality: CriticalityStandard})
	second := registry.Register("analyzer", BreakerConfig{Criticality: CriticalityCritical})

	assert.Same(t, first, second)
}

func TestRegistryAllStatus(t *testing.T) {
	registry := newTestRegistry(t)

	for i := 0; i < 3; i++ {
		_, _ = registry.ExecuteWithBreaker("doc-store", failingCall)
	}

	statuses := registry.AllStatus()
	require.Len(t, statuses, 2)
	assert.Equal(t, "open", statuses["doc-store"].State)
	assert.Equal(t, "closed", statuses["prompt-store"].State)
}

func TestRegistryReset(t *testing.T) {
	registry := newTestRegistry(t)

	for i := 0; i < 3; i++ {
		_, _ = registry.ExecuteWithBreaker("doc-store", failingCall)
	}
	require.Equal(t, StateOpen, registry.Get("doc-store").State())

	assert.True(t, registry.Reset("doc-store"))
	assert.Equal(t, StateClosed, registry.Get("doc-store").State())
	assert.False(t, registry.Reset("unknown"))
}

func TestRegistryResetAll(t *testing.T) {
	registry := newTestRegistry(t)

	for i := 0; i < 5; i++ {
		_, _ = registry.ExecuteWithBreaker("prompt-store", failingCall)
	}

	results := registry.ResetAll()
	assert.Equal(t, map[string]bool{"doc-store": true, "prompt-store": true}, results)

	for name := range results {
		assert.Equal(t, StateClosed, registry.Get(name).State())
	}
}

func TestRegistryStateChangeHook(t *testing.T) {
	var events []string

	registry := NewRegistry(map[string]BreakerConfig{
		"doc-store": {Criticality: CriticalityCritical},
	}, logging.NewNop(), WithStateChangeHook(func(name string, from, to State) {
		events = append(events, name+":"+to.String())
	}))

	for i := 0; i < 3; i++ {
		_, _ = registry.ExecuteWithBreaker("doc-store", failingCall)
	}

	assert.Equal(t, []string{"doc-store:open"}, events)
}
