package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorBuilder(t *testing.T) {
	t.Parallel()

	base := NewStd("connection refused")
	err := New(base).
		Component("datastore").
		Category(CategoryDatabase).
		Context("operation", "insert").
		Build()

	assert.Equal(t, "connection refused", err.Error())
	assert.Equal(t, "datastore", err.Component)
	assert.Equal(t, CategoryDatabase, err.Category)
	assert.Equal(t, "insert", err.GetContext()["operation"])
	assert.ErrorIs(t, err, base)
}

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	err := Newf("something went wrong").Build()

	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
	assert.WithinDuration(t, time.Now(), err.Timestamp, time.Second)
}

func TestPriorityValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		priority string
		want     string
	}{
		{"valid low", PriorityLow, PriorityLow},
		{"valid critical", PriorityCritical, PriorityCritical},
		{"invalid falls back to medium", "urgent", PriorityMedium},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Newf("test").Priority(tt.priority).Build()
			assert.Equal(t, tt.want, err.Priority)
		})
	}
}

func TestCategoryPredicates(t *testing.T) {
	t.Parallel()

	notFound := Newf("species not found").Category(CategoryNotFound).Build()
	conflict := Newf("duplicate label").Category(CategoryConflict).Build()
	validation := ValidationError("name is required")

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsNotFound(conflict))
	assert.True(t, IsConflict(conflict))
	assert.True(t, IsValidation(validation))
	assert.False(t, IsValidation(notFound))
}

func TestPredicatesThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := Newf("no record for label").Category(CategoryNotFound).Build()
	wrapped := fmt.Errorf("lookup failed: %w", inner)

	require.True(t, IsNotFound(wrapped))

	var ee *EnhancedError
	require.True(t, As(wrapped, &ee))
	assert.Equal(t, CategoryNotFound, ee.Category)
}

func TestContextCopyIsolation(t *testing.T) {
	t.Parallel()

	err := Newf("test").Context("key", "value").Build()
	ctx := err.GetContext()
	ctx["key"] = "mutated"

	assert.Equal(t, "value", err.GetContext()["key"])
}
