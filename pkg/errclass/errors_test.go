package errclass_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodedError_Error(t *testing.T) {
	err := errclass.ErrValidation.WithMessage("staff name is required")
	assert.Equal(t, "E_VALIDATION: staff name is required", err.Error())
	assert.Equal(t, "E_TRANSPORT", errclass.ErrTransport.Error())
}

func TestCodedError_Is(t *testing.T) {
	err := errclass.ErrTransport.WithMessagef("http %d", 502)
	require.True(t, errors.Is(err, errclass.ErrTransport))
	require.False(t, errors.Is(err, errclass.ErrRemote))
}

func TestCodedError_IsThroughWrap(t *testing.T) {
	err := fmt.Errorf("push record: %w", errclass.ErrNotConfigured.WithMessage("no endpoint"))
	assert.True(t, errors.Is(err, errclass.ErrNotConfigured))
}

func TestAll_UniqueCodes(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range errclass.All() {
		assert.False(t, seen[e.Code], "duplicate code %s", e.Code)
		seen[e.Code] = true
	}
	assert.Len(t, seen, 10)
}
