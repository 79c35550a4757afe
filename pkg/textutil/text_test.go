package textutil_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/textutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	assert.Equal(t, "Head Chef", textutil.Clean("  Head \t  Chef\n"))
	assert.Equal(t, "Walk-in", textutil.Clean("Walk\x00-in"))
	// decomposed e + combining acute becomes the precomposed form
	assert.Equal(t, "Caf\u00e9", textutil.Clean("Cafe\u0301"))
}

func TestValidateLabel(t *testing.T) {
	got, err := textutil.ValidateLabel("location", "  Fridge 1 (Main) ")
	require.NoError(t, err)
	assert.Equal(t, "Fridge 1 (Main)", got)

	_, err = textutil.ValidateLabel("location", "   ")
	assert.True(t, errors.Is(err, errclass.ErrValidation))

	_, err = textutil.ValidateLabel("location", strings.Repeat("x", textutil.MaxLabelLen+1))
	assert.True(t, errors.Is(err, errclass.ErrValidation))
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, textutil.ValidateID("kt1"))
	assert.NoError(t, textutil.ValidateID("sh_o1"))
	assert.Error(t, textutil.ValidateID(""))
	assert.Error(t, textutil.ValidateID("a b"))
	assert.Error(t, textutil.ValidateID("../x"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, textutil.ContainsFold("Display Fridge (FOH)", "fridge", "display"))
	assert.False(t, textutil.ContainsFold("Ice Machine", "fridge", "freezer"))
}
