package progress_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/safechecks/safechecks/pkg/progress"
)

func TestProgress_ForwardsSteps(t *testing.T) {
	var got []int
	p := progress.New("retry", 3, func(op string, current, total int, message string) {
		assert.Equal(t, "retry", op)
		assert.Equal(t, 3, total)
		got = append(got, current)
	})
	p.Increment("r1")
	p.Increment("r2")
	p.Done("")
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 3, p.Current())
}

func TestProgress_NilCallback(t *testing.T) {
	p := progress.New("retry", 1, nil)
	assert.NotPanics(t, func() { p.Increment("x") })
}

func TestTerminal_Render(t *testing.T) {
	var buf bytes.Buffer
	term := progress.NewTerminal(true)
	term.SetWriter(&buf)
	cb := term.Callback()

	cb("retry", 1, 2, "r1")
	assert.Contains(t, buf.String(), "retry [===============               ] 1/2 (50%) r1")

	cb("retry", 2, 2, "")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.Contains(t, buf.String(), "2/2 (100%)")
}

func TestTerminal_Disabled(t *testing.T) {
	var buf bytes.Buffer
	term := progress.NewTerminal(false)
	term.SetWriter(&buf)
	term.Callback()("retry", 1, 1, "")
	assert.Empty(t, buf.String())
}
