package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() {
		SetVersion("dev")
	})

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gsuite version 1.2.3")
}

func TestVersionIgnoresEmpty(t *testing.T) {
	SetVersion("1.2.3")
	SetVersion("")
	t.Cleanup(func() {
		SetVersion("dev")
	})

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "gsuite version 1.2.3")
}
