package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeWithArgs(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func TestNoCommandIsAnError(t *testing.T) {
	err := executeWithArgs(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "up or down")
}

func TestUnknownCommandIsAnError(t *testing.T) {
	err := executeWithArgs(t, "status")
	require.Error(t, err)
}

func TestUpRejectsExtraArguments(t *testing.T) {
	err := executeWithArgs(t, "up", "extra")
	require.Error(t, err)
}

func TestCommandsAreRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range newRootCmd().Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["up"])
	assert.True(t, names["down"])
}
