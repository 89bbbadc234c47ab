package main

import (
	"testing"

	"github.com/dpw/go-genl/genl"
	"github.com/stretchr/testify/require"
)

func TestFamilyHelp(t *testing.T) {
	require.Contains(t, cmdFamily.Long, "missing attribute")
}

func TestParseInterfaceIndex(t *testing.T) {
	index, err := parseInterface("13")
	require.NoError(t, err)
	require.Equal(t, genl.InterfaceIndex(13), index)

	_, err = parseInterface("no-such-interface0")
	require.Error(t, err)
}
