package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchCmd_Use(t *testing.T) {
	assert.Equal(t, "watch [directory]", watchCmd.Use)
}

func TestWatchExtensions(t *testing.T) {
	assert.True(t, watchExtensions[".txt"])
	assert.True(t, watchExtensions[".md"])
	assert.False(t, watchExtensions[".pdf"])
}

func TestServeCmd_HasAddrFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("addr")
	assert.NotNil(t, flag)
}
