package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_InfoCommands(t *testing.T) {
	assert.Equal(t, 0, Run([]string{"cybercase", "help"}))
	assert.Equal(t, 0, Run([]string{"cybercase", "--version"}))
}

func TestRun_ResetPasswordUsage(t *testing.T) {
	assert.Equal(t, 2, Run([]string{"cybercase", "reset-password", "admin"}))
}

func TestUsage_ListsCommands(t *testing.T) {
	u := usage()
	for _, want := range []string{"serve", "reset-password", "--port", "--bind", "CYBERCASE_CONFIG"} {
		assert.Contains(t, u, want)
	}
}
