package output

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriters(t *testing.T) {
	var out, errOut bytes.Buffer
	SetWriters(&out, &errOut)
	t.Cleanup(func() { SetWriters(os.Stdout, os.Stderr) })

	Printf("case %s\n", "CYB-2026-0001")
	Println("done")
	Errorf("failed: %d\n", 2)

	assert.Equal(t, "case CYB-2026-0001\ndone\n", out.String())
	assert.Equal(t, "failed: 2\n", errOut.String())
}

func TestColorize(t *testing.T) {
	prev := ColorEnabled()
	t.Cleanup(func() { SetColor(prev) })

	SetColor(false)
	assert.Equal(t, "ok", Colorize("success", "ok"))

	SetColor(true)
	assert.Equal(t, "\x1b[1;32mok\x1b[0m", Colorize("success", "ok"))
	assert.Equal(t, "plain", Colorize("unknown", "plain"))
}
