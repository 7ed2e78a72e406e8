package app

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The hotkey library opens the display in its init function, so anything
// that may run headless must not link it.
func TestHeadlessPackagesDoNotLinkHotkey(t *testing.T) {
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go command not available")
	}

	for _, pkg := range []string{
		"github.com/emmett/affect/cmd/mcp",
		"github.com/emmett/affect/cmd/server",
		"github.com/emmett/affect/internal/app",
		"github.com/emmett/affect/internal/server/grpc",
		"github.com/emmett/affect/internal/server/mcp",
	} {
		t.Run(strings.TrimPrefix(pkg, "github.com/emmett/affect/"), func(t *testing.T) {
			out, err := exec.Command(goBin, "list", "-deps", pkg).CombinedOutput()
			require.NoError(t, err, string(out))
			assert.NotContains(t, string(out), "golang.design/x/hotkey")
		})
	}
}
