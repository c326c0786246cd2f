//go:build cmdai_debug

package main

import (
	"github.com/cmdai/cmdai/internal/backend"
	"github.com/cmdai/cmdai/internal/cli"
)

// init registers the deterministic mock backend under --backend=mock. Only
// compiled into builds tagged cmdai_debug; a release build never links
// backend.MockBackend in.
func init() {
	cli.RegisterDebugBackend("mock", backend.NewMockBackend("echo mock-generated-command"))
}
