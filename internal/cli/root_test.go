package cli

import (
	"io"
	"testing"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	if root.Use != "pinlabel" {
		t.Errorf("root.Use = %q, want %q", root.Use, "pinlabel")
	}

	want := map[string]bool{
		"layout":    false,
		"emphasize": false,
		"simulate":  false,
		"cache":     false,
	}
	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.SetLogLevel(LogDebug)
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}
