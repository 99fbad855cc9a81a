package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandConfigFlag(t *testing.T) {
	file := filepath.Join(t.TempDir(), "billing.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: 9090\n"), 0644))

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "explicit file", args: []string{"--config", file}, want: file},
		{name: "short flag", args: []string{"-c", file}, want: file},
		{name: "explicit missing file", args: []string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}, wantErr: true},
		{name: "unknown argument", args: []string{"extra"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			called := false
			cmd := newRootCommand(func(_ context.Context, path string) error {
				called = true
				got = path
				return nil
			})
			cmd.SetArgs(tt.args)

			err := cmd.ExecuteContext(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, called)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveConfigPathDefaultMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.yaml")

	path, err := resolveConfigPath(missing, false)
	require.NoError(t, err)
	assert.Empty(t, path, "absent default file falls back to defaults")

	_, err = resolveConfigPath(missing, true)
	assert.Error(t, err)
}
