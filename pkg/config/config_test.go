package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/willbeason/nested-relations/pkg/config"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("max_layers: 3\nworkers: 4\nexclude_sentences: [681]\n"), 0o644)
	require.NoError(t, err)

	got, err := config.Load(path)
	require.NoError(t, err)

	want := config.Default()
	want.MaxLayers = 3
	want.Workers = 4
	want.ExcludeSentences = []int{681}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tcs := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"no layers", func(c *config.Config) { c.MaxLayers = 0 }},
		{"no entity tokens", func(c *config.Config) { c.MaxEntityTokens = 0 }},
		{"empty prefix", func(c *config.Config) { c.EntityPrefix = "" }},
		{"same prefixes", func(c *config.Config) { c.PredicatePrefix = c.EntityPrefix }},
		{"negative workers", func(c *config.Config) { c.Workers = -1 }},
	}

	require.NoError(t, config.Default().Validate())

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			c := config.Default()
			tc.mutate(&c)
			if err := c.Validate(); !errors.Is(err, config.ErrConfig) {
				t.Errorf("Validate() = %v, want ErrConfig", err)
			}
		})
	}
}

func TestWorkerCount(t *testing.T) {
	c := config.Default()
	if c.WorkerCount() < 1 {
		t.Errorf("WorkerCount() = %d, want at least 1", c.WorkerCount())
	}
	c.Workers = 3
	if c.WorkerCount() != 3 {
		t.Errorf("WorkerCount() = %d, want 3", c.WorkerCount())
	}
}
