package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/rawbin/pkg/api"
	"github.com/ssargent/rawbin/pkg/config"
	"github.com/ssargent/rawbin/pkg/di"
	"github.com/ssargent/rawbin/pkg/metrics"
	"github.com/ssargent/rawbin/pkg/rawcsv/rawcsvtest"
)

// resetFlags restores every flag of c and its subcommands to its default, so
// one test's flags do not leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the CLI with a fresh container and an isolated home
// directory, returning everything the commands printed.
func executeCommand(t *testing.T, setup func(*di.Container), args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	c := di.NewContainer()
	c.SetLogger(nil)
	if setup != nil {
		setup(c)
	}
	SetContainer(c)
	t.Cleanup(func() {
		_ = c.Close()
		SetContainer(nil)
	})

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	t.Run("exact match next to input", func(t *testing.T) {
		dir := t.TempDir()
		in := rawcsvtest.Default().WriteFile(t, dir, "subject01.csv")

		out, err := executeCommand(t, nil, "convert", "--timezone", "UTC", in)
		require.NoError(t, err, out)

		assert.FileExists(t, filepath.Join(dir, "subject01.bin"))
		assert.Contains(t, out, "400 written, 400 parsed, 400 expected")
		assert.Contains(t, out, "rate:     40 Hz")
		assert.Contains(t, out, "Elapsed time is")
		assert.NotContains(t, out, "warning")
	})

	t.Run("explicit output path", func(t *testing.T) {
		dir := t.TempDir()
		in := rawcsvtest.Default().WriteFile(t, dir, "subject01.csv")
		target := filepath.Join(dir, "nested", "custom.dat")

		out, err := executeCommand(t, nil, "convert", "--timezone", "UTC", in, target)
		require.NoError(t, err, out)

		stat, err := os.Stat(target)
		require.NoError(t, err)
		assert.Equal(t, int64(62+4800), stat.Size())
	})

	t.Run("truncated body warns", func(t *testing.T) {
		dir := t.TempDir()
		export := rawcsvtest.Default()
		export.Lines = 350
		in := export.WriteFile(t, dir, "short.csv")

		out, err := executeCommand(t, nil, "convert", "--timezone", "UTC", in)
		require.NoError(t, err, out)
		assert.Contains(t, out, "320 written, 350 parsed, 400 expected")
		assert.Contains(t, out, "duration: 8 s")
		assert.Contains(t, out, "warning:")
	})

	t.Run("malformed banner fails", func(t *testing.T) {
		dir := t.TempDir()
		export := rawcsvtest.Default()
		export.Banner = "garbage"
		in := export.WriteFile(t, dir, "bad.csv")

		out, err := executeCommand(t, nil, "convert", in)
		assert.Error(t, err)
		assert.Contains(t, out, "header parse error")
		assert.NoFileExists(t, filepath.Join(dir, "bad.bin"))
	})

	t.Run("bad timezone is rejected", func(t *testing.T) {
		dir := t.TempDir()
		in := rawcsvtest.Default().WriteFile(t, dir, "subject01.csv")

		_, err := executeCommand(t, nil, "convert", "--timezone", "Nowhere/Special", in)
		assert.Error(t, err)
		assert.NoFileExists(t, filepath.Join(dir, "subject01.bin"))
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := executeCommand(t, nil, "convert")
		assert.Error(t, err)
	})
}

func TestBatchCommand(t *testing.T) {
	t.Run("mixed directory", func(t *testing.T) {
		dir := t.TempDir()
		outDir := filepath.Join(t.TempDir(), "bin")
		bad := rawcsvtest.Default()
		bad.Banner = "garbage"

		rawcsvtest.Default().WriteFile(t, dir, "a.csv")
		rawcsvtest.Default().WriteFile(t, dir, "b.csv")
		bad.WriteFile(t, dir, "c.csv")
		rawcsvtest.Default().WriteFile(t, dir, ".hidden.csv")

		out, err := executeCommand(t, nil, "batch", "--timezone", "UTC", "--out-dir", outDir, "-w", "2", dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 4 files failed")

		assert.Contains(t, out, "2 converted (0 truncated), 1 skipped, 1 failed")
		assert.Contains(t, out, "skipped "+filepath.Join(dir, ".hidden.csv")+": hidden file")
		assert.FileExists(t, filepath.Join(outDir, "a.bin"))
		assert.FileExists(t, filepath.Join(outDir, "b.bin"))
		assert.NoFileExists(t, filepath.Join(outDir, "c.bin"))
	})

	t.Run("records to catalog", func(t *testing.T) {
		dir := t.TempDir()
		catalogDir := filepath.Join(t.TempDir(), "catalog")
		rawcsvtest.Default().WriteFile(t, dir, "a.csv")

		var ctr *di.Container
		out, err := executeCommand(t, func(c *di.Container) { ctr = c },
			"batch", "--timezone", "UTC", "--catalog", "--catalog-dir", catalogDir, dir)
		require.NoError(t, err, out)

		cat, err := ctr.Catalog()
		require.NoError(t, err)
		require.NotNil(t, cat)
		entries, err := cat.List(0)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "converted", entries[0].Status)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := executeCommand(t, nil, "batch", filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})
}

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	in := rawcsvtest.Default().WriteFile(t, dir, "subject01.csv")
	_, err := executeCommand(t, nil, "convert", "--timezone", "UTC", in)
	require.NoError(t, err)

	out, err := executeCommand(t, nil, "inspect", "-n", "2", filepath.Join(dir, "subject01.bin"))
	require.NoError(t, err, out)

	assert.Contains(t, out, "sample rate:      40 Hz")
	assert.Contains(t, out, "start:            2015-12-09T00:00:00Z")
	assert.Contains(t, out, "serial:           MOS2B21140207")
	assert.Contains(t, out, "payload:          4800 bytes (400 records)")
	assert.Contains(t, out, "     0   0.000")
	assert.Contains(t, out, "     1   0.001")
	assert.NotContains(t, out, "     2   0.002")

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corrupt.bin")
		require.NoError(t, os.WriteFile(path, []byte("not an artifact"), 0600))

		out, err := executeCommand(t, nil, "inspect", path)
		assert.Error(t, err)
		assert.Contains(t, out, "binary corrupt")
	})
}

type stubStarter struct {
	called  bool
	config  api.ServerConfig
	catalog api.Catalog
}

func (s *stubStarter) StartServer(_ context.Context, _ api.Converter, cat api.Catalog, _ *metrics.Metrics, cfg api.ServerConfig) error {
	s.called = true
	s.config = cfg
	s.catalog = cat
	return nil
}

type stubFactory struct{ starter *stubStarter }

func (f stubFactory) CreateServerStarter() api.ServerStarter { return f.starter }

func TestServeCommand(t *testing.T) {
	t.Run("generates a key", func(t *testing.T) {
		starter := &stubStarter{}
		out, err := executeCommand(t, func(c *di.Container) { c.SetServerFactory(stubFactory{starter}) },
			"serve", "--port", "9100")
		require.NoError(t, err, out)

		require.True(t, starter.called)
		assert.Equal(t, 9100, starter.config.Port)
		assert.Equal(t, "127.0.0.1", starter.config.Bind)
		assert.Len(t, starter.config.APIKey, 64)
		assert.Contains(t, out, starter.config.APIKey)
		assert.Nil(t, starter.catalog)
	})

	t.Run("explicit key and catalog", func(t *testing.T) {
		starter := &stubStarter{}
		catalogDir := filepath.Join(t.TempDir(), "catalog")
		out, err := executeCommand(t, func(c *di.Container) { c.SetServerFactory(stubFactory{starter}) },
			"serve", "--api-key", "secret", "--bind", "0.0.0.0", "--catalog", "--catalog-dir", catalogDir)
		require.NoError(t, err, out)

		assert.Equal(t, "secret", starter.config.APIKey)
		assert.Equal(t, "0.0.0.0", starter.config.Bind)
		assert.NotNil(t, starter.catalog)
		assert.NotContains(t, out, "Generated API key")
	})

	t.Run("invalid port", func(t *testing.T) {
		starter := &stubStarter{}
		_, err := executeCommand(t, func(c *di.Container) { c.SetServerFactory(stubFactory{starter}) },
			"serve", "--port", "70000")
		assert.Error(t, err)
		assert.False(t, starter.called)
	})
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rawbin.yaml")

	out, err := executeCommand(t, nil, "config", "init", "--config", path, "--output-dir", "/data/bin", "--print-keys")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Configuration created at "+path)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/bin", cfg.Output.Dir)
	assert.Len(t, cfg.Server.APIKey, 64)
	assert.Contains(t, out, cfg.Server.APIKey)

	_, err = executeCommand(t, nil, "config", "init", "--config", path)
	assert.Error(t, err, "existing config must not be overwritten without --force")

	_, err = executeCommand(t, nil, "config", "init", "--config", path, "--force")
	require.NoError(t, err)
	again, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.NotEqual(t, cfg.Server.APIKey, again.Server.APIKey)

	out, err = executeCommand(t, nil, "config", "show", "--config", path, "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "level: debug")
	assert.Contains(t, out, again.Server.APIKey)
}

func TestLoadConfig(t *testing.T) {
	t.Run("explicit missing file", func(t *testing.T) {
		_, err := executeCommand(t, nil, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "inspect", "x.bin")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "error loading config")
	})

	t.Run("settings from file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "rawbin.yaml")
		cfg := config.DefaultConfig()
		cfg.Input.Timezone = "UTC"
		cfg.Output.Extension = ".raw"
		require.NoError(t, config.SaveConfig(cfg, path))

		in := rawcsvtest.Default().WriteFile(t, dir, "subject01.csv")
		out, err := executeCommand(t, nil, "--config", path, "convert", in)
		require.NoError(t, err, out)
		assert.FileExists(t, filepath.Join(dir, "subject01.raw"))
	})
}
