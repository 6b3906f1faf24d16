package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/saveplus/internal/config"
	"github.com/roach88/saveplus/internal/session"
)

func (o *RootOptions) fs() afero.Fs {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	return o.Fs
}

// loadConfig reads --config and applies --db on top.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.Database != "" {
		cfg.History.Path = o.Database
	}
	return cfg, nil
}

// newLogger builds the stderr logger: level from config, debug with
// --verbose, JSON lines when log.format is json.
func (o *RootOptions) newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// openSession loads config and opens the history session. Callers close it.
func (o *RootOptions) openSession(cmd *cobra.Command) (*session.Session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	opts := []session.Option{session.WithLogger(o.newLogger(cfg, cmd.ErrOrStderr()))}
	if o.Clock != nil {
		opts = append(opts, session.WithClock(o.Clock))
	}
	if o.IDs != nil {
		opts = append(opts, session.WithIDGenerator(o.IDs))
	}

	return session.Open(cfg, opts...)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// listDir returns the names in path's directory. A missing directory is an
// empty listing.
func listDir(fs afero.Fs, path string) ([]string, error) {
	entries, err := afero.ReadDir(fs, filepath.Dir(path))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// copyFile copies src to dst, refusing to overwrite dst.
func copyFile(fs afero.Fs, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = fs.Remove(dst)
		return err
	}
	return out.Close()
}
