// Package launcher locates and starts the viewer process.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"syscall"
)

// DataDirEnv overrides the data directory holding the viewer binary.
const DataDirEnv = "MONOCHROME_DATA_DIR"

// unitTestFlag makes the darwin launch bypass "open -a" so the process can
// be observed directly.
const unitTestFlag = "--unit-test-mode"

// ErrBinaryNotFound is returned when the viewer binary does not exist.
var ErrBinaryNotFound = errors.New("viewer binary not found")

// Launcher starts the viewer. Implementations must not block until the
// viewer exits.
type Launcher interface {
	Launch(ctx context.Context) error
}

// Func adapts a function to the Launcher interface.
type Func func(ctx context.Context) error

func (f Func) Launch(ctx context.Context) error { return f(ctx) }

// Config locates the viewer binary.
type Config struct {
	// BinaryPath is the viewer executable (or .app bundle on darwin).
	// When empty it is derived from DataDir.
	BinaryPath string
	// DataDir is the installed data directory. When empty, DataDirEnv is
	// consulted, then <executable dir>/../share/monochrome.
	DataDir string
	// GOOS selects the platform launch form. Defaults to runtime.GOOS.
	GOOS string
	// Env is appended to the inherited environment of the viewer.
	Env []string
}

// Viewer manages starting the viewer process with fixed options.
type Viewer struct {
	config  Config
	options Options
}

// New creates a viewer launcher.
func New(config Config, options Options) *Viewer {
	if config.GOOS == "" {
		config.GOOS = runtime.GOOS
	}
	return &Viewer{config: config, options: options}
}

// Binary returns the resolved viewer path.
func (v *Viewer) Binary() (string, error) {
	if v.config.BinaryPath != "" {
		return v.config.BinaryPath, nil
	}
	dir, err := v.dataDir()
	if err != nil {
		return "", err
	}
	switch v.config.GOOS {
	case "windows":
		return filepath.Join(dir, "bin", "Monochrome.exe"), nil
	case "darwin":
		return filepath.Join(dir, "Monochrome.app"), nil
	default:
		return filepath.Join(dir, "bin", "Monochrome"), nil
	}
}

func (v *Viewer) dataDir() (string, error) {
	if v.config.DataDir != "" {
		return v.config.DataDir, nil
	}
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate data directory: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "..", "share", "monochrome"), nil
}

// Command returns the program and arguments that start the viewer with
// the configured options followed by extra.
func (v *Viewer) Command(extra ...string) (string, []string, error) {
	bin, err := v.Binary()
	if err != nil {
		return "", nil, err
	}
	args := append(v.options.Args(), extra...)

	if v.config.GOOS == "darwin" {
		if slices.Contains(args, unitTestFlag) {
			return filepath.Join(bin, "Contents", "MacOS", "Monochrome"), args, nil
		}
		return "open", append([]string{"-a", bin, "--args"}, args...), nil
	}
	return bin, args, nil
}

func (v *Viewer) command(extra ...string) (*exec.Cmd, error) {
	name, args, err := v.Command(extra...)
	if err != nil {
		return nil, err
	}
	if name != "open" {
		if _, err := os.Stat(name); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrBinaryNotFound, name)
		}
	}
	cmd := exec.Command(name, args...)
	if len(v.config.Env) > 0 {
		cmd.Env = append(os.Environ(), v.config.Env...)
	}
	return cmd, nil
}

// Launch starts the viewer detached from the caller's session and returns
// without waiting for it. The process outlives ctx.
func (v *Viewer) Launch(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd, err := v.command()
	if err != nil {
		return err
	}
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start viewer: %w", err)
	}
	// The viewer is not our child to wait for.
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to release viewer process: %w", err)
	}
	return nil
}

// Result is the outcome of a foreground run.
type Result struct {
	ExitCode int
}

// Run starts the viewer in the foreground with extra arguments and waits
// for it to exit. Cancelling ctx kills the process.
func (v *Viewer) Run(ctx context.Context, stdout, stderr io.Writer, extra ...string) (*Result, error) {
	cmd, err := v.command(extra...)
	if err != nil {
		return nil, err
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start viewer: %w", err)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = cmd.Process.Kill()
		case <-done:
		}
	}()
	err = cmd.Wait()
	close(done)

	result := &Result{}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("viewer wait failed: %w", err)
		}
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			result.ExitCode = status.ExitStatus()
		} else {
			result.ExitCode = -1
		}
	}
	return result, nil
}

// Options are the viewer's command-line settings.
type Options struct {
	Speed      float64
	DisplayFPS int
	Scale      float64
	FlipH      bool
	FlipV      bool
	// Extra holds additional --key value flags in order.
	Extra []Flag
}

// Flag is one passthrough command-line flag. A Flag with IsBool set is
// emitted without a value and only when Bool is true.
type Flag struct {
	Key    string
	Value  string
	IsBool bool
	Bool   bool
}

// StringFlag returns a --key value flag.
func StringFlag(key, value string) Flag { return Flag{Key: key, Value: value} }

// BoolFlag returns a --key flag emitted when on is true.
func BoolFlag(key string, on bool) Flag { return Flag{Key: key, IsBool: true, Bool: on} }

// Args renders the options as viewer arguments. Zero-valued settings are
// omitted.
func (o Options) Args() []string {
	var args []string
	if o.Speed != 0 {
		args = append(args, "--speed", strconv.FormatFloat(o.Speed, 'g', -1, 64))
	}
	if o.DisplayFPS != 0 {
		args = append(args, "--display_fps", strconv.Itoa(o.DisplayFPS))
	}
	if o.Scale != 0 {
		args = append(args, "--scale", strconv.FormatFloat(o.Scale, 'g', -1, 64))
	}
	if o.FlipH {
		args = append(args, "--fliph")
	}
	if o.FlipV {
		args = append(args, "--flipv")
	}
	for _, f := range o.Extra {
		if f.IsBool {
			if f.Bool {
				args = append(args, "--"+f.Key)
			}
			continue
		}
		args = append(args, "--"+f.Key, f.Value)
	}
	return args
}

// Merge returns o with extra flags appended after defaults. Flags in
// override replace defaults with the same key.
func (o Options) Merge(override []Flag) Options {
	merged := make([]Flag, 0, len(o.Extra)+len(override))
	for _, f := range o.Extra {
		if !slices.ContainsFunc(override, func(x Flag) bool { return x.Key == f.Key }) {
			merged = append(merged, f)
		}
	}
	o.Extra = append(merged, override...)
	return o
}
