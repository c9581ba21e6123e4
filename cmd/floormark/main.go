package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/floormark/internal/config"
	"github.com/example/floormark/internal/export"
	"github.com/example/floormark/internal/ingest"
	"github.com/example/floormark/internal/notify"
	"github.com/example/floormark/internal/render"
	"github.com/example/floormark/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs           *flag.FlagSet
	program      string
	config       *config.Config
	notifier     *notify.Notifier
	log          *slog.Logger
	stderr       io.Writer
	exportAlerts bool
	copyAlerts   bool
	verbose      bool
	logFormat    string
	themeName    string
	activeTheme  *theme.Theme
	composer     *render.Composer
}

func (r *root) Program() string {
	return r.program
}

func (r *root) subcommand(name string) *root {
	program := strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
	return &root{
		program:      program,
		config:       r.config,
		notifier:     r.notifier,
		log:          r.log,
		stderr:       r.stderr,
		exportAlerts: r.exportAlerts,
		copyAlerts:   r.copyAlerts,
		verbose:      r.verbose,
		logFormat:    r.logFormat,
		themeName:    r.themeName,
		activeTheme:  r.activeTheme,
		composer:     r.composer,
	}
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:      flag.NewFlagSet("floormark", flag.ExitOnError),
		program: "floormark",
		config:  cfg,
		stderr:  os.Stderr,
	}
	r.fs.BoolVar(&r.exportAlerts, "notify-export", cfg.Notify.Export, "show a desktop notification after exporting a plan")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	r.fs.BoolVar(&r.verbose, "v", false, "log debug messages")
	r.fs.StringVar(&r.logFormat, "log-format", "text", "log output format (text, json)")

	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "color theme for the annotation window ("+strings.Join(theme.Names(), ", ")+")")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	r.setup()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "annotate":
		cmd, err = parseAnnotateCmd(subArgs, r.subcommand(cmdName))
	case "serve":
		cmd, err = parseServeCmd(subArgs, r.subcommand(cmdName))
	case "render":
		cmd, err = parseRenderCmd(subArgs, r.subcommand(cmdName))
	case "interactive":
		cmd, err = parseInteractiveCmd(subArgs, r.subcommand(cmdName))
	case "config":
		cmd, err = parseConfigCmd(subArgs, r.subcommand(cmdName))
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// setup builds the logger, notifier, theme and composer shared by every
// subcommand.
func (r *root) setup() {
	if r.log == nil {
		r.log = newLogger(r.stderr, r.verbose, r.logFormat)
	}
	if r.notifier == nil {
		r.notifier = notify.New(notify.LoadPreferences(os.Getenv), r.log)
	}
	r.notifier.Enable(notify.EventExport, r.exportAlerts)
	r.notifier.Enable(notify.EventCopy, r.copyAlerts)

	themeName := r.themeName
	if themeName == "" {
		themeName = r.config.Theme
	}
	if t, ok := r.config.Themes[themeName]; ok {
		r.activeTheme = t
	} else {
		t, err := theme.NewLoader().Load(themeName)
		if err != nil {
			if themeName != "" && themeName != "default" {
				r.log.Warn("failed to load theme, using default", "theme", themeName, "error", err)
			}
			t = theme.Default()
		}
		r.activeTheme = t
	}

	if r.composer == nil {
		fonts := render.NewFontSet(r.config.Fonts.Files, r.config.Fonts.Dirs)
		fonts.Log = r.log
		r.composer = render.NewComposer(r.config.Palette(), fonts)
	}
}

func newLogger(w io.Writer, verbose bool, format string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ingestOptions returns the decoding settings from the configuration.
func (r *root) ingestOptions() ingest.Options {
	return ingest.Options{
		DisplayWidth: r.config.DisplayWidth,
		PDFScale:     r.config.PDFScale,
		Log:          r.log,
	}
}

// exporter returns an Exporter writing into dir, or the configured save
// directory when dir is empty.
func (r *root) exporter(dir string) *export.Exporter {
	if dir == "" {
		dir = expandHome(r.config.SaveDir)
	}
	return &export.Exporter{
		Composer: r.composer,
		Quality:  r.config.JPEGQuality,
		Dir:      dir,
		Log:      r.log,
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
