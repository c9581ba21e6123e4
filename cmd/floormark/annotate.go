package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/example/floormark/internal/appstate"
	"github.com/example/floormark/internal/clipboard"
	"github.com/example/floormark/internal/export"
	"github.com/example/floormark/internal/ingest"
	"github.com/example/floormark/internal/session"
)

// readClipboardFn is swapped in tests.
var readClipboardFn = clipboard.ReadImage

// annotateCmd represents the annotate subcommand.
type annotateCmd struct {
	file          string
	sheet         string
	output        string
	fromClipboard bool
	*root
	fs *flag.FlagSet
}

func (a *annotateCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	a := &annotateCmd{root: r, fs: fs}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.file, "file", "", "plan image or PDF to annotate")
	fs.StringVar(&a.sheet, "sheet", "", "marker sheet to restore")
	fs.StringVar(&a.output, "output", "", "directory for exports (default: the configured save_dir)")
	fs.BoolVar(&a.fromClipboard, "from-clipboard", false, "load the plan from the clipboard")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if a.file == "" && fs.NArg() > 0 {
		a.file = fs.Arg(0)
	}
	if a.file != "" && a.fromClipboard {
		return nil, errors.New("-from-clipboard cannot be combined with a plan file")
	}
	if a.sheet != "" && a.file == "" && !a.fromClipboard {
		return nil, errors.New("-sheet needs a plan to restore onto")
	}
	return a, nil
}

func (a *annotateCmd) Run() error {
	doc, err := a.loadDocument()
	if err != nil {
		return err
	}
	st := session.New()
	if doc != nil {
		st = session.Handle(st, session.Load{Doc: doc.Info()})
	}
	if a.sheet != "" {
		if st, err = restoreSheet(st, a.sheet); err != nil {
			return err
		}
	}

	win := appstate.New(
		appstate.WithDocument(doc),
		appstate.WithState(st),
		appstate.WithComposer(a.composer),
		appstate.WithExporter(a.exporter(a.output)),
		appstate.WithTheme(a.activeTheme),
		appstate.WithNotifier(a.notifier),
		appstate.WithIngest(a.ingestOptions()),
		appstate.WithLogger(a.log),
	)
	win.Run()
	return nil
}

func (a *annotateCmd) loadDocument() (*ingest.Document, error) {
	switch {
	case a.fromClipboard:
		_, data, err := readClipboardFn()
		if err != nil {
			return nil, fmt.Errorf("failed to read clipboard: %w", err)
		}
		return ingest.Decode("clipboard.png", data, a.ingestOptions())
	case a.file != "":
		doc, err := ingest.ReadFile(a.file, a.ingestOptions())
		if err != nil {
			return nil, fmt.Errorf("failed to open plan: %w", err)
		}
		return doc, nil
	}
	return nil, nil
}

// restoreSheet applies the markers of the sheet at path to st. The sheet must
// belong to the loaded plan.
func restoreSheet(st session.State, path string) (session.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return st, err
	}
	defer f.Close()
	sheet, err := export.ReadSheet(f)
	if err != nil {
		return st, fmt.Errorf("%s: %w", path, err)
	}
	if st.Doc == nil {
		return st, export.ErrNoDocument
	}
	if !sheet.Matches(*st.Doc) {
		return st, fmt.Errorf("%s: sheet belongs to %q, not %q", path, sheet.Document.Name, st.Doc.Name)
	}
	return session.Handle(st, session.Restore{Markers: sheet.Markers, Angle: sheet.View()}), nil
}
