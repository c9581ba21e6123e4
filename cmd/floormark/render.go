package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/floormark/internal/export"
	"github.com/example/floormark/internal/ingest"
	"github.com/example/floormark/internal/session"
)

// renderCmd draws a saved marker sheet onto its plan without opening a window.
type renderCmd struct {
	*root
	fs     *flag.FlagSet
	plan   string
	sheet  string
	output string
	force  bool
	out    io.Writer
}

func (c *renderCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	c := &renderCmd{root: r, fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.sheet, "sheet", "", "marker sheet to draw")
	fs.StringVar(&c.output, "output", "", "directory for the exported files (default: the configured save_dir)")
	fs.BoolVar(&c.force, "force", false, "draw the sheet even when it was saved for a different plan")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 || c.sheet == "" {
		return nil, &UsageError{of: c}
	}
	c.plan = fs.Arg(0)
	return c, nil
}

func (c *renderCmd) Run() error {
	doc, err := ingest.ReadFile(c.plan, c.ingestOptions())
	if err != nil {
		return fmt.Errorf("failed to open plan: %w", err)
	}
	f, err := os.Open(c.sheet)
	if err != nil {
		return err
	}
	defer f.Close()
	sheet, err := export.ReadSheet(f)
	if err != nil {
		return fmt.Errorf("%s: %w", c.sheet, err)
	}

	st := session.Handle(session.New(), session.Load{Doc: doc.Info()})
	if !sheet.Matches(*st.Doc) {
		if !c.force {
			return fmt.Errorf("%s: sheet belongs to %q, not %q (use -force to draw it anyway)", c.sheet, sheet.Document.Name, st.Doc.Name)
		}
		c.log.Warn("drawing sheet onto a different plan", "sheet", sheet.Document.Name, "plan", st.Doc.Name)
	}
	st = session.Handle(st, session.Restore{Markers: sheet.Markers, Angle: sheet.View()})

	paths, err := c.exporter(c.output).Save(doc, st)
	if err != nil {
		return err
	}
	printPaths(c.out, paths)
	return nil
}

func printPaths(w io.Writer, p export.Paths) {
	fmt.Fprintln(w, p.Image)
	if p.CSV != "" {
		fmt.Fprintln(w, p.CSV)
	}
	fmt.Fprintln(w, p.Sheet)
}
