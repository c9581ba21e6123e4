package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/floormark/internal/export"
	"github.com/example/floormark/internal/ingest"
	"github.com/example/floormark/internal/session"
)

type commandList []string

func (c *commandList) String() string { return strings.Join(*c, "; ") }

func (c *commandList) Set(v string) error {
	*c = append(*c, v)
	return nil
}

// interactiveCmd drives a session from text commands instead of a window.
type interactiveCmd struct {
	*root
	fs     *flag.FlagSet
	output string
	execs  commandList
	in     io.Reader
	out    io.Writer

	doc *ingest.Document
	st  session.State
}

func (i *interactiveCmd) FlagSet() *flag.FlagSet {
	return i.fs
}

func parseInteractiveCmd(args []string, r *root) (*interactiveCmd, error) {
	fs := flag.NewFlagSet("interactive", flag.ExitOnError)
	i := &interactiveCmd{root: r, fs: fs, in: os.Stdin, out: os.Stdout, st: session.New()}
	fs.Usage = usageFunc(i)
	fs.Var(&i.execs, "e", "run a command and exit; may be repeated")
	fs.StringVar(&i.output, "output", "", "default directory for export (default: the configured save_dir)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 1 {
		return nil, &UsageError{of: i}
	}
	if fs.NArg() == 1 {
		if err := i.load(fs.Arg(0)); err != nil {
			return nil, err
		}
	}
	return i, nil
}

func (i *interactiveCmd) Run() error {
	if len(i.execs) > 0 {
		for _, line := range i.execs {
			done, err := i.executeLine(line)
			if err != nil {
				return fmt.Errorf("%s: %w", line, err)
			}
			if done {
				break
			}
		}
		return nil
	}

	fmt.Fprintln(i.out, "Enter commands (type 'help' for a list, 'exit' to quit)")
	scanner := bufio.NewScanner(i.in)
	for {
		fmt.Fprint(i.out, "> ")
		if !scanner.Scan() {
			break
		}
		done, err := i.executeLine(scanner.Text())
		if err != nil {
			fmt.Fprintln(i.out, "error:", err)
		}
		if done {
			break
		}
	}
	return scanner.Err()
}

// executeLine runs one command. done is true when the shell should exit.
func (i *interactiveCmd) executeLine(line string) (done bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false, nil
	}
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(word) {
	case "exit", "quit":
		return true, nil
	case "help":
		fmt.Fprint(i.out, (&UsageError{of: i}).Error())
		return false, nil
	case "load":
		if rest == "" {
			return false, errors.New("load: want PATH")
		}
		return false, i.load(rest)
	case "sheet":
		if rest == "" {
			return false, errors.New("sheet: want PATH")
		}
		st, err := restoreSheet(i.st, rest)
		if err != nil {
			return false, err
		}
		i.st = st
		fmt.Fprintf(i.out, "restored %d markers\n", i.st.Markers.Len())
		return false, nil
	case "export":
		dir := rest
		if dir == "" {
			dir = i.output
		}
		if i.doc == nil {
			return false, export.ErrNoDocument
		}
		paths, err := i.exporter(dir).Save(i.doc, i.st)
		if err != nil {
			return false, err
		}
		printPaths(i.out, paths)
		if i.notifier != nil {
			i.notifier.Export(paths.Image)
		}
		return false, nil
	case "list":
		ms := i.st.Markers.Markers()
		if len(ms) == 0 {
			fmt.Fprintln(i.out, "no markers")
		}
		for _, m := range ms {
			fmt.Fprintln(i.out, m)
		}
		return false, nil
	case "status":
		i.printStatus()
		return false, nil
	}

	ev, err := session.ParseCommand(line)
	if err != nil {
		return false, err
	}
	var res session.Result
	i.st, res = session.Apply(i.st, ev)
	switch res.Outcome {
	case session.Added, session.Removed:
		fmt.Fprintf(i.out, "%s %s\n", res.Outcome, res.Marker)
	default:
		fmt.Fprintln(i.out, res.Outcome)
	}
	return false, nil
}

func (i *interactiveCmd) load(path string) error {
	doc, err := ingest.ReadFile(path, i.ingestOptions())
	if err != nil {
		return fmt.Errorf("failed to open plan: %w", err)
	}
	var res session.Result
	i.st, res = session.Apply(i.st, session.Load{Doc: doc.Info()})
	i.doc = doc
	fmt.Fprintf(i.out, "%s %s (%dx%d)\n", res.Outcome, doc.Name, doc.Base.Bounds().Dx(), doc.Base.Bounds().Dy())
	return nil
}

func (i *interactiveCmd) printStatus() {
	st := i.st
	if st.Doc == nil {
		fmt.Fprintln(i.out, "document: none")
	} else {
		w, h := st.DisplaySize()
		fmt.Fprintf(i.out, "document: %s (%d bytes), display %dx%d\n", st.Doc.Name, st.Doc.Size, w, h)
	}
	fmt.Fprintf(i.out, "markers: %d\n", st.Markers.Len())
	fmt.Fprintf(i.out, "mode: %s, category: %s, location: %s\n", st.Mode, orNone(st.Category), st.Location)
	fmt.Fprintf(i.out, "rotation: %d, zoom: %.0f%%\n", int(st.Angle), float64(st.Zoom)*100)
	if st.Insert > 0 {
		fmt.Fprintf(i.out, "insert before: #%d\n", st.Insert)
	}
	if st.Note != "" {
		fmt.Fprintf(i.out, "note: %s\n", st.Note)
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
