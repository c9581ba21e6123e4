package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/view"
)

// ErrUnknownCommand is returned by ParseCommand for words it does not know.
var ErrUnknownCommand = errors.New("unknown command")

// CommandHelp lists the commands ParseCommand accepts.
var CommandHelp = []string{
	"click X Y [W H]   press at pixel X,Y of the displayed plan (optionally measured on a W×H bitmap)",
	"mode add|remove   switch what a click does",
	"category NAME|N   select a category by label or 1-based number",
	"location NAME|N   select a location by label or 1-based number",
	"insert N          insert the next marker before #N (0 appends)",
	"note TEXT...      set the note for the next marker",
	"zoom in|out       change the zoom by one step",
	"rotate DEG        rotate the view to 0, 90, 180 or 270 degrees",
	"clear             remove every marker",
}

// ParseCommand turns one line of the text interface into an event.
func ParseCommand(line string) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	name, args := strings.ToLower(fields[0]), fields[1:]
	switch name {
	case "click":
		if len(args) != 2 && len(args) != 4 {
			return nil, fmt.Errorf("click: want X Y [W H]")
		}
		nums, err := parseFloats(args)
		if err != nil {
			return nil, fmt.Errorf("click: %w", err)
		}
		c := Click{X: nums[0], Y: nums[1]}
		if len(nums) == 4 {
			c.Width, c.Height = nums[2], nums[3]
		}
		return c, nil
	case "mode":
		if len(args) != 1 {
			return nil, fmt.Errorf("mode: want add or remove")
		}
		m, err := ParseMode(args[0])
		if err != nil {
			return nil, err
		}
		return SetMode{Mode: m}, nil
	case "category", "cat":
		label, err := pick(args, marker.Categories())
		if err != nil {
			return nil, fmt.Errorf("category: %w", err)
		}
		return SelectCategory{Label: label}, nil
	case "location", "loc":
		tag, err := pick(args, marker.Locations())
		if err != nil {
			return nil, fmt.Errorf("location: %w", err)
		}
		return SelectLocation{Tag: tag}, nil
	case "insert":
		if len(args) != 1 {
			return nil, fmt.Errorf("insert: want a position")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("insert: %w", err)
		}
		return SelectInsert{Position: n}, nil
	case "note":
		// Keep the text as typed after the command word.
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
		return SetNote{Text: text}, nil
	case "zoom":
		if len(args) == 1 {
			switch strings.ToLower(args[0]) {
			case "in", "+":
				return ZoomIn{}, nil
			case "out", "-":
				return ZoomOut{}, nil
			}
		}
		return nil, fmt.Errorf("zoom: want in or out")
	case "rotate":
		if len(args) != 1 {
			return nil, fmt.Errorf("rotate: want 0, 90, 180 or 270")
		}
		deg, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("rotate: %w", err)
		}
		a, err := view.ParseAngle(deg)
		if err != nil {
			return nil, err
		}
		return Rotate{Angle: a}, nil
	case "clear":
		return ClearAll{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// pick resolves a label or a 1-based index into choices.
func pick(args []string, choices []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("want one of %s", strings.Join(choices, ", "))
	}
	if n, err := strconv.Atoi(args[0]); err == nil {
		if n < 1 || n > len(choices) {
			return "", fmt.Errorf("number %d out of range 1-%d", n, len(choices))
		}
		return choices[n-1], nil
	}
	for _, c := range choices {
		if c == args[0] {
			return c, nil
		}
	}
	return "", fmt.Errorf("%q is not one of %s", args[0], strings.Join(choices, ", "))
}
