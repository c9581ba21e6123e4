package api

import (
	"fmt"
	"strings"

	"github.com/example/floormark/internal/session"
	"github.com/example/floormark/internal/view"
)

// eventRequest is the JSON body of POST /events. Type selects the event;
// the other fields are read as that event needs them.
type eventRequest struct {
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Mode     string  `json:"mode"`
	Category string  `json:"category"`
	Location string  `json:"location"`
	Position int     `json:"position"`
	Note     string  `json:"note"`
	Angle    int     `json:"angle"`
}

func (e eventRequest) event() (session.Event, error) {
	switch strings.ToLower(e.Type) {
	case "click":
		return session.Click{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}, nil
	case "mode":
		m, err := session.ParseMode(e.Mode)
		if err != nil {
			return nil, err
		}
		return session.SetMode{Mode: m}, nil
	case "category":
		return session.SelectCategory{Label: e.Category}, nil
	case "location":
		return session.SelectLocation{Tag: e.Location}, nil
	case "insert":
		return session.SelectInsert{Position: e.Position}, nil
	case "note":
		return session.SetNote{Text: e.Note}, nil
	case "zoom_in":
		return session.ZoomIn{}, nil
	case "zoom_out":
		return session.ZoomOut{}, nil
	case "rotate":
		a, err := view.ParseAngle(e.Angle)
		if err != nil {
			return nil, err
		}
		return session.Rotate{Angle: a}, nil
	case "clear":
		return session.ClearAll{}, nil
	case "":
		return nil, fmt.Errorf("event type is required")
	}
	return nil, fmt.Errorf("unknown event type %q", e.Type)
}
