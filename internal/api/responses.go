package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/floormark/internal/ingest"
	"github.com/example/floormark/internal/marker"
	"github.com/example/floormark/internal/session"
)

type documentJSON struct {
	Name          string `json:"name"`
	Size          int64  `json:"size"`
	Format        string `json:"format"`
	Pages         int    `json:"pages"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	DisplayWidth  int    `json:"display_width"`
	DisplayHeight int    `json:"display_height"`
}

type stateJSON struct {
	ID            string          `json:"id"`
	Document      *documentJSON   `json:"document"`
	Markers       []marker.Marker `json:"markers"`
	Angle         int             `json:"angle"`
	Zoom          float64         `json:"zoom"`
	ViewWidth     int             `json:"view_width"`
	ViewHeight    int             `json:"view_height"`
	Mode          string          `json:"mode"`
	Category      string          `json:"category"`
	Location      string          `json:"location"`
	Insert        int             `json:"insert"`
	InsertOptions []string        `json:"insert_options"`
	Note          string          `json:"note"`
}

type eventResponse struct {
	Outcome string         `json:"outcome"`
	Marker  *marker.Marker `json:"marker,omitempty"`
	State   stateJSON      `json:"state"`
}

func newStateJSON(id string, ws *Workspace) stateJSON {
	st := ws.State
	out := stateJSON{
		ID:            id,
		Markers:       st.Markers.Markers(),
		Angle:         int(st.Angle),
		Zoom:          float64(st.Zoom),
		Mode:          st.Mode.String(),
		Category:      st.Category,
		Location:      st.Location,
		Insert:        st.Insert,
		InsertOptions: st.InsertOptions(),
		Note:          st.Note,
	}
	if doc := ws.Document(); doc != nil && st.Doc != nil {
		out.Document = newDocumentJSON(doc)
		out.ViewWidth, out.ViewHeight = st.Zoom.Scale(st.DisplaySize())
	}
	return out
}

func newDocumentJSON(doc *ingest.Document) *documentJSON {
	info := doc.Info()
	return &documentJSON{
		Name:          info.Name,
		Size:          info.Size,
		Format:        string(doc.Format),
		Pages:         doc.Pages,
		Width:         info.Width,
		Height:        info.Height,
		DisplayWidth:  info.DisplayWidth,
		DisplayHeight: info.DisplayHeight,
	}
}

func newEventResponse(id string, ws *Workspace, res session.Result) eventResponse {
	out := eventResponse{Outcome: res.Outcome.String(), State: newStateJSON(id, ws)}
	if res.Outcome == session.Added || res.Outcome == session.Removed {
		m := res.Marker
		out.Marker = &m
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
