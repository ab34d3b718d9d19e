package server

import (
	_ "embed"
	"encoding/json"
	"maps"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/clocktree/pkg/controller"
	"github.com/matzehuels/clocktree/pkg/errors"
	"github.com/matzehuels/clocktree/pkg/pipeline"
	"github.com/matzehuels/clocktree/pkg/render"
	"github.com/matzehuels/clocktree/pkg/tree"
)

//go:embed page.html
var pageHTML []byte

// maxBody caps JSON request bodies.
const maxBody = 1 << 16

// =============================================================================
// Responses
// =============================================================================

type errResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func errorBody(err error) errResponse {
	return errResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errors.HTTPStatus(err), errorBody(err))
}

// Terminal is one row of the terminal frequency listing.
type Terminal struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Freq    string `json:"freq,omitempty"`
	Special bool   `json:"special,omitempty"`
}

// FrameResponse is the state a page needs to draw the live diagram.
type FrameResponse struct {
	Frame      tree.Frame               `json:"frame"`
	Controls   []controller.ControlSpec `json:"controls"`
	Selections map[string]string        `json:"selections"`
	Terminals  []Terminal               `json:"terminals"`
	SVG        string                   `json:"svg"`
}

func (s *Server) frame() (*FrameResponse, error) {
	var resp *FrameResponse
	s.ctrl.Inspect(func(m *tree.Model) {
		if m == nil {
			return
		}
		resp = &FrameResponse{
			Frame: m.Frame,
			SVG:   string(pipeline.RenderSVG(m, pipeline.Options{Background: render.DefaultTheme.Background})),
		}
		for _, n := range m.Terminals() {
			t := Terminal{Key: n.Key, Label: n.Label, Special: n.Special}
			if n.Freq != nil {
				t.Freq = n.Freq.String()
			}
			resp.Terminals = append(resp.Terminals, t)
		}
	})
	if resp == nil {
		return nil, errors.New(errors.ErrCodeInternal, "diagram not built")
	}
	resp.Controls = s.ctrl.Controls()
	resp.Selections = s.ctrl.Selections()
	return resp, nil
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(pageHTML)
}

func (s *Server) handleFrame(w http.ResponseWriter, _ *http.Request) {
	resp, err := s.frame()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.ctrl.Resize(req.Width, req.Height); err != nil {
		writeError(w, err)
		return
	}
	s.respondFrame(w)
}

type selectRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// handleSelect fires the live control for the divider, exactly as a page
// select change would.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := errors.ValidateNodeKey(req.Key); err != nil {
		writeError(w, err)
		return
	}
	if err := s.host.Fire(req.Key, req.Value); err != nil {
		writeError(w, err)
		return
	}
	s.respondFrame(w)
}

func (s *Server) respondFrame(w http.ResponseWriter) {
	resp, err := s.frame()
	if err != nil {
		writeError(w, err)
		return
	}
	s.events.Publish(Event{Type: EventFrame, Data: map[string]any{
		"frame":      resp.Frame,
		"selections": resp.Selections,
	}})
	writeJSON(w, http.StatusOK, resp)
}

// handleExport renders the served topology statelessly through the runner.
// Selections start from the live diagram's and may be overridden with
// repeated ?select=key=ratio parameters. width and height default to the live
// frame.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	frame := s.ctrl.Frame()
	opts := pipeline.Options{
		Width:      frame.Width,
		Height:     frame.Height,
		Formats:    []string{format},
		Selections: s.ctrl.Selections(),
		EmbedFont:  q.Has("embed_font"),
		Detailed:   q.Has("detailed"),
		Refresh:    q.Has("refresh"),
	}
	var err error
	if opts.Width, err = floatParam(q.Get("width"), opts.Width); err != nil {
		writeError(w, err)
		return
	}
	if opts.Height, err = floatParam(q.Get("height"), opts.Height); err != nil {
		writeError(w, err)
		return
	}
	sel, err := pipeline.ParseSelections(q["select"])
	if err != nil {
		writeError(w, err)
		return
	}
	maps.Copy(opts.Selections, sel)

	res, err := s.runner.Execute(r.Context(), s.ctrl.Topology(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	if res.CacheHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	_, _ = w.Write(res.Artifacts[format])
}

// =============================================================================
// Request parsing
// =============================================================================

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

func floatParam(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %q", raw)
	}
	return v, nil
}
