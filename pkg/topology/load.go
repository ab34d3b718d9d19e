package topology

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/clocktree/pkg/errors"
)

//go:embed default.toml
var defaultTOML []byte

// Format identifies a topology encoding.
type Format string

// Supported encodings.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Default returns a fresh copy of the embedded reference topology.
func Default() *Topology {
	t, err := Decode(defaultTOML, FormatTOML)
	if err != nil {
		panic(fmt.Sprintf("topology: embedded default is invalid: %v", err))
	}
	return t
}

// DefaultSource returns the raw embedded topology, for `clocktree topology --dump`.
func DefaultSource() []byte {
	return bytes.Clone(defaultTOML)
}

// Load reads and validates a topology file. The encoding is chosen from the
// file extension; anything that is not .yaml or .yml is parsed as TOML.
func Load(path string) (*Topology, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "topology %s", path)
		}
		return nil, fmt.Errorf("read topology %s: %w", path, err)
	}
	return Decode(data, FormatFor(path))
}

// FormatFor guesses the encoding of path from its extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Decode parses and validates a topology. Unset canvas, column, size and
// render fields are filled from the reference defaults.
func Decode(data []byte, format Format) (*Topology, error) {
	t := &Topology{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, t); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedTopology, err, "parse yaml topology")
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), t)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedTopology, err, "parse toml topology")
		}
		if undec := md.Undecoded(); len(undec) > 0 {
			return nil, errors.New(errors.ErrCodeMalformedTopology, "unknown topology field %q", undec[0].String())
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown topology format %q", format)
	}
	t.applyDefaults()
	if err := t.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedTopology, err, "validate topology %q", t.Name)
	}
	return t, nil
}

// Encode writes t in the requested encoding.
func Encode(t *Topology, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(t); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown topology format %q", format)
	}
	return buf.Bytes(), nil
}

func (t *Topology) applyDefaults() {
	zero := Canvas{}
	if t.Canvas == zero {
		t.Canvas = Canvas{Width: 1400, Height: 1000, OriginY: 483, TerminalPitch: 50, Nudge: 5}
	}
	if t.Columns == (Columns{}) {
		t.Columns = Columns{Root: 0, Divider: 350, Junction: 700, Terminal: 1100}
	}
	fill := func(s *Size, w, h float64) {
		if s.Width == 0 && s.Height == 0 {
			*s = Size{Width: w, Height: h}
		}
	}
	fill(&t.Sizes.Root, 90, 40)
	fill(&t.Sizes.Divider, 120, 40)
	fill(&t.Sizes.Junction, 90, 40)
	fill(&t.Sizes.Terminal, 190, 40)
	if t.Render.HighlightBelow == 0 {
		t.Render.HighlightBelow = 160
	}
}
