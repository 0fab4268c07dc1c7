package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rillsh/rill/pkg/sig"
)

// Manifest describes one plugin: the executable to spawn and the
// signatures of the commands it provides. Signatures live in the manifest
// rather than behind the handshake so that the parser can resolve plugin
// commands without spawning anything.
type Manifest struct {
	Name     string        `yaml:"name"`
	Exec     string        `yaml:"exec"`
	Protocol int           `yaml:"protocol"`
	Commands []CommandSpec `yaml:"commands"`

	// Dir is the directory the manifest was loaded from; Exec is
	// resolved relative to it. Not part of the YAML document or the
	// cached form.
	Dir string `yaml:"-" json:"-"`
}

// CommandSpec is the declared signature of one plugin command.
type CommandSpec struct {
	Name   string      `yaml:"name"`
	Params []ParamSpec `yaml:"params,omitempty"`
	Rest   *ParamSpec  `yaml:"rest,omitempty"`
	Flags  []FlagSpec  `yaml:"flags,omitempty"`
	Input  string      `yaml:"input,omitempty"`
	Output string      `yaml:"output,omitempty"`
}

// ParamSpec is one positional parameter in a manifest.
type ParamSpec struct {
	Name     string `yaml:"name"`
	Shape    string `yaml:"shape,omitempty"`
	Optional bool   `yaml:"optional,omitempty"`
}

// FlagSpec is one flag in a manifest.
type FlagSpec struct {
	Long  string `yaml:"long"`
	Short string `yaml:"short,omitempty"`
	Shape string `yaml:"shape,omitempty"`
}

var shapesByName = map[string]sig.Shape{
	"":          sig.ShapeAny,
	"any":       sig.ShapeAny,
	"nothing":   sig.ShapeNothing,
	"bool":      sig.ShapeBool,
	"int":       sig.ShapeInt,
	"float":     sig.ShapeFloat,
	"number":    sig.ShapeNumber,
	"string":    sig.ShapeString,
	"duration":  sig.ShapeDuration,
	"date":      sig.ShapeDate,
	"binary":    sig.ShapeBinary,
	"list":      sig.ShapeList,
	"record":    sig.ShapeRecord,
	"block":     sig.ShapeBlock,
	"condition": sig.ShapeCondition,
}

// LoadManifest reads and validates a plugin manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := parseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

func parseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest has no name")
	}
	if m.Exec == "" {
		return fmt.Errorf("manifest %s has no exec", m.Name)
	}
	if m.Protocol != ProtocolVersion {
		return VersionMismatch{
			Plugin: m.Name, HostVersion: ProtocolVersion, PluginVersion: m.Protocol}
	}
	if len(m.Commands) == 0 {
		return fmt.Errorf("manifest %s declares no commands", m.Name)
	}
	for _, c := range m.Commands {
		if c.Name == "" {
			return fmt.Errorf("manifest %s has a command with no name", m.Name)
		}
		if _, err := c.Signature(); err != nil {
			return fmt.Errorf("manifest %s: %w", m.Name, err)
		}
	}
	return nil
}

// ExecPath returns the absolute path of the plugin executable.
func (m *Manifest) ExecPath() string {
	if filepath.IsAbs(m.Exec) {
		return m.Exec
	}
	return filepath.Join(m.Dir, m.Exec)
}

// Signature converts the declared command spec into a signature the
// parser can resolve calls against.
func (c *CommandSpec) Signature() (*sig.Signature, error) {
	s := sig.New(c.Name)
	for _, p := range c.Params {
		shape, ok := shapesByName[p.Shape]
		if !ok {
			return nil, fmt.Errorf("command %s: unknown shape %q", c.Name, p.Shape)
		}
		if p.Optional {
			s.Optional(p.Name, shape)
		} else {
			s.Required(p.Name, shape)
		}
	}
	if c.Rest != nil {
		shape, ok := shapesByName[c.Rest.Shape]
		if !ok {
			return nil, fmt.Errorf("command %s: unknown shape %q", c.Name, c.Rest.Shape)
		}
		s.Rest(c.Rest.Name, shape)
	}
	for _, f := range c.Flags {
		shape, ok := shapesByName[f.Shape]
		if !ok {
			return nil, fmt.Errorf("command %s: unknown shape %q", c.Name, f.Shape)
		}
		var short rune
		if f.Short != "" {
			runes := []rune(f.Short)
			if len(runes) != 1 {
				return nil, fmt.Errorf(
					"command %s: short flag %q is not a single rune", c.Name, f.Short)
			}
			short = runes[0]
		}
		s.Flag(f.Long, short, shape)
	}
	input, ok := shapesByName[c.Input]
	if !ok {
		return nil, fmt.Errorf("command %s: unknown shape %q", c.Name, c.Input)
	}
	output, ok := shapesByName[c.Output]
	if !ok {
		return nil, fmt.Errorf("command %s: unknown shape %q", c.Name, c.Output)
	}
	return s.Pipe(input, output), nil
}

// ManifestFiles lists the manifest files (*.yaml) directly under dir,
// sorted by name. A missing directory is not an error; it simply has no
// plugins.
func ManifestFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
