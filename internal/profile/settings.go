// Package profile holds the saved output profiles and the reconciliation
// engine that matches the current display topology against them.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mvanek/displayctl/internal/xrandr"
)

const configDirName = "displayctl"

// OutputState is the desired placement of one output within a profile.
type OutputState struct {
	Configuration    xrandr.Configuration
	PrimaryCandidate bool
}

// Profile is a named, saved layout across one or more outputs plus an
// ordered list of audio sink preference patterns. OutputNames preserves the
// order outputs were declared in; that order decides the primary candidate
// fallback.
type Profile struct {
	SinkPatterns []string
	OutputNames  []string
	Outputs      map[string]OutputState
}

// PrimaryOutputName returns the first output flagged as primary candidate,
// falling back to the first declared output.
func (p Profile) PrimaryOutputName() string {
	for _, name := range p.OutputNames {
		if p.Outputs[name].PrimaryCandidate {
			return name
		}
	}
	if len(p.OutputNames) > 0 {
		return p.OutputNames[0]
	}
	return ""
}

// DefaultProfile maps a required set of connected outputs to a profile name.
type DefaultProfile struct {
	ConnectedOutputNames []string `yaml:"connected_output_names"`
	ProfileName          string   `yaml:"profile_name"`
}

// Settings is the persisted profile store. It is loaded once per invocation
// and immutable thereafter. ProfileNames preserves declaration order, which
// drives profile cycling.
type Settings struct {
	DefaultProfiles []DefaultProfile
	ProfileNames    []string
	Profiles        map[string]Profile
}

// The yaml document layer. Profiles and per-profile outputs are mapping
// nodes handled by hand because declaration order must survive a load/store
// round-trip, which a plain map would not give.

type settingsDoc struct {
	DefaultProfiles []DefaultProfile `yaml:"default_profiles,omitempty"`
	Profiles        yaml.Node        `yaml:"profiles"`
}

type profileDoc struct {
	SinkPatterns []string  `yaml:"pactl_sink_option_regexes,omitempty"`
	Outputs      yaml.Node `yaml:"outputs"`
}

type outputStateDoc struct {
	Configuration    configurationDoc `yaml:"configuration"`
	PrimaryCandidate bool             `yaml:"primary_candidate,omitempty"`
}

type configurationDoc struct {
	Mode     modeDoc         `yaml:"mode"`
	Position xrandr.Position `yaml:"position"`
}

type modeDoc struct {
	Resolution  xrandr.Resolution `yaml:"resolution"`
	RefreshRate rate              `yaml:"refresh_rate,omitempty"`
}

// rate is a decimal refresh rate scalar. Parsing through decimal keeps
// 59.95 exact instead of routing it through a float64.
type rate struct {
	decimal.Decimal
}

func (r *rate) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("refresh_rate: expected scalar, got %s", node.Tag)
	}
	d, err := decimal.NewFromString(node.Value)
	if err != nil {
		return fmt.Errorf("refresh_rate %q: %w", node.Value, err)
	}
	r.Decimal = d
	return nil
}

func (r rate) MarshalYAML() (interface{}, error) {
	value := r.Decimal.String()
	tag := "!!int"
	if strings.ContainsAny(value, ".eE") {
		tag = "!!float"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}, nil
}

func (s *Settings) UnmarshalYAML(node *yaml.Node) error {
	var doc settingsDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	s.DefaultProfiles = doc.DefaultProfiles
	s.ProfileNames = nil
	s.Profiles = map[string]Profile{}

	if doc.Profiles.Kind == 0 {
		return nil
	}
	if doc.Profiles.Kind != yaml.MappingNode {
		return fmt.Errorf("profiles: expected mapping")
	}
	for i := 0; i < len(doc.Profiles.Content); i += 2 {
		name := doc.Profiles.Content[i].Value
		var pd profileDoc
		if err := doc.Profiles.Content[i+1].Decode(&pd); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
		profile := Profile{
			SinkPatterns: pd.SinkPatterns,
			Outputs:      map[string]OutputState{},
		}
		if pd.Outputs.Kind != 0 {
			if pd.Outputs.Kind != yaml.MappingNode {
				return fmt.Errorf("profile %q: outputs: expected mapping", name)
			}
			for j := 0; j < len(pd.Outputs.Content); j += 2 {
				outputName := pd.Outputs.Content[j].Value
				var sd outputStateDoc
				if err := pd.Outputs.Content[j+1].Decode(&sd); err != nil {
					return fmt.Errorf("profile %q: output %q: %w", name, outputName, err)
				}
				profile.OutputNames = append(profile.OutputNames, outputName)
				profile.Outputs[outputName] = OutputState{
					Configuration: xrandr.Configuration{
						Mode: xrandr.Mode{
							Resolution:  sd.Configuration.Mode.Resolution,
							RefreshRate: sd.Configuration.Mode.RefreshRate.Decimal,
						},
						Position: sd.Configuration.Position,
					},
					PrimaryCandidate: sd.PrimaryCandidate,
				}
			}
		}
		s.ProfileNames = append(s.ProfileNames, name)
		s.Profiles[name] = profile
	}
	return nil
}

func (s Settings) MarshalYAML() (interface{}, error) {
	doc := settingsDoc{DefaultProfiles: s.DefaultProfiles}
	doc.Profiles.Kind = yaml.MappingNode
	doc.Profiles.Tag = "!!map"
	for _, name := range s.ProfileNames {
		profile := s.Profiles[name]
		pd := profileDoc{SinkPatterns: profile.SinkPatterns}
		pd.Outputs.Kind = yaml.MappingNode
		pd.Outputs.Tag = "!!map"
		for _, outputName := range profile.OutputNames {
			state := profile.Outputs[outputName]
			sd := outputStateDoc{
				Configuration: configurationDoc{
					Mode: modeDoc{
						Resolution:  state.Configuration.Mode.Resolution,
						RefreshRate: rate{state.Configuration.Mode.RefreshRate},
					},
					Position: state.Configuration.Position,
				},
				PrimaryCandidate: state.PrimaryCandidate,
			}
			var keyNode, valueNode yaml.Node
			keyNode.SetString(outputName)
			if err := valueNode.Encode(sd); err != nil {
				return nil, err
			}
			pd.Outputs.Content = append(pd.Outputs.Content, &keyNode, &valueNode)
		}
		var keyNode, valueNode yaml.Node
		keyNode.SetString(name)
		if err := valueNode.Encode(pd); err != nil {
			return nil, err
		}
		doc.Profiles.Content = append(doc.Profiles.Content, &keyNode, &valueNode)
	}
	return doc, nil
}

// ConfigDir resolves the tool's configuration directory under
// XDG_CONFIG_HOME, falling back to ~/.config.
func ConfigDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, configDirName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName), nil
}

// SettingsPath is the standard location of the profile store.
func SettingsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles.yaml"), nil
}

// LoadSettings reads the profile store from path.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return &settings, nil
}

// Store writes the settings document to path, creating parent directories
// as needed.
func (s *Settings) Store(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
