package profile

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/mvanek/displayctl/internal/pactl"
	"github.com/mvanek/displayctl/internal/xrandr"
)

var (
	// ErrNoOutputEnabled guards against a profile application that would
	// disable every connected output and blank the screen.
	ErrNoOutputEnabled = errors.New("no output would be enabled")
	// ErrNoMatchingProfile means the requested profile name is unknown.
	ErrNoMatchingProfile = errors.New("no matching profile")
	// ErrNoMatchingDefault means no default profile rule covers the
	// currently connected outputs.
	ErrNoMatchingDefault = errors.New("no matching default profile")
)

const (
	settlePollInterval = 100 * time.Millisecond
	settlePollBudget   = 5000 * time.Millisecond
)

// RootIdentifier reports an opaque token for the window system's root
// state, compared before/after a layout change to detect settling.
type RootIdentifier interface {
	RootWindowID() (string, error)
}

// Selector is the reconciliation engine. It holds exactly one refreshed
// snapshot of the world (screen, current/default profile, candidate sinks)
// per invocation; there is no background refresh and no shared state.
type Selector struct {
	Settings *Settings
	XRandr   *xrandr.XRandr
	PACtl    *pactl.PACtl
	Root     RootIdentifier // nil when no window system is reachable
	Hooks    Hooks

	sleep func(time.Duration)

	screen         *xrandr.Screen
	currentProfile string
	defaultProfile string
	candidateSinks []pactl.Sink
}

// NewSelector builds a selector and refreshes its state once.
func NewSelector(settings *Settings, xr *xrandr.XRandr, pa *pactl.PACtl, root RootIdentifier, hooks Hooks) (*Selector, error) {
	s := &Selector{
		Settings: settings,
		XRandr:   xr,
		PACtl:    pa,
		Root:     root,
		Hooks:    hooks,
		sleep:    time.Sleep,
	}
	if err := s.UpdateState(); err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateState re-reads the topology and recomputes the three derived values
// together: current profile, default profile and candidate sinks.
func (s *Selector) UpdateState() error {
	screen, err := s.XRandr.Screen()
	if err != nil {
		return err
	}
	s.screen = screen
	s.currentProfile = s.resolveCurrentProfile()
	s.defaultProfile = s.resolveDefaultProfile()
	sinks, err := s.PACtl.Sinks()
	if err != nil {
		return err
	}
	s.candidateSinks = s.filterCandidateSinks(sinks)
	return nil
}

func (s *Selector) Screen() *xrandr.Screen       { return s.screen }
func (s *Selector) CurrentProfile() string       { return s.currentProfile }
func (s *Selector) DefaultProfile() string       { return s.defaultProfile }
func (s *Selector) CandidateSinks() []pactl.Sink { return s.candidateSinks }

// resolveCurrentProfile picks the profile whose output set exactly equals
// the active output names. Ties go to the profile with the longest name;
// this mirrors the original selection rule and is deliberately not a
// most-specific-match.
func (s *Selector) resolveCurrentProfile() string {
	slog.Debug("determining current profile")
	active := mapset.NewSet(s.screen.ActiveOutputNames()...)
	match := ""
	for _, name := range s.Settings.ProfileNames {
		profile := s.Settings.Profiles[name]
		if mapset.NewSet(profile.OutputNames...).Equal(active) && len(name) > len(match) {
			match = name
		}
	}
	if match == "" {
		slog.Warn("could not match the current profile")
		return ""
	}
	slog.Info("current profile determined", "profile", match)
	return match
}

// resolveDefaultProfile picks the rule whose required output set is a
// subset of the connected output names, with the same longest-name
// tie-break over the rule's profile name.
func (s *Selector) resolveDefaultProfile() string {
	slog.Debug("determining default profile")
	connected := mapset.NewSet(s.screen.ConnectedOutputNames()...)
	match := ""
	for _, rule := range s.Settings.DefaultProfiles {
		if mapset.NewSet(rule.ConnectedOutputNames...).IsSubset(connected) && len(rule.ProfileName) > len(match) {
			match = rule.ProfileName
		}
	}
	if match == "" {
		slog.Warn("could not find a matching default profile")
		return ""
	}
	slog.Info("default profile determined", "profile", match)
	return match
}

// NextValidProfile walks the profiles in declared order, starting just
// after name (or the current profile when name is empty; the full list when
// neither exists), and returns the first profile whose outputs are all
// connected. Returns "" when nothing qualifies.
func (s *Selector) NextValidProfile(name string) string {
	if name == "" {
		name = s.currentProfile
	}
	slog.Debug("determining next profile")
	candidates := s.Settings.ProfileNames
	if index := slices.Index(candidates, name); index >= 0 {
		candidates = append(slices.Clone(candidates[index+1:]), candidates[:index]...)
	}
	connected := mapset.NewSet(s.screen.ConnectedOutputNames()...)
	for _, candidate := range candidates {
		profile := s.Settings.Profiles[candidate]
		if mapset.NewSet(profile.OutputNames...).IsSubset(connected) {
			slog.Info("next valid profile determined", "profile", candidate)
			return candidate
		}
	}
	slog.Warn("no valid next profile could be determined")
	return ""
}

// ApplyProfile transitions the display layout to the named profile: one
// atomic xrandr invocation covering every connected output, then sink
// selection, then the settle poll and change hooks. Reapplying the current
// profile is a logged no-op, which keeps the operation idempotent.
func (s *Selector) ApplyProfile(name string) error {
	if s.currentProfile == name {
		slog.Warn("not reapplying current profile", "profile", name)
		return nil
	}
	profile, ok := s.Settings.Profiles[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrNoMatchingProfile)
	}
	slog.Info("applying profile", "profile", name)

	oldPrimary := ""
	if output, err := s.screen.PrimaryOutput(); err == nil {
		oldPrimary = output.Name
	}
	newPrimary := profile.PrimaryOutputName()

	var args []string
	anyOutput := false
	for _, outputName := range s.screen.ConnectedOutputNames() {
		state, ok := profile.Outputs[outputName]
		if !ok {
			args = append(args, "--output", outputName, "--off")
			continue
		}
		args = append(args, "--output", outputName, "--mode", state.Configuration.Mode.Resolution.String())
		if !state.Configuration.Mode.RefreshRate.IsZero() {
			args = append(args, "--rate", state.Configuration.Mode.RefreshRate.String())
		}
		args = append(args, "--pos", state.Configuration.Position.CLIString())
		if outputName == newPrimary {
			args = append(args, "--primary")
		}
		anyOutput = true
	}
	if !anyOutput {
		return ErrNoOutputEnabled
	}

	oldRootID := s.rootWindowID()
	slog.Info("invoking xrandr")
	if err := s.XRandr.Apply(args); err != nil {
		return err
	}

	if err := s.selectSink(profile); err != nil {
		return err
	}

	if s.Hooks.HasProfileChange() {
		s.waitForRootChange(oldRootID)
		if err := s.Hooks.ProfileChanged(name); err != nil {
			return err
		}
	}
	return s.Hooks.PrimaryChanged(oldPrimary, newPrimary)
}

func (s *Selector) rootWindowID() string {
	if s.Root == nil {
		return ""
	}
	id, err := s.Root.RootWindowID()
	if err != nil {
		slog.Warn("could not read root window id", "error", err)
		return ""
	}
	return id
}

// waitForRootChange polls the root identifier until it differs from its
// pre-change value, giving the window system time to settle before the
// change hook runs. A timeout is logged and tolerated.
func (s *Selector) waitForRootChange(oldRootID string) {
	if s.Root == nil {
		return
	}
	for remaining := settlePollBudget; remaining > 0; remaining -= settlePollInterval {
		if id := s.rootWindowID(); id != oldRootID {
			slog.Info("new root window id detected")
			return
		}
		slog.Debug("waiting for new root window id", "interval", settlePollInterval)
		s.sleep(settlePollInterval)
	}
	slog.Error("window system did not settle within timeout")
}

// selectSink walks the profile's sink patterns in order and makes the first
// matching sink the default. A pattern that matches nothing is logged and
// skipped; if no pattern matches anything the sink is left unchanged.
func (s *Selector) selectSink(profile Profile) error {
	for _, pattern := range profile.SinkPatterns {
		re, err := compileSinkPattern(pattern)
		if err != nil {
			slog.Warn("invalid sink pattern", "pattern", pattern, "error", err)
			continue
		}
		sinks, err := s.PACtl.Sinks()
		if err != nil {
			return err
		}
		matched := false
		for _, sink := range sinks {
			if re.MatchString(sink.Name) {
				slog.Info("sink matched", "pattern", pattern, "sink", sink.Name)
				if err := s.PACtl.SetDefaultSink(sink.Name); err != nil {
					return err
				}
				matched = true
				break
			}
		}
		if matched {
			return nil
		}
		slog.Warn("no sink matched", "pattern", pattern)
	}
	return nil
}

// filterCandidateSinks narrows the sink list through the current profile's
// patterns, each pattern claiming at most one sink, in order. When nothing
// matches (or there is no current profile) all sinks remain candidates.
func (s *Selector) filterCandidateSinks(sinks []pactl.Sink) []pactl.Sink {
	if s.currentProfile == "" {
		return sinks
	}
	profile := s.Settings.Profiles[s.currentProfile]
	if len(profile.SinkPatterns) == 0 {
		return sinks
	}
	claimed := make([]bool, len(sinks))
	var filtered []pactl.Sink
	for _, pattern := range profile.SinkPatterns {
		re, err := compileSinkPattern(pattern)
		if err != nil {
			slog.Warn("invalid sink pattern", "pattern", pattern, "error", err)
			continue
		}
		for i, sink := range sinks {
			if !claimed[i] && re.MatchString(sink.Name) {
				claimed[i] = true
				filtered = append(filtered, sink)
				break
			}
		}
	}
	if len(filtered) > 0 {
		return filtered
	}
	return sinks
}

// CyclePactlSink advances the default sink within the candidate list,
// wrapping around. Returns "" (without error) when no candidate qualifies.
func (s *Selector) CyclePactlSink() (string, error) {
	currentName, err := s.PACtl.DefaultSinkName()
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(s.candidateSinks))
	for _, sink := range s.candidateSinks {
		names = append(names, sink.Name)
	}
	if index := slices.Index(names, currentName); index >= 0 {
		names = append(slices.Clone(names[index+1:]), names[:index]...)
	}
	if len(names) == 0 {
		slog.Warn("no valid next sink could be determined")
		return "", nil
	}
	if err := s.PACtl.SetDefaultSink(names[0]); err != nil {
		return "", err
	}
	return names[0], nil
}

// CyclePrimaryOutput advances the primary output among the current
// profile's primary candidates, or the active outputs when the profile has
// none, and fires the primary change hook.
func (s *Selector) CyclePrimaryOutput() (string, error) {
	var candidates []string
	if s.currentProfile != "" {
		profile := s.Settings.Profiles[s.currentProfile]
		for _, name := range profile.OutputNames {
			if profile.Outputs[name].PrimaryCandidate {
				candidates = append(candidates, name)
			}
		}
	}
	if len(candidates) == 0 {
		candidates = s.screen.ActiveOutputNames()
	}
	primary, err := s.screen.PrimaryOutput()
	if err != nil {
		return "", err
	}
	index := slices.Index(candidates, primary.Name)
	next := candidates[(index+1)%len(candidates)]
	if err := s.XRandr.SetPrimaryOutput(next); err != nil {
		return "", err
	}
	if err := s.Hooks.PrimaryChanged(primary.Name, next); err != nil {
		return "", err
	}
	return next, nil
}

// compileSinkPattern turns a sink preference pattern into an anchored
// regexp: literal text is quoted, "*" matches anything.
func compileSinkPattern(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, "*")
	for i := range parts {
		parts[i] = regexp.QuoteMeta(parts[i])
	}
	return regexp.Compile("^" + strings.Join(parts, ".*"))
}
