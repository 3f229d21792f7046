package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mvanek/displayctl/internal/pactl"
	"github.com/mvanek/displayctl/internal/profile"
	"github.com/mvanek/displayctl/internal/x11"
	"github.com/mvanek/displayctl/internal/xrandr"
)

func main() {
	args := os.Args[1:]
	level := slog.LevelWarn
flags:
	for len(args) > 0 {
		switch args[0] {
		case "-v", "--verbose":
			level = slog.LevelInfo
		case "-vv", "--debug":
			level = slog.LevelDebug
		default:
			break flags
		}
		args = args[1:]
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	if len(args) == 0 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch args[0] {
	case "state":
		os.Exit(runState(args[1:]))
	case "primary-resolution":
		os.Exit(runPrimaryResolution(args[1:]))
	case "list":
		os.Exit(runList(args[1:]))
	case "current":
		os.Exit(runName(args[1:], "current", func(s *profile.Selector) string { return s.CurrentProfile() }))
	case "default":
		os.Exit(runName(args[1:], "default", func(s *profile.Selector) string { return s.DefaultProfile() }))
	case "next":
		os.Exit(runName(args[1:], "next", func(s *profile.Selector) string { return s.NextValidProfile("") }))
	case "apply":
		os.Exit(runApply(args[1:]))
	case "cycle":
		os.Exit(runCycle(args[1:]))
	case "auto":
		os.Exit(runAuto(args[1:]))
	case "cycle-sink":
		os.Exit(runCycleSink(args[1:]))
	case "cycle-primary":
		os.Exit(runCyclePrimary(args[1:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: displayctl [-v|-vv] <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  state               Print the screen state as known by the tool")
	fmt.Fprintln(w, "  primary-resolution  Print the primary output's resolution")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  list                List available profiles")
	fmt.Fprintln(w, "  current             Print the currently active profile name")
	fmt.Fprintln(w, "  default             Print the default profile for the connected outputs")
	fmt.Fprintln(w, "  next                Print the next valid profile name")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  apply <name>        Apply the named profile")
	fmt.Fprintln(w, "  cycle               Apply the next valid profile")
	fmt.Fprintln(w, "  auto                Apply the default profile")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  cycle-primary       Cycle the primary output among candidates")
	fmt.Fprintln(w, "  cycle-sink          Cycle the audio sink among profile candidates")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Exit status is 1 when no valid profile could be determined.")
}

// parseNoArgs handles the shared flag boilerplate of argument-less commands.
func parseNoArgs(name string, args []string, usage string) (ok bool, status int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: displayctl %s\n\n%s\n", name, usage)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return false, 0
		}
		return false, 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return false, 2
	}
	return true, 0
}

func runState(args []string) int {
	if ok, status := parseNoArgs("state", args, "Print the parsed display topology."); !ok {
		return status
	}
	screen, err := xrandr.New().Screen()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(screen)
	return 0
}

func runPrimaryResolution(args []string) int {
	if ok, status := parseNoArgs("primary-resolution", args, "Print the primary output's resolution."); !ok {
		return status
	}
	screen, err := xrandr.New().Screen()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	primary, err := screen.PrimaryOutput()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if primary.Configuration != nil {
		fmt.Println(primary.Configuration.Mode.Resolution)
	}
	return 0
}

func runList(args []string) int {
	if ok, status := parseNoArgs("list", args, "List the configured profile names."); !ok {
		return status
	}
	settings, err := loadSettings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, name := range settings.ProfileNames {
		fmt.Println(name)
	}
	return 0
}

func runName(args []string, command string, resolve func(*profile.Selector) string) int {
	if ok, status := parseNoArgs(command, args, "Print the resolved profile name."); !ok {
		return status
	}
	selector, err := newSelector()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	name := resolve(selector)
	if name == "" {
		return 1
	}
	fmt.Println(name)
	return 0
}

func runApply(args []string) int {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: displayctl apply <profile>")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "apply takes exactly one profile name")
		fs.Usage()
		return 2
	}
	return applyProfile(func(selector *profile.Selector) (string, error) {
		return fs.Arg(0), nil
	})
}

func runCycle(args []string) int {
	if ok, status := parseNoArgs("cycle", args, "Apply the next valid profile."); !ok {
		return status
	}
	return applyProfile(func(selector *profile.Selector) (string, error) {
		if next := selector.NextValidProfile(""); next != "" {
			return next, nil
		}
		return "", profile.ErrNoMatchingProfile
	})
}

func runAuto(args []string) int {
	if ok, status := parseNoArgs("auto", args, "Apply the default profile for the connected outputs."); !ok {
		return status
	}
	return applyProfile(func(selector *profile.Selector) (string, error) {
		if name := selector.DefaultProfile(); name != "" {
			return name, nil
		}
		return "", profile.ErrNoMatchingDefault
	})
}

func runCycleSink(args []string) int {
	if ok, status := parseNoArgs("cycle-sink", args, "Cycle the default audio sink among candidates."); !ok {
		return status
	}
	selector, err := newSelector()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	name, err := selector.CyclePactlSink()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if name == "" {
		return 1
	}
	fmt.Println(name)
	return 0
}

func runCyclePrimary(args []string) int {
	if ok, status := parseNoArgs("cycle-primary", args, "Cycle the primary output among candidates."); !ok {
		return status
	}
	selector, err := newSelector()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	name, err := selector.CyclePrimaryOutput()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(name)
	return 0
}

func applyProfile(choose func(*profile.Selector) (string, error)) int {
	selector, err := newSelector()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	name, err := choose(selector)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := selector.ApplyProfile(name); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func loadSettings() (*profile.Settings, error) {
	path, err := profile.SettingsPath()
	if err != nil {
		return nil, err
	}
	return profile.LoadSettings(path)
}

func newSelector() (*profile.Selector, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	configDir, err := profile.ConfigDir()
	if err != nil {
		return nil, err
	}
	// The engine works without a window system connection; the settle poll
	// is simply skipped.
	var root profile.RootIdentifier
	if conn, err := x11.NewConnection(); err == nil {
		root = conn
	} else {
		slog.Warn("no X connection, settle polling disabled", "error", err)
	}
	return profile.NewSelector(settings, xrandr.New(), pactl.New(), root, profile.Hooks{Dir: configDir})
}
