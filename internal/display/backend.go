// Package display decides which Linux windowing backend the shell should
// use.
//
// The decision is a pure function over an immutable snapshot of session
// environment variables plus the persisted user preference, so tests never
// touch the real process environment.
package display

import (
	"os"
	"strings"
)

// Backend is the windowing backend recommendation for the shell.
type Backend string

const (
	// BackendAuto lets the toolkit try Wayland first with X11 fallback.
	BackendAuto    Backend = "auto"
	BackendWayland Backend = "wayland"
	BackendX11     Backend = "x11"
)

// Decision pairs a backend with a human-readable explanation.
type Decision struct {
	Backend Backend
	Note    string
}

// SessionEnv is an immutable snapshot of the environment inputs the
// heuristics read.
type SessionEnv struct {
	WaylandDisplay    bool
	XDGSessionType    string
	Display           bool
	XDGCurrentDesktop string
	XDGSessionDesktop string
	DesktopSession    string
	AllowWayland      string
	ForceX11          string
	ForceWayland      string
	I3Sock            bool
}

// Capture snapshots the current process environment.
func Capture() SessionEnv {
	return SessionEnv{
		WaylandDisplay:    os.Getenv("WAYLAND_DISPLAY") != "",
		XDGSessionType:    os.Getenv("XDG_SESSION_TYPE"),
		Display:           os.Getenv("DISPLAY") != "",
		XDGCurrentDesktop: os.Getenv("XDG_CURRENT_DESKTOP"),
		XDGSessionDesktop: os.Getenv("XDG_SESSION_DESKTOP"),
		DesktopSession:    os.Getenv("DESKTOP_SESSION"),
		AllowWayland:      os.Getenv("SKIPPER_ALLOW_WAYLAND"),
		ForceX11:          os.Getenv("SKIPPER_FORCE_X11"),
		ForceWayland:      os.Getenv("SKIPPER_FORCE_WAYLAND"),
		I3Sock:            os.Getenv("I3SOCK") != "",
	}
}

// SelectBackend recommends a backend for the captured session. A nil result
// means no recommendation: the session is not Wayland and nothing was
// forced, so the toolkit default stands.
func SelectBackend(env SessionEnv, preferWayland bool) *Decision {
	if isTruthy(env.ForceX11) {
		return &Decision{Backend: BackendX11, Note: "forcing X11 via SKIPPER_FORCE_X11"}
	}
	if isTruthy(env.ForceWayland) {
		return &Decision{Backend: BackendWayland, Note: "forcing native Wayland via SKIPPER_FORCE_WAYLAND"}
	}
	if !isWaylandSession(env) {
		return nil
	}
	if preferWayland {
		return &Decision{Backend: BackendWayland, Note: "Wayland session detected; native Wayland chosen from settings"}
	}
	if isTruthy(env.AllowWayland) {
		return &Decision{Backend: BackendWayland, Note: "Wayland session detected; native Wayland via SKIPPER_ALLOW_WAYLAND"}
	}
	return &Decision{Backend: BackendAuto, Note: "Wayland session detected; using Wayland first with X11 fallback"}
}

// UseDecorations reports whether the shell should request server-side window
// decorations: tiling window managers get none, full desktops do.
func UseDecorations(env SessionEnv) bool {
	if isKnownTilingSession(env) {
		return false
	}
	if !isWaylandSession(env) {
		return true
	}
	return isFullDesktopSession(env)
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func isWaylandSession(env SessionEnv) bool {
	return env.WaylandDisplay || strings.EqualFold(env.XDGSessionType, "wayland")
}

func isFullDesktopSession(env SessionEnv) bool {
	full := map[string]struct{}{
		"gnome": {}, "kde": {}, "plasma": {}, "xfce": {}, "xfce4": {},
		"x-cinnamon": {}, "cinnamon": {}, "mate": {}, "lxqt": {},
		"budgie": {}, "pantheon": {}, "deepin": {}, "unity": {}, "cosmic": {},
	}
	for token := range desktopTokens(env) {
		if _, ok := full[token]; ok {
			return true
		}
	}
	return false
}

func isKnownTilingSession(env SessionEnv) bool {
	if env.I3Sock {
		return true
	}
	tiling := map[string]struct{}{
		"niri": {}, "sway": {}, "swayfx": {}, "hyprland": {}, "river": {},
		"i3": {}, "i3wm": {}, "bspwm": {}, "dwm": {}, "qtile": {}, "xmonad": {},
	}
	for token := range desktopTokens(env) {
		if _, ok := tiling[token]; ok {
			return true
		}
	}
	return false
}

func desktopTokens(env SessionEnv) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, source := range []string{env.XDGCurrentDesktop, env.XDGSessionDesktop, env.DesktopSession} {
		for _, token := range strings.Split(source, ":") {
			if trimmed := strings.ToLower(strings.TrimSpace(token)); trimmed != "" {
				tokens[trimmed] = struct{}{}
			}
		}
	}
	return tokens
}
