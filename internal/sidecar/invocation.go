package sidecar

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// CommandSpec is a fully resolved invocation: executable path, argument list,
// and complete environment. Building these structurally instead of
// concatenating shell strings keeps quoting bugs out of everything except the
// two strategies that genuinely hand a line to a shell.
type CommandSpec struct {
	Path string
	Args []string
	Env  []string
}

// Launcher translates a logical sidecar command into a concrete invocation.
type Launcher interface {
	Command(args []string, env map[string]string) CommandSpec
}

// DirectExec runs the sidecar binary as-is.
type DirectExec struct {
	Binary string
}

func (d DirectExec) Command(args []string, env map[string]string) CommandSpec {
	return CommandSpec{
		Path: d.Binary,
		Args: append([]string(nil), args...),
		Env:  mergeEnviron(env),
	}
}

// UserShell runs the sidecar through the user's interactive login shell so
// profile environment and PATH additions apply.
type UserShell struct {
	Binary string
	// Shell overrides $SHELL; empty falls back to $SHELL, then /bin/sh.
	Shell string
}

func (u UserShell) Command(args []string, env map[string]string) CommandSpec {
	shell := u.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}

	line := fmt.Sprintf("%q %s", u.Binary, joinShellArgs(args))
	if strings.HasSuffix(shell, "/nu") {
		// nushell treats a quoted path as a string, not a command.
		line = "^" + line
	}

	return CommandSpec{
		Path: shell,
		Args: []string{"-il", "-c", line},
		Env:  mergeEnviron(env),
	}
}

// WSL runs the sidecar inside the default WSL distribution through a login
// bash, with the environment re-expressed as an escaped prefix on the remote
// command line.
type WSL struct {
	// RemoteBinary is the sidecar path inside WSL. Defaults to the per-user
	// install location.
	RemoteBinary string
}

func (w WSL) Command(args []string, env map[string]string) CommandSpec {
	remote := w.RemoteBinary
	if remote == "" {
		remote = `$HOME/.skipper/bin/sidecar`
	}

	prefix := make([]string, 0, len(env))
	for _, key := range sortedKeys(env) {
		prefix = append(prefix, key+"="+shellEscape(env[key]))
	}

	script := strings.Join([]string{
		"set -e",
		fmt.Sprintf(`BIN="%s"`, remote),
		fmt.Sprintf(`%s exec "$BIN" %s`, strings.Join(prefix, " "), joinShellArgs(args)),
	}, "\n")

	return CommandSpec{
		Path: "wsl",
		Args: []string{"-e", "bash", "-lc", script},
		Env:  os.Environ(),
	}
}

func joinShellArgs(args []string) string {
	escaped := make([]string, len(args))
	for i, arg := range args {
		escaped[i] = shellEscape(arg)
	}
	return strings.Join(escaped, " ")
}

func shellEscape(input string) string {
	if input == "" {
		return "''"
	}
	if !strings.ContainsAny(input, " \t\n'\"\\$`!*?[](){}<>|&;~#") {
		return input
	}
	return "'" + strings.ReplaceAll(input, "'", `'"'"'`) + "'"
}

func mergeEnviron(env map[string]string) []string {
	merged := os.Environ()
	for _, key := range sortedKeys(env) {
		merged = append(merged, key+"="+env[key])
	}
	return merged
}

func sortedKeys(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
