package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/subcommands"
)

// Environment passed to extensions, so that they work on the same portfolio.
const (
	EnvStore             = "GEM_STORE"
	EnvLedgerFile        = "GEM_LEDGER_FILE"
	EnvReportingCurrency = "GEM_REPORTING_CURRENCY"
	EnvLogLevel          = "GEM_LOG_LEVEL"
)

// IsCommand reports whether name is a builtin subcommand.
func IsCommand(name string) bool {
	switch name {
	case "help", "flags", "commands":
		return true
	}
	for _, cmds := range Commands {
		for _, c := range cmds {
			if c.Name() == name {
				return true
			}
		}
	}
	return false
}

// RunExtension runs the gem-<subcommand> executable found in PATH with args.
// It returns false if there is no such executable, otherwise its exit code.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "gem-" + subcommand
	lp, err := exec.LookPath(name)
	if err != nil {
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), extensionEnv()...)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return true, exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing %q: %v\n", name, err)
		return true, int(subcommands.ExitFailure)
	}
	return true, 0
}

// extensionEnv turns the global flags that were set into environment variables.
func extensionEnv() []string {
	var env []string
	if *storeKind != "" {
		env = append(env, EnvStore+"="+strings.ToLower(*storeKind))
	}
	if *ledgerFile != "" {
		env = append(env, EnvLedgerFile+"="+*ledgerFile)
	}
	if *currency != "" {
		env = append(env, EnvReportingCurrency+"="+strings.ToUpper(*currency))
	}
	if *verbose {
		env = append(env, EnvLogLevel+"=debug")
	}
	return env
}
