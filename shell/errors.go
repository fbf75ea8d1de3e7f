package shell

import "fmt"

// maxOutputLen bounds how much captured output is embedded in error messages.
const maxOutputLen = 4096

// CommandError reports an external command that exited non-zero.
type CommandError struct {
	Command  string
	Dir      string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	output := e.Output
	if len(output) > maxOutputLen {
		output = "..." + output[len(output)-maxOutputLen:]
	}
	return fmt.Sprintf("command %q failed with exit code %d in %s (output: %s)", e.Command, e.ExitCode, e.Dir, output)
}

// MissingToolError reports a required external tool that is not installed.
type MissingToolError struct {
	Tool string
	Hint string
}

func (e *MissingToolError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("%s is not installed", e.Tool)
	}
	return fmt.Sprintf("%s is not installed: %s", e.Tool, e.Hint)
}
