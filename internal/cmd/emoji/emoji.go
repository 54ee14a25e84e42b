// Package emoji provides symbol constants for CLI output.
package emoji

// Symbol constants give status lines a consistent look across commands.
const (
	// Success marks a completed operation, such as a sync cycle or a created account.
	Success = "✓"

	// Error marks a failed operation.
	Error = "✗"

	// Stop marks a shutdown.
	Stop = "■"

	// Warning marks a non-fatal issue, such as a dry run that wrote nothing.
	Warning = "!"

	// Info marks informational lines.
	Info = "i"

	// Launch marks a server that started listening.
	Launch = "🚀"
)
