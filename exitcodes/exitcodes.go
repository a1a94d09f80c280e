// Package exitcodes defines the standard exit codes used by op-reporter.
package exitcodes

// Exit code constants used by op-reporter
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when the reports were generated, even if some formats failed
// * Failure (1): Used for unexpected errors
// * RuntimeErr (2): Used when no report could be generated, e.g. unreadable input or bad config
const (
	Success    = 0 // Reports generated
	Failure    = 1 // Unexpected errors
	RuntimeErr = 2 // Unreadable input, malformed run result or invalid configuration
)
