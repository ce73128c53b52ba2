package errors

// ExitCode is the status the fanout process exits with.
type ExitCode int

const (
	// Every job succeeded.
	SuccessExitCode ExitCode = 0

	// The run finished but some jobs did not succeed before the pass cap.
	IncompleteRunExitCode ExitCode = 1

	// Bad flags, configuration or test list.
	UsageExitCode ExitCode = 2

	// No nodes could be discovered.
	DiscoveryFailureExitCode ExitCode = 3

	InternalErrorExitCode ExitCode = 4
)
