package domain

// Step identifies a stage of the build pipeline.
type Step string

const (
	// StepLoad reads and interprets the manifest.
	StepLoad Step = "load"
	// StepResolve computes the effective requirement and option sets.
	StepResolve Step = "resolve"
	// StepFetch delegates fetching and building dependencies to the collaborator.
	StepFetch Step = "fetch"
	// StepStage copies shared-library artifacts next to the executable.
	StepStage Step = "stage"
	// StepBuild delegates configuring and building the application to the collaborator.
	StepBuild Step = "build"
	// StepInstall delegates installing the build outputs to the collaborator.
	StepInstall Step = "install"
)

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}
