package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "qgate"

	// ConfigFileName is the default config file name
	ConfigFileName = "qgate.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "QGATE"

	// DefaultArtifactsDir is where analyzers drop their JSON artifacts
	DefaultArtifactsDir = ".claude/.artifacts"
)

// Analysis keys used by the consolidator
const (
	AnalysisConnascence  = "connascence"
	AnalysisArchitecture = "architecture"
	AnalysisMECE         = "mece"
	AnalysisSecurity     = "security"
	AnalysisCache        = "cache"
)

// Output format constants
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)
