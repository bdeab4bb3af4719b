package app

// Config holds runtime configuration for the application.
type Config struct {
	SessionPath string
	OutputPath  string
	OutputPDF   string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Sanitizer limits
	MaxWords           int
	MaxAttachmentWords int

	// Persistence
	StoreDir    string
	StrictPerms bool

	// Behavior
	DryRun  bool
	Verbose bool
}
