package ir

// Version constants for the table encoding and the tool.
const (
	// FormatVersion is the version of the Table encoding (JSON, store rows, digest).
	FormatVersion = "1"

	// ToolVersion is the yodascan version.
	ToolVersion = "0.1.0"
)
