package ir

// Version constants for the record model and the tool.
const (
	// FormatVersion is the record wire format version.
	FormatVersion = 1

	// ToolVersion is the pregen version recorded in the ledger.
	ToolVersion = "0.1.0"
)
