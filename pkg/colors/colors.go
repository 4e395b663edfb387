package colors

import (
	"io"

	"github.com/fatih/color"
)

// Standardized color definitions for shotty.
// Status messages go to Output (stderr by default) so that record lines on
// stdout stay machine readable.

var (
	// Header/Section colors - bright yellow with bold for headers and section titles
	Header = color.New(color.FgHiYellow, color.Bold)

	// Data/Results colors - bright cyan for instance IDs, volume IDs and the like
	Data = color.New(color.FgHiCyan)

	// Success message colors - bright green with bold for positive feedback
	Success = color.New(color.FgHiGreen, color.Bold)

	// Error message colors - bright red with bold for error messages
	Error = color.New(color.FgHiRed, color.Bold)

	// Warning message colors - bright yellow with bold for warnings
	Warning = color.New(color.FgHiYellow, color.Bold)

	// Output receives every Print* call.
	Output io.Writer = color.Error
)

func PrintHeader(format string, args ...interface{}) {
	_, _ = Header.Fprintf(Output, format, args...)
}

func PrintData(format string, args ...interface{}) {
	_, _ = Data.Fprintf(Output, format, args...)
}

func PrintSuccess(format string, args ...interface{}) {
	_, _ = Success.Fprintf(Output, format, args...)
}

func PrintError(format string, args ...interface{}) {
	_, _ = Error.Fprintf(Output, format, args...)
}

func PrintWarning(format string, args ...interface{}) {
	_, _ = Warning.Fprintf(Output, format, args...)
}

// Color formatting functions that return colored strings
func ColorHeader(format string, args ...interface{}) string {
	return Header.Sprintf(format, args...)
}

func ColorData(format string, args ...interface{}) string {
	return Data.Sprintf(format, args...)
}

func ColorSuccess(format string, args ...interface{}) string {
	return Success.Sprintf(format, args...)
}

func ColorError(format string, args ...interface{}) string {
	return Error.Sprintf(format, args...)
}

func ColorWarning(format string, args ...interface{}) string {
	return Warning.Sprintf(format, args...)
}
