package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"shotty/pkg/colors"
	"shotty/pkg/security"
)

// LogDirEnv overrides the log directory for every invocation.
const LogDirEnv = "SHOTTY_LOG_DIR"

var (
	fileLogger  *log.Logger
	logFile     *os.File // Store file handle for proper cleanup
	loggerMutex sync.RWMutex
	minLevel    = InfoLevel
)

// Level represents logging levels
type Level int

const (
	// DebugLevel for debug messages
	DebugLevel Level = iota
	// InfoLevel for info messages
	InfoLevel
	// WarnLevel for warning messages
	WarnLevel
	// ErrorLevel for error messages
	ErrorLevel
)

// ParseLevel maps a config string (debug, info, warn, error) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// SetLevel sets the minimum level printed to the console. File logging
// records every level.
func SetLevel(level Level) {
	loggerMutex.Lock()
	minLevel = level
	loggerMutex.Unlock()
}

func enabled(level Level) bool {
	loggerMutex.RLock()
	defer loggerMutex.RUnlock()
	return level >= minLevel
}

// getDefaultLogDir returns platform-appropriate default log directory
func getDefaultLogDir(homeDir string) string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "shotty", "logs")
		}
		return filepath.Join(homeDir, "AppData", "Local", "shotty", "logs")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Logs", "shotty")
	default:
		// XDG Base Directory
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, "shotty", "logs")
		}
		return filepath.Join(homeDir, ".local", "share", "shotty", "logs")
	}
}

// getFilePermissions returns platform-appropriate file permissions
func getFilePermissions() os.FileMode {
	if runtime.GOOS == "windows" {
		return 0666
	}
	return 0600
}

// getDirPermissions returns platform-appropriate directory permissions
func getDirPermissions() os.FileMode {
	if runtime.GOOS == "windows" {
		return 0777
	}
	return 0755
}

// resolveLogDir picks the log directory: SHOTTY_LOG_DIR, then the configured
// directory, then the platform default.
func resolveLogDir(configured string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}

	dir := os.Getenv(LogDirEnv)
	if dir == "" {
		dir = configured
	}
	if dir == "" {
		return getDefaultLogDir(homeDir), nil
	}

	if security.ContainsUnsafePath(dir) {
		fmt.Fprintf(os.Stderr, "Warning: Invalid log directory path %s, using default location\n", dir)
		return getDefaultLogDir(homeDir), nil
	}
	return dir, nil
}

// SetupFileLogger opens (or reopens) today's log file. Failures only disable
// file logging; they are reported on stderr and never abort the command.
func SetupFileLogger(configuredDir string) {
	logDirPath, err := resolveLogDir(configuredDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, file logging disabled\n", err)
		return
	}

	if err := os.MkdirAll(logDirPath, getDirPermissions()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create log directory %s, file logging disabled: %v\n", logDirPath, err)
		return
	}

	logFilePath := filepath.Join(logDirPath, fmt.Sprintf("shotty-%s.log", time.Now().Format("2006-01-02")))
	// #nosec G304 - directory is validated above and the file name is fixed
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, getFilePermissions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create/open log file %s, file logging disabled: %v\n", logFilePath, err)
		return
	}

	loggerMutex.Lock()
	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error closing previous log file: %v\n", err)
		}
	}
	logFile = file
	fileLogger = log.New(file, "", 0) // No prefix, we'll add our own timestamp
	loggerMutex.Unlock()
}

// CloseLogger properly closes the log file to prevent resource leaks
// Should be called during application shutdown
func CloseLogger() {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if logFile != nil {
		if err := logFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error closing log file: %v\n", err)
		}
		logFile = nil
		fileLogger = nil
	}
}

func getTimestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

// logToFile writes a timestamped message to the log file (thread-safe)
func logToFile(level string, message string) {
	loggerMutex.RLock()
	logger := fileLogger
	loggerMutex.RUnlock()

	if logger != nil {
		logger.Printf("%s [%s] %s", getTimestamp(), level, message)
	}
}

// LogInfo logs an info message - colored to console, timestamped to file
func LogInfo(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if enabled(InfoLevel) {
		colors.PrintSuccess("[INFO] %s\n", message)
	}
	logToFile("INFO", message)
}

// LogWarn logs a warning message - colored to console, timestamped to file
func LogWarn(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if enabled(WarnLevel) {
		colors.PrintWarning("[WARN] %s\n", message)
	}
	logToFile("WARN", message)
}

// LogError logs an error message - colored to console, timestamped to file
func LogError(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	colors.PrintError("[ERROR] %s\n", message)
	logToFile("ERROR", message)
}

// LogDebug logs a debug message - colored to console, timestamped to file
func LogDebug(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if enabled(DebugLevel) {
		colors.PrintData("[DEBUG] %s\n", message)
	}
	logToFile("DEBUG", message)
}

// LogSuccess logs a success message - colored to console, timestamped to file
func LogSuccess(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if enabled(InfoLevel) {
		colors.PrintSuccess("[SUCCESS] %s\n", message)
	}
	logToFile("SUCCESS", message)
}

// Logger carries key/value fields and a debug switch on top of the
// package-level functions.
type Logger struct {
	debugEnabled bool
	noOp         bool
}

// NewLogger creates a new logger instance with debug level control
func NewLogger(debug bool) *Logger {
	return &Logger{
		debugEnabled: debug,
	}
}

// NewNoOpLogger creates a logger that discards all output
func NewNoOpLogger() *Logger {
	return &Logger{
		debugEnabled: false,
		noOp:         true,
	}
}

// formatFields converts key-value pairs to a formatted string
func (l *Logger) formatFields(fields ...interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	var parts []string
	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			parts = append(parts, fmt.Sprintf("%v=%v", fields[i], fields[i+1]))
		} else {
			parts = append(parts, fmt.Sprintf("%v=<no_value>", fields[i]))
		}
	}

	return " | " + strings.Join(parts, " ")
}

// Info logs an info message using centralized logging
func (l *Logger) Info(msg string, fields ...interface{}) {
	if l.noOp {
		return
	}
	LogInfo("%s%s", msg, l.formatFields(fields...))
}

// Debug logs a debug message (respects the debug flag)
func (l *Logger) Debug(msg string, fields ...interface{}) {
	if l.noOp || !l.debugEnabled {
		return
	}
	LogDebug("%s%s", msg, l.formatFields(fields...))
}

// Warn logs a warning message using centralized logging
func (l *Logger) Warn(msg string, fields ...interface{}) {
	if l.noOp {
		return
	}
	LogWarn("%s%s", msg, l.formatFields(fields...))
}

// Error logs an error message using centralized logging
func (l *Logger) Error(msg string, fields ...interface{}) {
	if l.noOp {
		return
	}
	LogError("%s%s", msg, l.formatFields(fields...))
}
