package interactive

import (
	"os"
	"strconv"

	"shotty/pkg/logging"

	"github.com/ktr0731/go-fuzzyfinder"
)

// HeightEnv sets how many instance rows the picker shows.
const HeightEnv = "SHOTTY_SELECTOR_HEIGHT"

// Picker row limits.
const (
	DefaultRows = 10
	MaxRows     = 20
)

// chromeRows covers the prompt, header and border around the list.
const chromeRows = 5

// RowsFromEnv reads HeightEnv, falling back to DefaultRows and capping at
// MaxRows.
func RowsFromEnv() int {
	value := os.Getenv(HeightEnv)
	if value == "" {
		return DefaultRows
	}

	rows, err := strconv.Atoi(value)
	if err != nil || rows < 1 {
		logging.LogWarn("Invalid %s value '%s', using default of %d", HeightEnv, value, DefaultRows)
		return DefaultRows
	}
	if rows > MaxRows {
		logging.LogWarn("%s of %d is too large, limiting to %d", HeightEnv, rows, MaxRows)
		return MaxRows
	}
	return rows
}

// findRequest is one picker invocation over a slice of items.
type findRequest struct {
	Header  string
	Rows    int
	Label   func(i int) string
	Preview func(i, w, h int) string
}

// fuzzyFind runs the terminal picker and returns the chosen index.
func fuzzyFind(items interface{}, req findRequest) (int, error) {
	rows := req.Rows
	if rows < 1 {
		rows = DefaultRows
	}

	return fuzzyfinder.Find(items,
		req.Label,
		fuzzyfinder.WithCursorPosition(fuzzyfinder.CursorPositionBottom),
		fuzzyfinder.WithPromptString("instance> "),
		fuzzyfinder.WithHeader(req.Header),
		fuzzyfinder.WithMode(fuzzyfinder.ModeSmart),
		fuzzyfinder.WithHeight(rows+chromeRows),
		fuzzyfinder.WithHorizontalAlignment(fuzzyfinder.AlignLeft),
		fuzzyfinder.WithBorder(),
		fuzzyfinder.WithPreviewWindow(req.Preview),
	)
}
