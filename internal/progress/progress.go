// Package progress shows a spinner while a blocking wait runs.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Output receives spinner frames. The spinner stays silent when it is not
// a terminal.
var Output io.Writer = os.Stderr

// Run shows message with a spinner while fn runs and returns fn's error.
func Run(message string, fn func() error) error {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(Output))
	s.Suffix = fmt.Sprintf(" %s", message)
	start := time.Now()
	s.Start()

	err := fn()

	elapsed := time.Since(start).Round(time.Second)
	if err != nil {
		s.FinalMSG = fmt.Sprintf("✗ %s (%s)\n", message, elapsed)
	} else {
		s.FinalMSG = fmt.Sprintf("✓ %s (%s)\n", message, elapsed)
	}
	s.Stop()
	return err
}
