package fleet

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"shotty/pkg/colors"
	"shotty/pkg/errors"
)

// Failure records why one instance failed.
type Failure struct {
	InstanceID string
	Err        error
}

// BatchResult collects per-instance outcomes of a mutating operation.
type BatchResult struct {
	Action    string
	Succeeded []string
	Failed    []Failure
}

func (b *BatchResult) succeed(id string) {
	b.Succeeded = append(b.Succeeded, id)
}

func (b *BatchResult) fail(id string, err error) {
	b.Failed = append(b.Failed, Failure{InstanceID: id, Err: err})
}

// Total is the number of instances processed.
func (b *BatchResult) Total() int {
	return len(b.Succeeded) + len(b.Failed)
}

// Err is non-nil when any instance failed.
func (b *BatchResult) Err() error {
	if len(b.Failed) == 0 {
		return nil
	}
	return errors.NewAWSError(
		fmt.Sprintf("%s failed on %d of %d instances", b.Action, len(b.Failed), b.Total()),
		b.Failed[0].Err,
	)
}

// WaitError wraps a failed or timed out state wait. Waits do not abort a
// batch unless the context is done.
type WaitError struct {
	InstanceID string
	Target     string
	Err        error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("waiting for %s to be %s: %v", e.InstanceID, e.Target, e.Err)
}

func (e *WaitError) Unwrap() error {
	return e.Err
}

// fatal reports whether err must stop the whole batch rather than only the
// current instance.
func fatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	// A wait may time out on its own deadline while ctx is still live.
	var waitErr *WaitError
	if stderrors.As(err, &waitErr) {
		return false
	}
	return !errors.IsProviderError(err)
}

// WriteSummary prints the outcome of a batch.
func WriteSummary(w io.Writer, b *BatchResult) {
	if b == nil {
		return
	}

	fmt.Fprintln(w)
	_, _ = colors.Header.Fprintf(w, "=== %s Summary ===\n", capitalize(b.Action))
	_, _ = colors.Data.Fprintf(w, "Total instances: %d\n", b.Total())
	_, _ = colors.Data.Fprintf(w, "Successful: %d\n", len(b.Succeeded))
	_, _ = colors.Data.Fprintf(w, "Failed: %d\n", len(b.Failed))
	for _, f := range b.Failed {
		_, _ = colors.Error.Fprintf(w, "  ✗ %s: %v\n", f.InstanceID, f.Err)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
