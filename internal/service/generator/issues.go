package generator

import (
	"context"

	"github.com/oshokin/anya-manifestgen/internal/logger"
)

// issues accumulates the non-fatal problems of one run in the order they were found.
type issues struct {
	// messages are the recorded problems.
	messages []string
}

// newIssues creates an empty accumulator.
func newIssues() *issues {
	return &issues{}
}

// add records a problem and logs it as a warning.
func (i *issues) add(ctx context.Context, message string) {
	logger.WarnKV(ctx, "Catalog entry skipped", "reason", message)

	i.messages = append(i.messages, message)
}

// list returns the recorded problems, nil when there were none.
func (i *issues) list() []string {
	if len(i.messages) == 0 {
		return nil
	}

	return i.messages
}
