package llm

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Validator parses and validates a completion. It returns an error that is
// fed back to the model on the next attempt.
type Validator[T any] func(text string) (T, error)

// RunLoop calls the client until the validator accepts the response or
// maxLoop attempts are used. Each retry carries the previous response and
// the validation error.
func RunLoop[T any](ctx context.Context, logger *log.Logger, client Client, req Request, validate Validator[T], maxLoop int) (T, error) {
	var (
		zero      T
		lastText  string
		lastError error
		prompt    = req.User
	)

	for loop := 1; loop <= maxLoop; loop++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		logger.Debug("Running completion loop", "client", client.Name(), "loop", loop)

		attempt := req
		attempt.User = prompt
		text, err := client.Complete(ctx, attempt)
		if err != nil {
			lastError = err
			continue
		}

		parsed, err := validate(text)
		if err == nil {
			return parsed, nil
		}
		logger.Debug("Completion validation failed", "client", client.Name(), "error", err)
		lastError = err
		lastText = text

		prompt = req.User + "\n\n"
		if lastText != "" {
			prompt += "Previous response:\n" + lastText + "\n"
		}
		prompt += "Error: " + lastError.Error() + "\n"
		prompt += "Please correct your response and return only the requested JSON."
	}

	return zero, fmt.Errorf("failed to get valid completion after %d attempts: %w", maxLoop, lastError)
}
