package generation

import "fmt"

// ConfigError means no active template exists for the requested category.
// This is an operator problem, not a transient one.
type ConfigError struct {
	Category string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("no active template for category %q", e.Category)
}

// GenerationError wraps the last failure after every attempt against the
// generation endpoint was exhausted. It is fatal to the triggering
// workflow; nothing re-queues it automatically.
type GenerationError struct {
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
