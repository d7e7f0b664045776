package export

import (
	"context"
	"fmt"
	"log/slog"
)

// Sink receives a finished export document.
type Sink interface {
	Name() string
	Write(ctx context.Context, doc *Document) error
}

// WriteAll hands doc to each sink in order and stops at the first failure.
func WriteAll(ctx context.Context, doc *Document, sinks ...Sink) error {
	for _, s := range sinks {
		if err := s.Write(ctx, doc); err != nil {
			return fmt.Errorf("%s sink: %w", s.Name(), err)
		}
		slog.Info("export written", "sink", s.Name())
	}
	return nil
}
