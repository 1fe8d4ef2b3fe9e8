package storage

import (
	"context"
	"errors"
	"io"

	"github.com/23skdu/eigencmc/internal/sweep"
)

// MultiSink hands every result to each of its sinks in order and stops at the
// first failure.
type MultiSink []sweep.Sink

// Write implements sweep.Sink.
func (m MultiSink) Write(ctx context.Context, r sweep.Result) error {
	for _, s := range m {
		if err := s.Write(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink implementing io.Closer and joins their errors.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
