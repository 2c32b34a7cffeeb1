package audit

import "context"

// Multi fans a Record out to every underlying Sink. Close closes all of
// them, returning the first error encountered.
type Multi []Sink

func (m Multi) Record(ctx context.Context, rec Record) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, rec)
		}
	}
}

func (m Multi) Close() error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
