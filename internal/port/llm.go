package port

import "context"

// Generator wraps a chat/completion model.
type Generator interface {
	// Complete runs a single blocking generation.
	Complete(ctx context.Context, prompt string) (string, error)

	// Stream starts an incremental generation.
	Stream(ctx context.Context, prompt string) (Stream, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// Stream is a forward-only, single-consumer sequence of text fragments.
// Usage mirrors sql.Rows:
//
//	for s.Next() {
//		fmt.Print(s.Fragment())
//	}
//	err := s.Err()
//
// Consumers that stop early must call Close, which aborts the upstream call.
type Stream interface {
	Next() bool
	Fragment() string
	Err() error
	Close() error
}
