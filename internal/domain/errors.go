package domain

import "errors"

var (
	// ErrStoreUnavailable indicates the persisted vector index does not exist
	// at the expected location.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrInputDirMissing indicates a corpus input directory is absent.
	ErrInputDirMissing = errors.New("input directory missing")

	// ErrEmbeddingMismatch indicates a store was built with a different
	// embedding model or dimension than the one used to query it.
	ErrEmbeddingMismatch = errors.New("embedding model mismatch")

	// ErrMalformedDataset indicates the dataset file is not an array of records.
	ErrMalformedDataset = errors.New("malformed dataset")

	// ErrEmptyDataset indicates the dataset file has no content.
	ErrEmptyDataset = errors.New("empty dataset")

	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingFailed wraps failures of the embedding backend.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrGenerationFailed wraps failures of the chat/completion backend.
	ErrGenerationFailed = errors.New("generation failed")

	ErrUnknownProvider = errors.New("unknown provider")

	ErrNotFound = errors.New("not found")
)
