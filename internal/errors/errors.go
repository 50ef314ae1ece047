package errors

import "errors"

var (
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrConfiguration  = errors.New("invalid configuration")

	ErrMissingLedger   = errors.New("ledger file missing")
	ErrEmptyLedger     = errors.New("ledger file is empty")
	ErrMalformedRecord = errors.New("malformed ledger record")

	ErrResolution = errors.New("media resolution failed")
	ErrNotFound   = errors.New("media not found")

	ErrFetch           = errors.New("fetch failed")
	ErrArtifactMissing = errors.New("fetch reported success but no file was produced")
	ErrFiling          = errors.New("filing failed")
	ErrEncoderMissing  = errors.New("media encoder not available")

	ErrBatchNotFound = errors.New("batch not found")
	ErrServiceClosed = errors.New("service is shutting down")
)
