package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument = 1000
	ErrCodeInvalidJSON     = 1001
	ErrCodeRequestTooLarge = 1002
	ErrCodeInvalidName     = 1004
	ErrCodeInvalidSource   = 1005
	ErrCodeInvalidType     = 1006
	ErrCodeMissingRequired = 1009
	ErrCodeInvalidStorage  = 1015

	// Domain state (2xxx)
	ErrCodeSubscriptionNotFound = 2001
	ErrCodeCollectionNotFound   = 2002
	ErrCodeArtifactNotFound     = 2003
	ErrCodeNameExists           = 2101
	ErrCodeConflict             = 2102
	ErrCodeGistTokenNotFound    = 2201

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeResourceExhausted = 3003

	// Internal/system (4xxx)
	ErrCodeInternal       = 4001
	ErrCodeStoreFailure   = 4002
	ErrCodeMigrationError = 4006

	// Remote backup (5xxx)
	ErrCodeBackupFailed = 5001
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 404:
		return ErrCodeSubscriptionNotFound
	case 409:
		return ErrCodeConflict
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	case 502:
		return ErrCodeBackupFailed
	default:
		return 0
	}
}
