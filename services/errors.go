package services

import "errors"

// Error taxonomy for the telemetry pipeline. Handlers map these onto HTTP
// responses; everything else travels up wrapped so errors.Is keeps working.
var (
	// ErrUnauthorized means no authenticated principal was attached to the call
	ErrUnauthorized = errors.New("missing or invalid principal")

	// ErrInvalidActivityType means the activity type is outside the closed vocabulary
	ErrInvalidActivityType = errors.New("unrecognized activity type")

	// ErrEmptyBatch means the batch payload carried no activities
	ErrEmptyBatch = errors.New("activities array is required")

	// ErrMetadataTooLarge means action.metadata exceeded the key cap
	ErrMetadataTooLarge = errors.New("action metadata exceeds size limit")

	// ErrUserNotFound means a query was scoped to a user id that does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrStoreUnavailable means the activity store could not serve the request
	ErrStoreUnavailable = errors.New("activity store unavailable")
)
