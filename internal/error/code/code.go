package code

// HTTP status codes.
const (
	// StatusOK - 200: success.
	StatusOK = 200
	// StatusCreated - 201: resource created.
	StatusCreated = 201
	// StatusBadRequest - 400: bad request parameters.
	StatusBadRequest = 400
	// StatusUnauthorized - 401: unauthenticated.
	StatusUnauthorized = 401
	// StatusForbidden - 403: forbidden.
	StatusForbidden = 403
	// StatusNotFound - 404: resource not found.
	StatusNotFound = 404
	// StatusConflict - 409: state or uniqueness conflict.
	StatusConflict = 409
	// StatusUnprocessableEntity - 422: integrity violation.
	StatusUnprocessableEntity = 422
	// StatusTooManyRequests - 429: too many requests.
	StatusTooManyRequests = 429
	// StatusInternalServerError - 500: internal error.
	StatusInternalServerError = 500
)

// Common codes (100xxx).
const (
	// ErrSuccess - 200: success.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500: unknown error.
	ErrUnknown
	// ErrBind - 400: request binding failed.
	ErrBind
	// ErrValidation - 400: request validation failed.
	ErrValidation
	// ErrTokenInvalid - 401: invalid token.
	ErrTokenInvalid
	// ErrTooManyRequests - 429: rate limited.
	ErrTooManyRequests
	// ErrForbidden - 403: permission denied.
	ErrForbidden
	// ErrNotFound - 404: resource not found.
	ErrNotFound
	// ErrConflict - 409: conflicting state.
	ErrConflict
	// ErrCreated - 201: resource created.
	ErrCreated
)

// User codes (101xxx).
const (
	// ErrUserNotFound - 404: user not found.
	ErrUserNotFound int = iota + 101000
	// ErrUserAlreadyExist - 409: username or email taken.
	ErrUserAlreadyExist
	// ErrUserPasswordIncorrect - 401: bad credentials.
	ErrUserPasswordIncorrect
	// ErrUserInactive - 403: banned or deleted account.
	ErrUserInactive
	// ErrWeakPassword - 400: password too weak.
	ErrWeakPassword
)

// Location codes (102xxx).
const (
	// ErrLocationNotFound - 404: location not found.
	ErrLocationNotFound int = iota + 102000
	// ErrLocationArchived - 409: location is archived.
	ErrLocationArchived
)

// Assessment codes (103xxx).
const (
	// ErrAssessmentNotFound - 404: assessment not found.
	ErrAssessmentNotFound int = iota + 103000
	// ErrInvalidTransition - 409: status transition not allowed.
	ErrInvalidTransition
	// ErrAssessmentLocked - 409: assessment can no longer be edited.
	ErrAssessmentLocked
	// ErrInvalidRating - 400: rating outside the criterion range.
	ErrInvalidRating
	// ErrCriterionNotInSet - 400: criterion does not belong to the set.
	ErrCriterionNotInSet
	// ErrAssessmentSetNotFound - 404: assessment set not found.
	ErrAssessmentSetNotFound
	// ErrCriterionNotFound - 404: criterion not found.
	ErrCriterionNotFound
	// ErrCriterionInUse - 409: criterion referenced by assessments.
	ErrCriterionInUse
)

// Inspector codes (104xxx).
const (
	// ErrInspectorNotAssigned - 403: caller is not an inspector for the location.
	ErrInspectorNotAssigned int = iota + 104000
	// ErrInspectorAlreadyAssigned - 409: assignment exists.
	ErrInspectorAlreadyAssigned
	// ErrInvalidInspector - 400: target user cannot be an inspector.
	ErrInvalidInspector
)

// Database codes (105xxx).
const (
	// ErrDatabase - 500: database error.
	ErrDatabase int = iota + 105000
	// ErrRecordNotFound - 404: record not found.
	ErrRecordNotFound
	// ErrIntegrity - 422: constraint violation.
	ErrIntegrity
)

// External service codes (106xxx).
const (
	// ErrStorage - 500: object storage failure.
	ErrStorage int = iota + 106000
	// ErrCache - 500: cache failure.
	ErrCache
	// ErrUnsupportedMedia - 400: upload type not accepted.
	ErrUnsupportedMedia
	// ErrFileTooLarge - 400: upload too large.
	ErrFileTooLarge
	// ErrOAuth - 401: social login failed.
	ErrOAuth
)

// Migration codes (109xxx).
const (
	// ErrMigrationFailed - 500: migration failed.
	ErrMigrationFailed int = iota + 109000
	// ErrConnectionFailed - 500: connection failed.
	ErrConnectionFailed
)
