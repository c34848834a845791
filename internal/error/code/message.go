package code

var codeMessageMap = map[int]string{
	ErrSuccess:         "success",
	ErrUnknown:         "internal server error",
	ErrBind:            "invalid request parameters",
	ErrValidation:      "request validation failed",
	ErrTokenInvalid:    "invalid authentication token",
	ErrTooManyRequests: "too many requests, please slow down",
	ErrForbidden:       "permission denied",
	ErrNotFound:        "resource not found",
	ErrConflict:        "request conflicts with the current state",
	ErrCreated:         "created",

	ErrUserNotFound:          "user not found",
	ErrUserAlreadyExist:      "user already exists",
	ErrUserPasswordIncorrect: "invalid username or password",
	ErrUserInactive:          "account is not active",
	ErrWeakPassword:          "password does not meet the strength requirements",

	ErrLocationNotFound: "location not found",
	ErrLocationArchived: "location is archived",

	ErrAssessmentNotFound:    "assessment not found",
	ErrInvalidTransition:     "assessment status transition not allowed",
	ErrAssessmentLocked:      "assessment can no longer be edited",
	ErrInvalidRating:         "rating is out of range for the criterion",
	ErrCriterionNotInSet:     "criterion does not belong to the assessment set",
	ErrAssessmentSetNotFound: "assessment set not found",
	ErrCriterionNotFound:     "criterion not found",
	ErrCriterionInUse:        "criterion is used by existing assessments",

	ErrInspectorNotAssigned:     "not an inspector for this location",
	ErrInspectorAlreadyAssigned: "inspector already assigned to this location",
	ErrInvalidInspector:         "user cannot be assigned as inspector",

	ErrDatabase:       "database error",
	ErrRecordNotFound: "record not found",
	ErrIntegrity:      "data integrity violation",

	ErrStorage:          "object storage unavailable",
	ErrCache:            "cache unavailable",
	ErrUnsupportedMedia: "unsupported file type",
	ErrFileTooLarge:     "file too large",
	ErrOAuth:            "social login failed",

	ErrMigrationFailed:  "migration failed",
	ErrConnectionFailed: "connection failed",
}

var codeStatusMap = map[int]int{
	ErrSuccess:         StatusOK,
	ErrUnknown:         StatusInternalServerError,
	ErrBind:            StatusBadRequest,
	ErrValidation:      StatusBadRequest,
	ErrTokenInvalid:    StatusUnauthorized,
	ErrTooManyRequests: StatusTooManyRequests,
	ErrForbidden:       StatusForbidden,
	ErrNotFound:        StatusNotFound,
	ErrConflict:        StatusConflict,
	ErrCreated:         StatusCreated,

	ErrUserNotFound:          StatusNotFound,
	ErrUserAlreadyExist:      StatusConflict,
	ErrUserPasswordIncorrect: StatusUnauthorized,
	ErrUserInactive:          StatusForbidden,
	ErrWeakPassword:          StatusBadRequest,

	ErrLocationNotFound: StatusNotFound,
	ErrLocationArchived: StatusConflict,

	ErrAssessmentNotFound:    StatusNotFound,
	ErrInvalidTransition:     StatusConflict,
	ErrAssessmentLocked:      StatusConflict,
	ErrInvalidRating:         StatusBadRequest,
	ErrCriterionNotInSet:     StatusBadRequest,
	ErrAssessmentSetNotFound: StatusNotFound,
	ErrCriterionNotFound:     StatusNotFound,
	ErrCriterionInUse:        StatusConflict,

	ErrInspectorNotAssigned:     StatusForbidden,
	ErrInspectorAlreadyAssigned: StatusConflict,
	ErrInvalidInspector:         StatusBadRequest,

	ErrDatabase:       StatusInternalServerError,
	ErrRecordNotFound: StatusNotFound,
	ErrIntegrity:      StatusUnprocessableEntity,

	ErrStorage:          StatusInternalServerError,
	ErrCache:            StatusInternalServerError,
	ErrUnsupportedMedia: StatusBadRequest,
	ErrFileTooLarge:     StatusBadRequest,
	ErrOAuth:            StatusUnauthorized,

	ErrMigrationFailed:  StatusInternalServerError,
	ErrConnectionFailed: StatusInternalServerError,
}

// GetMessage returns the default message for a code
func GetMessage(code int) string {
	if msg, ok := codeMessageMap[code]; ok {
		return msg
	}
	return "internal server error"
}

// GetStatus returns the HTTP status for a code
func GetStatus(code int) int {
	if status, ok := codeStatusMap[code]; ok {
		return status
	}
	return StatusInternalServerError
}
