package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"
	ErrCodeOriginNotAllowed       = "origin_not_allowed"

	// Validation errors
	ErrCodeInvalidRequest       = "invalid_request"
	ErrCodeValidationFailed     = "validation_failed"
	ErrCodeUnsupportedMediaType = "unsupported_media_type"

	// Resource errors
	ErrCodeNotFound       = "not_found"
	ErrCodeNoActiveQuiz   = "no_active_quiz"
	ErrCodeResultNotFound = "result_not_found"
	ErrCodeConflict       = "conflict"

	// Business logic errors
	ErrCodeClientCreationFailed  = "client_creation_failed"
	ErrCodeImportFailed          = "import_failed"
	ErrCodeSettingsFailed        = "settings_failed"
	ErrCodeHistoryFetchFailed    = "history_fetch_failed"
	ErrCodeRecommendationFailed  = "recommendation_failed"
	ErrCodeRecommendationPending = "recommendation_pending"
	ErrCodeSessionAlreadyActive  = "session_already_active"
	ErrCodeSessionStartFailed    = "session_start_failed"
	ErrCodeInvalidAnswer         = "invalid_answer"
	ErrCodeSubmissionPending     = "submission_pending"
	ErrCodeAlreadyAnswered       = "already_answered"
	ErrCodeSpeechFailed          = "speech_failed"
	ErrCodeWrongQuestionType     = "wrong_question_type"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)
