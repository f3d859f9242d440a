package ws

import "encoding/json"

// MessageType constants for the session WebSocket protocol.
const (
	// Client -> Server
	TypeSelectOption    = "select_option"
	TypeSubmitAnswer    = "submit_answer"
	TypeUpdateAnswer    = "update_answer"
	TypeNext            = "next"
	TypePrevious        = "previous"
	TypeEndSession      = "end_session"
	TypeToggleListening = "toggle_listening"
	TypeStartListening  = "start_listening"
	TypeStopListening   = "stop_listening"
	TypeReadAloud       = "read_aloud"
	TypeSpeechEvent     = "speech_event"
	TypeRequestState    = "request_state"

	// Server -> Client
	TypeSessionState    = "session_state"
	TypeNotice          = "notice"
	TypeSessionComplete = "session_complete"
	TypeSpeechStart     = "speech_start"
	TypeSpeechStop      = "speech_stop"
	TypeSpeechAbort     = "speech_abort"
	TypeSpeak           = "speak"
	TypeSpeakCancel     = "speak_cancel"
	TypeError           = "error"
	TypePing            = "ping"
	TypePong            = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(msgType string, payload any) (Message, error) {
	msg := Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = data
	return msg, nil
}

// Client Messages (incoming)

type SelectOptionPayload struct {
	OptionID string `json:"option_id"`
}

type SubmitAnswerPayload struct {
	Text string `json:"text"`
}

type UpdateAnswerPayload struct {
	Text string `json:"text"`
}

type ReadAloudPayload struct {
	// Text is optional; empty reads the current question.
	Text string `json:"text,omitempty"`
}

type SpeechEventPayload struct {
	SessionID  uint64 `json:"session_id"`
	Kind       string `json:"kind"` // start, result, error, end
	Transcript string `json:"transcript,omitempty"`
	Final      bool   `json:"final,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Server Messages (outgoing)

type SpeechStartPayload struct {
	SessionID uint64 `json:"session_id"`
	Mode      string `json:"mode"` // match or dictation
}

type SpeechControlPayload struct {
	SessionID uint64 `json:"session_id"`
}

type SpeakPayload struct {
	Text string `json:"text"`
}

type NoticePayload struct {
	Level   string `json:"level"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SessionCompletePayload struct {
	ResultID        string `json:"result_id"`
	Title           string `json:"quiz_title"`
	Score           int    `json:"score"`
	TotalQuestions  int    `json:"total_questions"`
	Attempted       int    `json:"attempted_questions"`
	Skipped         int    `json:"skipped_questions"`
	Percentage      int    `json:"percentage"`
	FeedbackMessage string `json:"feedback_message"`
}
