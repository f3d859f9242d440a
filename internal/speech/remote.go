package speech

import (
	ws "github.com/gokatarajesh/quizwhiz/pkg/http/ws"
)

// Sender delivers protocol messages to the connected client.
type Sender interface {
	Send(msg ws.Message) error
}

// RemoteEngine drives recognition running on the client. The client reports
// progress back as speech_event messages.
type RemoteEngine struct {
	sender    Sender
	supported bool
}

func NewRemoteEngine(sender Sender, supported bool) *RemoteEngine {
	return &RemoteEngine{sender: sender, supported: supported}
}

func (e *RemoteEngine) Supported() bool {
	return e.supported
}

func (e *RemoteEngine) Start(id uint64, mode Mode) error {
	return e.send(ws.TypeSpeechStart, ws.SpeechStartPayload{SessionID: id, Mode: string(mode)})
}

func (e *RemoteEngine) Stop(id uint64) error {
	return e.send(ws.TypeSpeechStop, ws.SpeechControlPayload{SessionID: id})
}

func (e *RemoteEngine) Abort(id uint64) error {
	return e.send(ws.TypeSpeechAbort, ws.SpeechControlPayload{SessionID: id})
}

func (e *RemoteEngine) send(msgType string, payload any) error {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return e.sender.Send(msg)
}

// RemoteSynthesizer speaks through the client's text-to-speech.
type RemoteSynthesizer struct {
	sender    Sender
	supported bool
}

func NewRemoteSynthesizer(sender Sender, supported bool) *RemoteSynthesizer {
	return &RemoteSynthesizer{sender: sender, supported: supported}
}

func (s *RemoteSynthesizer) Supported() bool {
	return s.supported
}

func (s *RemoteSynthesizer) Speak(text string) error {
	msg, err := ws.NewMessage(ws.TypeSpeak, ws.SpeakPayload{Text: text})
	if err != nil {
		return err
	}
	return s.sender.Send(msg)
}

func (s *RemoteSynthesizer) Cancel() error {
	return s.sender.Send(ws.Message{Type: ws.TypeSpeakCancel})
}

// EventFromPayload converts a client speech_event into an Event.
func EventFromPayload(p ws.SpeechEventPayload) Event {
	return Event{
		SessionID:  p.SessionID,
		Kind:       EventKind(p.Kind),
		Transcript: p.Transcript,
		Final:      p.Final,
		Error:      ErrorKind(p.Error),
	}
}
