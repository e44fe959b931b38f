package qa

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/learnx/internal/shared"
)

// Message type tags on the wire.
const (
	TypeAuth               = "auth"
	TypeTextQuestion       = "text_question"
	TypeVoiceQuestion      = "voice_question"
	TypeAuthSuccess        = "auth_success"
	TypeTranscriptionReady = "transcription_ready"
	TypeTextResponse       = "text_response"
	TypeError              = "error"
	TypeTranscribing       = "transcribing"
	TypeAudioReady         = "audio_ready"
)

var (
	ErrUnknownMessage = errors.New("unknown message type")
	ErrEmptyMessage   = errors.New("message is empty")
)

// Outbound is a client to server message: [Auth], [TextQuestion] or [VoiceQuestion].
type Outbound interface {
	Type() string
	outbound()
}

// Auth is the handshake sent when the socket opens.
type Auth struct {
	Token    string
	CourseID string
}

// TextQuestion asks a typed question.
type TextQuestion struct {
	Question string
	CourseID string
}

// VoiceQuestion carries recorded audio, base64 encoded.
type VoiceQuestion struct {
	AudioData string
}

// NewVoiceQuestion encodes raw audio into a VoiceQuestion.
func NewVoiceQuestion(audio []byte) VoiceQuestion {
	if len(audio) == 0 {
		return VoiceQuestion{}
	}
	return VoiceQuestion{AudioData: base64.StdEncoding.EncodeToString(audio)}
}

func (Auth) Type() string          { return TypeAuth }
func (TextQuestion) Type() string  { return TypeTextQuestion }
func (VoiceQuestion) Type() string { return TypeVoiceQuestion }

func (Auth) outbound()          {}
func (TextQuestion) outbound()  {}
func (VoiceQuestion) outbound() {}

type outboundFrame struct {
	Type      string `json:"type"`
	Token     string `json:"token,omitempty"`
	Question  string `json:"question,omitempty"`
	AudioData string `json:"audio_data,omitempty"`
	CourseID  string `json:"course_id,omitempty"`
}

// Validate rejects questions that carry nothing to ask.
func Validate(msg Outbound) error {
	switch m := msg.(type) {
	case Auth:
		if strings.TrimSpace(m.Token) == "" {
			return fmt.Errorf("%w: auth token", ErrEmptyMessage)
		}
	case TextQuestion:
		if strings.TrimSpace(m.Question) == "" {
			return fmt.Errorf("%w: question", ErrEmptyMessage)
		}
	case VoiceQuestion:
		if m.AudioData == "" {
			return fmt.Errorf("%w: audio data", ErrEmptyMessage)
		}
	case nil:
		return ErrEmptyMessage
	}
	return nil
}

// Encode renders msg as a JSON text frame.
func Encode(msg Outbound) ([]byte, error) {
	var f outboundFrame
	switch m := msg.(type) {
	case Auth:
		f = outboundFrame{Type: TypeAuth, Token: m.Token, CourseID: m.CourseID}
	case TextQuestion:
		f = outboundFrame{Type: TypeTextQuestion, Question: m.Question, CourseID: m.CourseID}
	case VoiceQuestion:
		f = outboundFrame{Type: TypeVoiceQuestion, AudioData: m.AudioData}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessage, msg)
	}
	return json.Marshal(f)
}

// Inbound is a server to client message.
type Inbound interface {
	Type() string
	inbound()
}

// AuthSuccess confirms the handshake.
type AuthSuccess struct{}

// TranscriptionReady carries the text recognized from a voice question.
type TranscriptionReady struct {
	TranscribedText string
}

// TextResponse is the assistant's answer.
type TextResponse struct {
	Text string
}

// Error is a backend error or a locally generated connection failure.
type Error struct {
	Message string
}

// Transcribing reports that a voice question is being processed.
type Transcribing struct {
	Status string
}

// AudioReady carries a spoken rendition of the answer, base64 encoded.
type AudioReady struct {
	AudioData   string
	AudioFormat string
}

func (AuthSuccess) Type() string        { return TypeAuthSuccess }
func (TranscriptionReady) Type() string { return TypeTranscriptionReady }
func (TextResponse) Type() string       { return TypeTextResponse }
func (Error) Type() string              { return TypeError }
func (Transcribing) Type() string       { return TypeTranscribing }
func (AudioReady) Type() string         { return TypeAudioReady }

// Failed reports whether the backend could not recognize any speech.
func (t TranscriptionReady) Failed() bool {
	return t.TranscribedText == shared.TranscriptionFailedText
}

func (AuthSuccess) inbound()        {}
func (TranscriptionReady) inbound() {}
func (TextResponse) inbound()       {}
func (Error) inbound()              {}
func (Transcribing) inbound()       {}
func (AudioReady) inbound()         {}

// Audio decodes the answer audio.
func (a AudioReady) Audio() ([]byte, error) {
	return base64.StdEncoding.DecodeString(a.AudioData)
}

func (e Error) Error() string {
	return e.Message
}

type inboundFrame struct {
	Type            string `json:"type"`
	TranscribedText string `json:"transcribed_text"`
	Text            string `json:"text"`
	Message         string `json:"message"`
	Status          string `json:"status"`
	AudioData       string `json:"audio_data"`
	AudioFormat     string `json:"audio_format"`
}

// Decode parses one inbound frame. Unknown tags yield [ErrUnknownMessage].
func Decode(data []byte) (Inbound, error) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	switch f.Type {
	case TypeAuthSuccess:
		return AuthSuccess{}, nil
	case TypeTranscriptionReady:
		return TranscriptionReady{TranscribedText: f.TranscribedText}, nil
	case TypeTextResponse:
		return TextResponse{Text: f.Text}, nil
	case TypeError:
		return Error{Message: f.Message}, nil
	case TypeTranscribing:
		return Transcribing{Status: f.Status}, nil
	case TypeAudioReady:
		return AudioReady{AudioData: f.AudioData, AudioFormat: f.AudioFormat}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, f.Type)
	}
}
