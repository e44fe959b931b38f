package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/learnx/internal/shared"
)

// Answer is the outcome of one question round trip.
type Answer struct {
	Transcript string // recognized text, voice questions only
	Text       string
	Audio      *AudioReady // spoken answer when the backend sends one before the text
}

// Ask connects, waits for the handshake, sends a text question and waits for the answer.
//
// Backend errors come back as [Error] values.
func (c *Client) Ask(ctx context.Context, courseID, question string) (*Answer, error) {
	msg := TextQuestion{Question: question, CourseID: courseID}
	if err := Validate(msg); err != nil {
		return nil, err
	}
	return c.roundTrip(ctx, courseID, msg)
}

// AskVoice sends recorded audio over the socket and waits for the transcription and answer.
func (c *Client) AskVoice(ctx context.Context, courseID string, audio []byte) (*Answer, error) {
	msg := NewVoiceQuestion(audio)
	if err := Validate(msg); err != nil {
		return nil, err
	}
	return c.roundTrip(ctx, courseID, msg)
}

func (c *Client) roundTrip(ctx context.Context, courseID string, msg Outbound) (*Answer, error) {
	inbox := make(chan Inbound, 32)
	c.Connect(courseID, func(m Inbound) {
		select {
		case inbox <- m:
		default:
			c.logger.Warn("dropping Q&A message, consumer is behind", "type", m.Type())
		}
	})

	if err := c.WaitReady(ctx); err != nil {
		return nil, firstError(inbox, err)
	}
	if err := c.SendMessage(ctx, msg); err != nil {
		return nil, err
	}

	answer := &Answer{}
	for {
		select {
		case m := <-inbox:
			switch m := m.(type) {
			case TranscriptionReady:
				if m.Failed() {
					return answer, fmt.Errorf("%w: failed to transcribe audio", shared.ErrContentUnavailable)
				}
				answer.Transcript = m.TranscribedText
			case AudioReady:
				answer.Audio = &m
			case TextResponse:
				answer.Text = m.Text
				return answer, nil
			case Error:
				return answer, m
			case AuthSuccess, Transcribing:
			}
		case <-ctx.Done():
			return answer, ctx.Err()
		}
	}
}

// firstError prefers a backend error already delivered over the local cause.
func firstError(inbox <-chan Inbound, cause error) error {
	for {
		select {
		case m := <-inbox:
			if e, ok := m.(Error); ok && strings.TrimSpace(e.Message) != "" {
				return fmt.Errorf("%w: %s", cause, e.Message)
			}
		default:
			return cause
		}
	}
}
