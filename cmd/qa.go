package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/learnx/internal/qa"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/desertthunder/learnx/internal/ui"
	"github.com/urfave/cli/v3"
)

// answerTimeout bounds one question round trip from the CLI.
const answerTimeout = 2 * time.Minute

// QAAsk sends a text question and prints the answer.
func (r *Runner) QAAsk(ctx context.Context, cmd *cli.Command) error {
	question := strings.TrimSpace(cmd.StringArg("question"))
	if question == "" {
		return fmt.Errorf("%w: question", shared.ErrMissingArgument)
	}
	courseID := cmd.String("course")

	ctx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	client := r.qaClient()
	defer client.Close()

	r.logger.Info("asking question", "course", courseID)
	answer, err := client.Ask(ctx, courseID, question)
	if err != nil {
		return fmt.Errorf("question failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{"question": question, "answer": answer.Text}, true)
	}
	return r.writePlain("%s\n", answer.Text)
}

// QAVoice sends a recorded question over the socket.
func (r *Runner) QAVoice(ctx context.Context, cmd *cli.Command) error {
	audio, err := shared.VerifyAndReadFile(cmd.StringArg("file"))
	if err != nil {
		return err
	}
	courseID := cmd.String("course")

	ctx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	client := r.qaClient()
	defer client.Close()

	r.logger.Info("sending voice question", "bytes", len(audio), "course", courseID)
	answer, err := client.AskVoice(ctx, courseID, audio)
	if err != nil {
		return fmt.Errorf("voice question failed: %w", err)
	}

	if answer.Transcript != "" {
		r.writePlain("You asked: %s\n\n", answer.Transcript)
	}
	r.writePlain("%s\n", answer.Text)

	if path := cmd.String("save-audio"); path != "" && answer.Audio != nil {
		return r.saveSpokenAnswer(path, answer.Audio)
	}
	return nil
}

func (r *Runner) saveSpokenAnswer(path string, audio *qa.AudioReady) error {
	data, err := audio.Audio()
	if err != nil {
		return fmt.Errorf("%w: spoken answer is not base64: %v", shared.ErrInvalidInput, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write spoken answer: %w", err)
	}
	r.logger.Info("spoken answer saved", "path", path, "format", audio.AudioFormat)
	return r.writePlainln("Spoken answer saved to: %s", path)
}

// QATranscribe sends a recording to the transcription endpoint.
func (r *Runner) QATranscribe(ctx context.Context, cmd *cli.Command) error {
	audio, err := shared.VerifyAndReadFile(cmd.StringArg("file"))
	if err != nil {
		return err
	}

	text, err := r.qaClient().TranscribeAudio(ctx, audio, cmd.String("course"))
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}
	return r.writePlain("%s\n", text)
}

// QAChat opens the interactive Q&A view.
func (r *Runner) QAChat(ctx context.Context, cmd *cli.Command) error {
	if err := r.useFileLogger("chat"); err != nil {
		return err
	}

	client := r.qaClient()
	defer client.Close()

	return r.runProgram(ui.NewChatModel(ctx, client, cmd.String("course")))
}
