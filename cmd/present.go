package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/desertthunder/learnx/internal/formatter"
	"github.com/desertthunder/learnx/internal/player"
	"github.com/desertthunder/learnx/internal/server"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/desertthunder/learnx/internal/tasks"
	"github.com/desertthunder/learnx/internal/ui"
	"github.com/urfave/cli/v3"
)

func presentationID(cmd *cli.Command) (string, error) {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return "", fmt.Errorf("%w: presentation id", shared.ErrMissingArgument)
	}
	return id, nil
}

// withCache wires the slide cache into the engine when --cache is set. The returned func closes it.
func (r *Runner) withCache(cmd *cli.Command) (func(), error) {
	if !cmd.Bool("cache") {
		return func() {}, nil
	}
	db, err := r.openCache()
	if err != nil {
		return nil, err
	}
	return func() { db.Close() }, nil
}

// logProgress drains progress into the logger until the channel is closed.
func (r *Runner) logProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if err, ok := update.Data.(error); ok {
				r.logger.Warn(update.Message, "phase", update.Phase, "error", err)
				continue
			}
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()
	return done
}

// open fetches a presentation while logging progress.
func (r *Runner) open(ctx context.Context, id string) (*tasks.OpenResult, error) {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.logProgress(progress)

	result, err := r.engine.Open(ctx, id, progress)
	close(progress)
	<-done

	if err != nil {
		return nil, fmt.Errorf("failed to open presentation %s: %w", id, err)
	}
	if len(result.Unavailable) > 0 {
		r.logger.Warn("some slides are unavailable", "slides", result.Unavailable)
	}
	return result, nil
}

// PresentShow lists a presentation's slides.
func (r *Runner) PresentShow(ctx context.Context, cmd *cli.Command) error {
	id, err := presentationID(cmd)
	if err != nil {
		return err
	}
	closeCache, err := r.withCache(cmd)
	if err != nil {
		return err
	}
	defer closeCache()

	result, err := r.open(ctx, id)
	if err != nil {
		return err
	}
	pres := result.Presentation

	if cmd.Bool("json") {
		slides := make([]map[string]any, len(pres.Slides))
		for i, s := range pres.Slides {
			slides[i] = map[string]any{
				"number": s.Number,
				"id":     s.ID,
				"title":  s.Title,
				"audio":  s.AudioRef,
				"text":   formatter.HTMLToText(s.Markup),
			}
		}
		return r.writeJSON(map[string]any{
			"id":          pres.ID,
			"title":       pres.Title,
			"slides":      slides,
			"unavailable": result.Unavailable,
			"cached":      result.Cached,
		}, true)
	}

	if _, err := r.output.Write(formatter.PresentationToText(pres, cmd.Int("preview"))); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if result.Probed {
		r.writePlainln("Note: no manifest was available; slides were discovered one by one.")
	}
	return nil
}

// PresentPlay plays a presentation in the terminal.
func (r *Runner) PresentPlay(ctx context.Context, cmd *cli.Command) error {
	id, err := presentationID(cmd)
	if err != nil {
		return err
	}
	closeCache, err := r.withCache(cmd)
	if err != nil {
		return err
	}
	defer closeCache()

	if err := r.useFileLogger("present"); err != nil {
		return err
	}

	media, loader, err := r.newMedia(cmd.Bool("silent"), cmd.Duration("reading-time"))
	if err != nil {
		return err
	}

	p := player.New(media, loader, player.Options{
		AdvanceDelay: r.advanceDelay(),
		Volume:       r.config.Presentation.Volume,
		Logger:       r.logger,
	})
	defer p.Close()

	model := ui.NewModel(ctx, id, r.engine, p, !cmd.Bool("manual"))
	if err := r.runProgram(model); err != nil {
		return err
	}
	return model.Err()
}

func (r *Runner) newMedia(silent bool, reading time.Duration) (player.Media, player.Loader, error) {
	if silent {
		return player.NewNopMedia(reading), player.SilentLoader{}, nil
	}

	media, err := player.NewSpeakerMedia()
	if err != nil {
		return nil, nil, fmt.Errorf("%w (use --silent to play without audio)", err)
	}
	return media, player.NewHTTPLoader(r.api, r.config.Presentation.RateLimit), nil
}

// PresentOpen serves the slides locally and opens them in a browser until interrupted.
func (r *Runner) PresentOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := presentationID(cmd)
	if err != nil {
		return err
	}
	closeCache, err := r.withCache(cmd)
	if err != nil {
		return err
	}
	defer closeCache()

	result, err := r.open(ctx, id)
	if err != nil {
		return err
	}

	n := cmd.Int("slide")
	if n < 0 || n > len(result.Slides) {
		return fmt.Errorf("%w: --slide must be between 1 and %d", shared.ErrInvalidFlag, len(result.Slides))
	}

	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.Logging(r.logger))
	router.Handler(server.NewSlideHandler(result.Presentation.Title, result.Slides))

	addr := net.JoinHostPort(r.config.Server.Host, strconv.Itoa(r.config.Server.Port))
	srv, err := server.NewPreviewServer(addr, router)
	if err != nil {
		return err
	}

	url := srv.URL()
	if n > 0 {
		url += server.SlidePath(n)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve() }()

	r.writePlain("Serving %s at %s\n", result.Presentation.Title, url)
	r.writePlain("Press Ctrl+C to stop\n")
	if !cmd.Bool("no-browser") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop preview server: %w", err)
	}
	return <-errc
}

// PresentExport writes a presentation's markup, optional narration and a manifest to disk.
func (r *Runner) PresentExport(ctx context.Context, cmd *cli.Command) error {
	id, err := presentationID(cmd)
	if err != nil {
		return err
	}
	closeCache, err := r.withCache(cmd)
	if err != nil {
		return err
	}
	defer closeCache()

	opts := tasks.ExportOpts{
		Format:    cmd.String("format"),
		OutputDir: cmd.String("output"),
		Audio:     cmd.Bool("audio"),
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Total > 0 && update.Phase != tasks.FetchManifest {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Export(ctx, id, opts, progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	m := result.Manifest
	r.writePlainln("")
	r.writePlainHeader("Export Complete")
	r.writePlain("Presentation: %s\n", m.Title)
	r.writePlain("Directory:    %s\n", m.OutputDirectory)
	r.writePlain("Slides:       %d/%d exported\n", m.SuccessfulExports, m.TotalSlides)
	if m.FailedExports > 0 {
		r.writePlain("Failed:       %d\n", m.FailedExports)
	}
	r.writePlain("Manifest:     %s\n", result.ManifestPath)
	return nil
}

// PresentGenerate asks the backend to generate presentation content.
func (r *Runner) PresentGenerate(ctx context.Context, cmd *cli.Command) error {
	id, err := presentationID(cmd)
	if err != nil {
		return err
	}

	data := []byte(cmd.String("data"))
	if err := shared.ValidateJSON(data); err != nil {
		return err
	}

	r.logger.Info("requesting content generation", "presentation", id)
	if err := r.content.Generate(ctx, id, data); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: generation request for %s", shared.ErrTimeout, id)
		}
		return err
	}
	return r.writePlain("✓ Generation started for %s\n", id)
}
