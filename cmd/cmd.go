// submodule cmd contains command definitions
package main

import (
	"fmt"

	"github.com/desertthunder/learnx/internal/formatter"
	"github.com/desertthunder/learnx/internal/player"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/urfave/cli/v3"
)

func courseFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "course",
		Aliases: []string{"c"},
		Usage:   "Course ID used to scope questions",
	}
}

// setupCommand handles setup operations for configuration and the cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml from the built-in template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the configuration file",
						Value: "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the slide cache database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles the bearer token
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the stored access token",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Store an access token from a flag, a copied cURL command or a password login",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "token",
						Usage: "Access token to store",
					},
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Username for a password login",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Password for a password login",
						Sources: cli.EnvVars("LEARNX_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show the stored token's decoded claims",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored token",
				Action: r.AuthLogout,
			},
		},
	}
}

// qaCommand handles course Q&A over the socket
func qaCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "qa",
		Usage: "Ask course questions",
		Commands: []*cli.Command{
			{
				Name:  "ask",
				Usage: "Ask a text question and print the answer",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "question"},
				},
				Flags: []cli.Flag{
					courseFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.QAAsk,
			},
			{
				Name:  "voice",
				Usage: "Send a recorded question and print the transcription and answer",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags: []cli.Flag{
					courseFlag(),
					&cli.StringFlag{
						Name:  "save-audio",
						Usage: "Write the spoken answer to this path when the backend sends one",
					},
				},
				Action: r.QAVoice,
			},
			{
				Name:  "transcribe",
				Usage: "Transcribe a recording without asking it",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "file"},
				},
				Flags:  []cli.Flag{courseFlag()},
				Action: r.QATranscribe,
			},
			{
				Name:   "chat",
				Usage:  "Interactive Q&A session",
				Flags:  []cli.Flag{courseFlag()},
				Action: r.QAChat,
			},
		},
	}
}

// presentCommand handles presentation playback and export
func presentCommand(r *Runner) *cli.Command {
	idArg := func() []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: "id"}}
	}
	cacheFlag := func() cli.Flag {
		return &cli.BoolFlag{
			Name:  "cache",
			Usage: "Read and store slides through the local cache",
		}
	}

	return &cli.Command{
		Name:    "present",
		Aliases: []string{"p"},
		Usage:   "Presentation operations",
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "List a presentation's slides",
				Arguments: idArg(),
				Flags: []cli.Flag{
					cacheFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.IntFlag{
						Name:  "preview",
						Usage: "Characters of slide text to preview (0 hides it)",
						Value: 60,
					},
				},
				Action: r.PresentShow,
			},
			{
				Name:      "play",
				Usage:     "Play a presentation with narration in the terminal",
				Arguments: idArg(),
				Flags: []cli.Flag{
					cacheFlag(),
					&cli.BoolFlag{
						Name:  "silent",
						Usage: "Skip audio and advance after a fixed reading time",
					},
					&cli.DurationFlag{
						Name:  "reading-time",
						Usage: "Time spent on each slide with --silent",
						Value: player.DefaultReadingTime,
					},
					&cli.BoolFlag{
						Name:  "manual",
						Usage: "Wait for space before starting narration",
					},
				},
				Action: r.PresentPlay,
			},
			{
				Name:      "open",
				Usage:     "Serve the slides locally and open them in a browser",
				Arguments: idArg(),
				Flags: []cli.Flag{
					cacheFlag(),
					&cli.IntFlag{
						Name:  "slide",
						Usage: "1-based slide to open",
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the URL without launching a browser",
					},
				},
				Action: r.PresentOpen,
			},
			{
				Name:      "export",
				Usage:     "Export slide markup, narration and a manifest to disk",
				Arguments: idArg(),
				Flags: []cli.Flag{
					cacheFlag(),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Manifest format (json, csv, markdown, txt)",
						Value:   "json",
						Validator: func(s string) error {
							if !formatter.ValidFormat(s) {
								return fmt.Errorf("%w: format must be one of %v", shared.ErrInvalidFlag, formatter.Formats)
							}
							return nil
						},
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: presentation_<id>_<timestamp>)",
					},
					&cli.BoolFlag{
						Name:  "audio",
						Usage: "Download slide narration",
					},
				},
				Action: r.PresentExport,
			},
			{
				Name:      "generate",
				Usage:     "Ask the backend to generate presentation content",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON body to send",
						Value:   "{}",
					},
				},
				Action: r.PresentGenerate,
			},
		},
	}
}

// cacheCommand handles the opt-in slide cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Cache presentations locally",
		Commands: []*cli.Command{
			{
				Name:  "presentation",
				Usage: "Fetch a presentation and store its slides",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.CachePresentation,
			},
			{
				Name:  "list",
				Usage: "List cached presentations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "title",
						Usage: "Only show titles containing this text",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:  "remove",
				Usage: "Remove a cached presentation",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.CacheRemove,
			},
		},
	}
}

// apiCommand handles direct backend calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct authenticated calls to the backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "GET a backend path and print the response",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "POST a JSON body to a backend path",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}
