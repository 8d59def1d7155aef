package commands

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/souschef-live/souschef/internal/capture"
	"github.com/souschef-live/souschef/internal/channel"
	"github.com/souschef-live/souschef/internal/config"
	"github.com/souschef-live/souschef/internal/logging"
	"github.com/souschef-live/souschef/internal/permissions"
	"github.com/souschef-live/souschef/internal/playback"
	"github.com/souschef-live/souschef/internal/session"
)

var recipeArg string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a live cooking session",
	Long: `Start a live session: microphone audio (and camera frames, when a
camera is attached) stream to the assistant, and its spoken replies play
back through the default output device.

While running:
  switch      flip the camera facing
  reconnect   tear the session down and connect again
  quit        end the session`,
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVarP(&recipeArg, "recipe", "r", "", "recipe context, inline or @file")
	runCmd.MarkFlagRequired("recipe")
	rootCmd.AddCommand(runCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	recipe, err := resolveRecipe(recipeArg)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log := logging.NewWithLevel(cfg.LogLevel)

	if apiKey() == "" {
		return fmt.Errorf("SOUSCHEF_API_KEY is not set")
	}

	// macOS requires explicit microphone approval before capture works.
	// No camera is wired on this surface, so its permission is not gated.
	if err := permissions.EnsurePermissions(false); err != nil {
		log.Fatal().Err(err).Msg("Required permissions not granted")
	}

	mic, err := capture.NewMicrophone()
	if err != nil {
		return fmt.Errorf("failed to initialize audio: %w", err)
	}
	defer mic.Close()

	facing := capture.Facing(cfg.Video.Facing)
	if facing == "" {
		facing = capture.FacingUser
	}

	ctrl := session.New(session.Config{
		Microphone: mic,
		NewOutput: func() (playback.Output, error) {
			return playback.NewOutput(cfg.Audio.OutputSampleRate, cfg.Audio.ChunkSize)
		},
		Channel: channel.NewWebSocket(log),
		Logger:  log,
		Callbacks: session.Callbacks{
			OnStatus: func(s session.Status) {
				fmt.Println("Session:", s)
			},
			OnError: func(message string) {
				fmt.Fprintln(os.Stderr, message)
			},
		},
		Live: channel.Config{
			Endpoint: cfg.Live.Endpoint,
			APIKey:   apiKey(),
			Model:    cfg.Live.Model,
			Voice:    cfg.Live.Voice,
		},
		Capture: capture.Constraints{
			DeviceID:   cfg.Audio.InputDeviceID,
			SampleRate: cfg.Audio.InputSampleRate,
			ChunkSize:  cfg.Audio.ChunkSize,
			Facing:     facing,
		},
		OutputSampleRate: cfg.Audio.OutputSampleRate,
	})

	log.Info().Msg("souschef starting...")
	if err := ctrl.Connect(recipe); err != nil {
		return err
	}
	defer ctrl.Disconnect()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	for {
		select {
		case <-sigChan:
			log.Info().Msg("Shutting down...")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch line {
			case "switch":
				if err := ctrl.SwitchDevice(); err != nil {
					fmt.Fprintln(os.Stderr, "switch failed:", err)
					continue
				}
				// Remember the facing for the next session.
				facing = facing.Flip()
				cfg.Video.Facing = string(facing)
				if err := cfg.Save(); err != nil {
					log.Warn().Err(err).Msg("Failed to persist config")
				}
			case "reconnect":
				if err := ctrl.Reconnect(); err != nil {
					fmt.Fprintln(os.Stderr, "reconnect failed:", err)
				}
			case "quit", "exit":
				return nil
			case "":
			default:
				fmt.Println("commands: switch, reconnect, quit")
			}
		}
	}
}

// resolveRecipe returns the recipe text, reading @-prefixed arguments
// from disk.
func resolveRecipe(arg string) (string, error) {
	if !strings.HasPrefix(arg, "@") {
		return arg, nil
	}
	data, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
	if err != nil {
		return "", fmt.Errorf("failed to read recipe file: %w", err)
	}
	return string(data), nil
}
