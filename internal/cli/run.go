package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/koscakluka/ema-heartcheck/core/answers"
	"github.com/koscakluka/ema-heartcheck/core/audio/miniaudio"
	"github.com/koscakluka/ema-heartcheck/core/audio/portaudio"
	"github.com/koscakluka/ema-heartcheck/core/interpret/groq"
	"github.com/koscakluka/ema-heartcheck/core/questions"
	"github.com/koscakluka/ema-heartcheck/core/session"
	"github.com/koscakluka/ema-heartcheck/core/transport/deepgram"
	"github.com/koscakluka/ema-heartcheck/core/transport/realtime"
	"github.com/koscakluka/ema-heartcheck/internal/config"
	"github.com/koscakluka/ema-heartcheck/internal/tui"
)

var (
	headless      bool
	transportName string
	scriptPath    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a voice assessment",
	Long: `Connect to the speech service, ask the questionnaire out loud and
print the collected answers as YAML once it is complete.

API keys are read from OPENAI_API_KEY, DEEPGRAM_API_KEY and GROQ_API_KEY.`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

// audioDevice is a microphone and speaker pair.
type audioDevice interface {
	session.AudioInput
	session.AudioOutput
	io.Closer
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if transportName != "" {
		cfg.Transport = transportName
	}
	if scriptPath != "" {
		cfg.Script = scriptPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	script := questions.HeartAssessment()
	if cfg.Script != "" {
		if script, err = questions.LoadFile(cfg.Script); err != nil {
			return err
		}
	}

	device, err := newAudioDevice(cfg)
	if err != nil {
		return err
	}
	defer device.Close()

	opts := append(cfg.SessionOptions(),
		session.WithScript(script),
		session.WithAudioInput(device),
		session.WithAudioOutput(device),
	)
	if cfg.Interpreter.Enabled {
		interpreter, err := groq.NewInterpreter(groq.WithModel(cfg.Interpreter.Model))
		if err != nil {
			return fmt.Errorf("creating interpreter: %w", err)
		}
		opts = append(opts, session.WithInterpreter(interpreter))
	}

	controller, err := session.New(newTransport(cfg), opts...)
	if err != nil {
		return err
	}

	var result *answers.Answers
	if headless || !tui.IsTTY() {
		result, err = runHeadless(cmd, controller)
	} else {
		result, err = tui.Run(tui.NewSessionModel(controller))
	}
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Session stopped, no answers saved.")
		return nil
	}

	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshalling answers: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func newTransport(cfg *config.Config) session.Transport {
	if cfg.Transport == config.TransportDeepgram {
		return deepgram.NewTransport(cfg.DeepgramTransportConfig())
	}
	return realtime.NewClient(cfg.RealtimeClientConfig())
}

func newAudioDevice(cfg *config.Config) (audioDevice, error) {
	if cfg.Audio.Backend == config.BackendPortaudio {
		client, err := portaudio.NewClient(cfg.Audio.BufferSize, cfg.Audio.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("opening portaudio: %w", err)
		}
		return client, nil
	}

	client, err := miniaudio.NewClient(miniaudio.WithSampleRate(cfg.Audio.SampleRate))
	if err != nil {
		return nil, fmt.Errorf("opening miniaudio: %w", err)
	}
	return client, nil
}

// runHeadless logs the conversation line by line until the session ends or
// the process is interrupted.
func runHeadless(cmd *cobra.Command, controller *session.Controller) (*answers.Answers, error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	stream, unsubscribe := controller.Subscribe(64)
	defer unsubscribe()

	go func() {
		<-ctx.Done()
		controller.Stop()
	}()

	if err := controller.Start(ctx); err != nil {
		return nil, err
	}

	out := cmd.ErrOrStderr()
	for event := range stream {
		if line, ok := tui.Describe(event); ok {
			fmt.Fprintln(out, line)
		}
	}

	if state := controller.State(); state.Phase == session.PhaseError {
		return nil, state.Err
	}
	result, ok := controller.Answers()
	if !ok {
		return nil, nil
	}
	return &result, nil
}

func init() {
	runCmd.Flags().BoolVar(&headless, "headless", false, "Log the conversation instead of showing the TUI")
	runCmd.Flags().StringVar(&transportName, "transport", "", `Speech transport, "realtime" or "deepgram"`)
	runCmd.Flags().StringVar(&scriptPath, "script", "", "Question script file (YAML or JSON)")
}
