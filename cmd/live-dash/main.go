package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/workmate-live/dashboard/internal/app"
	"github.com/workmate-live/dashboard/internal/config"
	"github.com/workmate-live/dashboard/internal/fakeportal"
	"github.com/workmate-live/dashboard/internal/live"
	"github.com/workmate-live/dashboard/internal/logging"
	"github.com/workmate-live/dashboard/internal/version"
	"github.com/workmate-live/dashboard/internal/views/debug"
)

const demoToken = "demo"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of live-dash",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "live-dash version %s\n", version.Get())
	},
}

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log every live update to stdout without a UI",
	RunE:  runTail,
}

var rootCmd = &cobra.Command{
	Use:   "live-dash",
	Short: "Terminal dashboard for a workmate live portal",
	Long: `live-dash mirrors a live portal in the terminal: OBS scenes and outputs,
Twitch and YouTube stats, chats and alerts, and the host agent report.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.AddCommand(versionCmd, tailCmd)
	rootCmd.PersistentFlags().StringP("config", "c", "live-dash.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().String("url", "", "portal base URL (overrides config)")
	rootCmd.PersistentFlags().String("token", "", "portal access token (overrides config)")
	rootCmd.PersistentFlags().Bool("demo", false, "run against a built-in demo portal")
}

// session is everything a command needs after setup.
type session struct {
	cfg     *config.Config
	log     *zap.Logger
	state   *live.State
	runtime *live.Runtime
	stop    func()
}

// setup loads configuration, applies flags, starts the demo portal when
// asked and logs in. logOpts are applied to the logger before anything
// uses it.
func setup(cmd *cobra.Command, adjust func(*config.Config), logOpts ...zap.Option) (*session, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("url"); v != "" {
		cfg.Portal.BaseURL, cfg.Portal.WSURL = v, ""
	}
	if v, _ := cmd.Flags().GetString("token"); v != "" {
		cfg.Portal.Token = v
	}
	if adjust != nil {
		adjust(cfg)
	}

	log, err := logging.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log = log.WithOptions(logOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	stops := []func(){cancel}

	if demo, _ := cmd.Flags().GetBool("demo"); demo {
		srv := fakeportal.New(demoToken, fakeportal.WithLogger(log))
		if err := srv.Start("127.0.0.1:0"); err != nil {
			cancel()
			return nil, fmt.Errorf("start demo portal: %w", err)
		}
		stops = append(stops, srv.Close)
		go fakeportal.NewGenerator(srv, 700*time.Millisecond).Run(ctx)
		cfg.Portal.BaseURL, cfg.Portal.WSURL, cfg.Portal.Token = srv.URL(), "", demoToken
		log.Info("demo portal running", zap.String("url", srv.URL()))
	}

	if err := cfg.Validate(); err != nil {
		cancel()
		return nil, err
	}
	if cfg.Portal.Token == "" {
		cancel()
		return nil, fmt.Errorf("no portal token: set --token, portal.token or %s", config.EnvToken)
	}

	state := live.NewState(cfg.Sync.ChatCapacity, cfg.Sync.AlertCapacity)
	opts := live.OptionsFromConfig(cfg)
	opts.Logger = log
	opts.OnAuthFailure = func() {
		log.Error("portal rejected the token; restart with a valid one")
	}
	rt := live.NewRuntime(state, opts)
	if err := rt.Login(cfg.Portal.Token); err != nil {
		cancel()
		return nil, err
	}

	return &session{
		cfg:     cfg,
		log:     log,
		state:   state,
		runtime: rt,
		stop: func() {
			rt.Logout()
			for i := len(stops) - 1; i >= 0; i-- {
				stops[i]()
			}
			_ = log.Sync()
		},
	}, nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	sink := debug.NewSink()
	s, err := setup(cmd, nil, zap.Hooks(sink.Hook))
	if err != nil {
		return err
	}
	defer s.stop()

	p := tea.NewProgram(app.New(s.runtime, s.state, sink), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
