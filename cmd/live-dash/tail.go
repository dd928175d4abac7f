package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/workmate-live/dashboard/internal/config"
	"github.com/workmate-live/dashboard/internal/connectivity"
	"github.com/workmate-live/dashboard/internal/live"
)

func runTail(cmd *cobra.Command, _ []string) error {
	s, err := setup(cmd, func(cfg *config.Config) {
		cfg.Logger.Output = "stdout"
		cfg.Logger.Format = "console"
	})
	if err != nil {
		return err
	}
	defer s.stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tail(ctx, s.state, s.log.Named("tail"))
	return nil
}

// tail logs one line per changed domain until ctx is done. Chat and alert
// lines carry the newest item only; bursts coalesce.
func tail(ctx context.Context, st *live.State, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-st.Changes():
			for _, d := range st.Drain() {
				log.Info(string(d), describe(st, d)...)
			}
		}
	}
}

func describe(st *live.State, d live.Domain) []zap.Field {
	switch d {
	case live.DomainLink:
		return []zap.Field{zap.Bool("linked", st.Linked())}
	case live.DomainAgent:
		if a, ok := st.Agent.Get(); ok {
			return []zap.Field{zap.String("host", a.Hostname), zap.Bool("obs_running", a.OBS.Running)}
		}
	case live.DomainOBS:
		if o, ok := st.OBS.Get(); ok {
			fields := []zap.Field{zap.String("scene", o.CurrentScene()), zap.Int("scenes", len(o.Scenes)), zap.Int("sources", len(o.Sources))}
			if s := o.Status; s != nil && s.Streaming != nil {
				fields = append(fields, zap.Bool("streaming", s.Streaming.Active))
			}
			if s := o.Status; s != nil && s.Recording != nil {
				fields = append(fields, zap.Bool("recording", s.Recording.Active))
			}
			return fields
		}
	case live.DomainTwitchStatus, live.DomainYouTubeStatus:
		v := st.Connectivity()
		svc := v.Get(connectivity.Twitch)
		if d == live.DomainYouTubeStatus {
			svc = v.Get(connectivity.YouTube)
		}
		return []zap.Field{zap.Bool("connected", svc.Connected), zap.String("detail", svc.Detail)}
	case live.DomainTwitchStats:
		if s, ok := st.TwitchStats.Get(); ok {
			return []zap.Field{zap.Bool("live", s.IsLive), zap.Int("viewers", s.ViewerCount), zap.Int("followers", s.FollowerCount)}
		}
	case live.DomainYouTubeStats:
		if s, ok := st.YouTubeStats.Get(); ok {
			return []zap.Field{zap.Bool("live", s.IsLive), zap.Int("viewers", s.ViewerCount), zap.Int("subscribers", s.SubscriberCount)}
		}
	case live.DomainTwitchChat:
		if items := st.TwitchChat.Items(); len(items) > 0 {
			m := items[len(items)-1]
			return []zap.Field{zap.String("user", m.Username), zap.String("message", m.Message), zap.Int("held", len(items))}
		}
	case live.DomainYouTubeChat:
		if items := st.YouTubeChat.Items(); len(items) > 0 {
			m := items[len(items)-1]
			return []zap.Field{zap.String("user", m.AuthorName), zap.String("message", m.Message), zap.Int("held", len(items))}
		}
	case live.DomainTwitchAlerts:
		if items := st.TwitchAlerts.Items(); len(items) > 0 {
			a := items[0]
			return []zap.Field{zap.String("type", string(a.Type)), zap.String("user", a.Who()), zap.Int("held", len(items))}
		}
	case live.DomainActions:
		if a, ok := st.Actions.Get(); ok {
			return []zap.Field{zap.String("action", a.Action), zap.Bool("ok", a.OK()), zap.String("error", a.Err)}
		}
	}
	return []zap.Field{zap.Bool("cleared", true)}
}
