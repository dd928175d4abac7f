package fakeportal

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/workmate-live/dashboard/internal/client"
)

var (
	demoChatters = []struct{ login, display, color string }{
		{"pixelpanda", "PixelPanda", "#FF69B4"},
		{"gopher_gal", "Gopher_Gal", "#00ADD8"},
		{"lagspike", "LagSpike", "#9ACD32"},
		{"modmarvin", "ModMarvin", "#1E90FF"},
		{"quietlurker", "QuietLurker", ""},
	}
	demoLines = []string{
		"hello chat!",
		"what keyboard is that?",
		"LUL",
		"that refactor was clean",
		"first time here, love the vibes",
		"is this go 1.24?",
		"brb grabbing coffee",
		"PogChamp",
	}
	demoYouTubeAuthors = []string{"Ana Costa", "devnull", "Kenji", "StreamFan42"}
)

// Generator pushes a plausible stream of chat, alerts and agent heartbeats
// to a Server, for --demo mode.
type Generator struct {
	srv      *Server
	interval time.Duration
	rng      *rand.Rand
	log      *zap.Logger
}

// NewGenerator creates a generator emitting one event per interval.
func NewGenerator(srv *Server, interval time.Duration) *Generator {
	return &Generator{
		srv:      srv,
		interval: interval,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      srv.log.Named("generator"),
	}
}

// Run emits events until ctx is cancelled.
func (g *Generator) Run(ctx context.Context) {
	limiter := rate.NewLimiter(rate.Every(g.interval), 1)
	tick := 0
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		tick++
		if err := g.step(tick); err != nil {
			g.log.Warn("demo push failed", zap.Error(err))
		}
	}
}

func (g *Generator) step(tick int) error {
	now := time.Now().UTC()
	switch {
	case tick%20 == 0:
		g.srv.Update(func(s *Snapshot) {
			s.Agent.Timestamp = now
			s.TwitchStats.ViewerCount = 20 + g.rng.Intn(40)
			s.YouTubeStats.ViewerCount = 5 + g.rng.Intn(15)
		})
		return g.srv.Push(client.MsgAgentStatus, g.srv.State().Agent)

	case tick%9 == 0:
		return g.srv.PushAlert(g.alert(now))

	case tick%4 == 0:
		return g.srv.Push(client.MsgYouTubeChat, client.YouTubeChatMessage{
			ID:              uuid.NewString(),
			AuthorName:      demoYouTubeAuthors[g.rng.Intn(len(demoYouTubeAuthors))],
			AuthorChannelID: "UC" + uuid.NewString()[:8],
			Message:         demoLines[g.rng.Intn(len(demoLines))],
			Timestamp:       now,
		})
	}

	c := demoChatters[g.rng.Intn(len(demoChatters))]
	return g.srv.Push(client.MsgTwitchChat, client.TwitchChatMessage{
		Username:    c.login,
		DisplayName: c.display,
		Color:       c.color,
		Message:     demoLines[g.rng.Intn(len(demoLines))],
		Timestamp:   now,
		IsModerator: c.login == "modmarvin",
	})
}

func (g *Generator) alert(now time.Time) client.TwitchAlert {
	c := demoChatters[g.rng.Intn(len(demoChatters))]
	a := client.TwitchAlert{Timestamp: now}
	switch g.rng.Intn(3) {
	case 0:
		a.Type = client.AlertFollow
		a.Follow = &client.FollowEvent{
			UserID: fmt.Sprint(g.rng.Intn(1_000_000)), UserLogin: c.login, UserName: c.display, FollowedAt: now,
		}
	case 1:
		a.Type = client.AlertSubscribe
		a.Subscribe = &client.SubscribeEvent{
			UserID: fmt.Sprint(g.rng.Intn(1_000_000)), UserLogin: c.login, UserName: c.display, Tier: "1000",
		}
	default:
		a.Type = client.AlertRaid
		a.Raid = &client.RaidEvent{
			FromUserID: fmt.Sprint(g.rng.Intn(1_000_000)), FromUserLogin: c.login, FromUserName: c.display,
			Viewers: 3 + g.rng.Intn(50),
		}
	}
	return a
}
