package fakeportal

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workmate-live/dashboard/internal/client"
)

func startPortal(t *testing.T, token string) *Server {
	t.Helper()
	srv := New(token)
	require.NoError(t, srv.Start("127.0.0.1:0"))
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *Server, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(srv.WSURL()+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return srv.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) client.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	ev, err := client.Decode(data)
	require.NoError(t, err)
	return ev
}

func TestServer_RejectsBadToken(t *testing.T) {
	srv := startPortal(t, "secret")
	hc := client.NewHTTPClient(srv.URL(), "wrong")

	_, err := hc.GetOBSStatus(context.Background())
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	_, resp, err := websocket.DefaultDialer.Dial(srv.WSURL()+"?token=wrong", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_SwitchScenePushesEvent(t *testing.T) {
	srv := startPortal(t, "secret")
	conn := dialWS(t, srv, "secret")
	hc := client.NewHTTPClient(srv.URL(), "secret")

	require.NoError(t, hc.SwitchScene(context.Background(), "BRB"))

	ev := readEvent(t, conn)
	assert.Equal(t, client.SceneChangedEvent{SceneName: "BRB"}, ev)

	scenes, err := hc.GetScenes(context.Background())
	require.NoError(t, err)
	for _, sc := range scenes {
		assert.Equal(t, sc.Name == "BRB", sc.Active, sc.Name)
	}
}

func TestServer_ToggleSourceDefaultsToCurrentScene(t *testing.T) {
	srv := startPortal(t, "")
	conn := dialWS(t, srv, "")
	hc := client.NewHTTPClient(srv.URL(), "")

	require.NoError(t, hc.ToggleSource(context.Background(), "", "Music", false))

	ev, ok := readEvent(t, conn).(client.OBSInvalidationEvent)
	require.True(t, ok)
	assert.Equal(t, client.OBSSourceVisibilityChanged, ev.Event.Type)

	sources, err := hc.GetSources(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.False(t, sources[1].Visible)
}

func TestServer_FailureInjection(t *testing.T) {
	srv := startPortal(t, "")
	hc := client.NewHTTPClient(srv.URL(), "")

	srv.Fail("/api/twitch/stats", http.StatusBadGateway)
	_, err := hc.GetTwitchStats(context.Background())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)

	srv.ClearFailures()
	_, err = hc.GetTwitchStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits("/api/twitch/stats"))
}

func TestServer_DropClients(t *testing.T) {
	srv := startPortal(t, "")
	conn := dialWS(t, srv, "")

	srv.DropClients()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.Equal(t, 0, srv.ClientCount())
}

func TestGenerator_FramesDecode(t *testing.T) {
	srv := startPortal(t, "")
	conn := dialWS(t, srv, "")
	g := NewGenerator(srv, time.Millisecond)

	for tick := 1; tick <= 20; tick++ {
		require.NoError(t, g.step(tick))
		readEvent(t, conn)
	}
}
