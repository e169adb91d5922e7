package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"echosphere-client/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// transport is one established realtime channel. The gateway prefers the
// websocket transport and falls back to long polling when the dial fails.
type transport interface {
	name() string
	send(ev models.Event) error
	receive() (models.Event, error)
	close() error
}

func (g *Gateway) dial(ctx context.Context, token string, connID string) (transport, error) {
	tr, wsErr := g.dialWebsocket(ctx, token)
	if wsErr == nil {
		return tr, nil
	}
	g.sugar.Debugf("websocket dial failed, trying polling: %v", wsErr)

	tr, pollErr := g.dialPolling(token, connID)
	if pollErr == nil {
		return tr, nil
	}
	return nil, fmt.Errorf("websocket: %v; polling: %v", wsErr, pollErr)
}

type wsTransport struct {
	conn       *websocket.Conn
	writeMutex sync.Mutex
	done       chan struct{}
	closeOnce  sync.Once
}

func (g *Gateway) dialWebsocket(ctx context.Context, token string) (transport, error) {
	wsURL, err := websocketURL(g.baseURL, token)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: g.connectTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	tr := &wsTransport{conn: conn, done: make(chan struct{})}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go tr.pingLoop()

	return tr, nil
}

func websocketURL(baseURL string, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

func (t *wsTransport) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.writeMutex.Lock()
			t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := t.conn.WriteMessage(websocket.PingMessage, nil)
			t.writeMutex.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (t *wsTransport) name() string { return "websocket" }

func (t *wsTransport) send(ev models.Event) error {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteJSON(ev)
}

func (t *wsTransport) receive() (models.Event, error) {
	var ev models.Event
	err := t.conn.ReadJSON(&ev)
	return ev, err
}

func (t *wsTransport) close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		t.writeMutex.Lock()
		t.conn.SetWriteDeadline(time.Now().Add(writeWait))
		t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		t.writeMutex.Unlock()
		err = t.conn.Close()
	})
	return err
}

// pollTransport long-polls GET /ws/poll for batches of pushed events and
// emits intents through POST /ws/emit. Strictly worse than the websocket
// transport but it survives proxies that strip Upgrade.
type pollTransport struct {
	baseURL    string
	token      string
	session    string
	httpClient *http.Client
	ctx        context.Context
	cancel     context.CancelFunc

	queue []models.Event
}

func (g *Gateway) dialPolling(token string, connID string) (transport, error) {
	ctx, cancel := context.WithCancel(context.Background())
	tr := &pollTransport{
		baseURL:    strings.TrimRight(g.baseURL, "/"),
		token:      token,
		session:    connID,
		httpClient: &http.Client{},
		ctx:        ctx,
		cancel:     cancel,
	}

	// Poll once with the connect timeout so a dead backend fails the dial
	// instead of the first receive. On a re-dial the server may already
	// hold events for this session; keep them for receive.
	firstCtx, firstCancel := context.WithTimeout(ctx, g.connectTimeout)
	defer firstCancel()
	events, err := tr.poll(firstCtx)
	if err != nil {
		cancel()
		return nil, err
	}
	tr.queue = events
	return tr, nil
}

func (t *pollTransport) pollURL() string {
	values := url.Values{"token": {t.token}, "session": {t.session}}
	return t.baseURL + "/ws/poll?" + values.Encode()
}

func (t *pollTransport) poll(ctx context.Context) ([]models.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.pollURL(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll: unexpected status %d", resp.StatusCode)
	}

	var events []models.Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, err
	}
	return events, nil
}

func (t *pollTransport) name() string { return "polling" }

func (t *pollTransport) send(ev models.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	values := url.Values{"token": {t.token}, "session": {t.session}}
	req, err := http.NewRequestWithContext(t.ctx, http.MethodPost, t.baseURL+"/ws/emit?"+values.Encode(), strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("emit: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (t *pollTransport) receive() (models.Event, error) {
	for len(t.queue) == 0 {
		events, err := t.poll(t.ctx)
		if err != nil {
			return models.Event{}, err
		}
		t.queue = events
	}

	ev := t.queue[0]
	t.queue = t.queue[1:]
	return ev, nil
}

func (t *pollTransport) close() error {
	t.cancel()
	return nil
}
