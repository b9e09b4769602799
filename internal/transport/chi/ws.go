package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/websocket"

	"github.com/vibercizing/vibercizing/internal/domain"
)

const maxDecodeErrorsPerConn = 3

// Inbound and outbound websocket message kinds.
const (
	msgBalanceUpdate    = "balance_update"
	msgRequestAwarded   = "request_awarded"
	msgError            = "error"
	msgExerciseComplete = "exercise_complete"
)

type wsMessage struct {
	Type     string `json:"type"`
	Exercise string `json:"exercise,omitempty"`
	Reps     int    `json:"reps,omitempty"`
}

type balanceUpdate struct {
	Type              string `json:"type"`
	RequestsAvailable int    `json:"requests_available"`
	RequestsEarned    int    `json:"requests_earned"`
	RequestsSpent     int    `json:"requests_spent"`
}

type requestAwarded struct {
	Type     string `json:"type"`
	Exercise string `json:"exercise"`
	Requests int    `json:"requests"`
	Message  string `json:"message"`
}

type wsErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// wsPeer serializes writes to one websocket connection.
type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) send(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(v)
}

// SendBalance implements realtime.Subscriber.
func (p *wsPeer) SendBalance(balance domain.Balance) error {
	return p.send(balanceUpdate{
		Type:              msgBalanceUpdate,
		RequestsAvailable: balance.RequestsAvailable,
		RequestsEarned:    balance.RequestsEarned,
		RequestsSpent:     balance.RequestsSpent,
	})
}

// sessionState is the websocket session lifecycle.
type sessionState int

const (
	sessionOpen sessionState = iota
	sessionClosed
)

// wsSession is one live push-channel connection. Open accepts events;
// Closed is terminal after disconnect.
type wsSession struct {
	peer  *wsPeer
	state sessionState
}

// serveWS handles GET /ws.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(s.handleWSConn).ServeHTTP(w, r)
}

// handleWSConn drives one session: register with the broadcaster, send
// the initial balance, then loop on inbound events until disconnect.
func (s *Server) handleWSConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	ctx := context.Background()
	if request := conn.Request(); request != nil {
		ctx = request.Context()
	}

	peer := newWSPeer(json.NewEncoder(conn))
	session := &wsSession{peer: peer, state: sessionOpen}

	// Entry actions for Open: register, push the initial snapshot.
	s.broadcaster.Register(peer)
	defer func() {
		session.state = sessionClosed
		s.broadcaster.Unregister(peer)
	}()

	balance, err := s.ledger.Balance(ctx)
	if err != nil {
		s.logger.Error("initial balance read failed", zap.Error(err))
		return
	}
	if err := peer.SendBalance(balance); err != nil {
		return
	}

	decoder := json.NewDecoder(conn)
	decodeErrors := 0

	for session.state == sessionOpen {
		var msg wsMessage
		if err := decoder.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = peer.send(wsErrorMessage{Type: msgError, Message: "invalid message payload"})
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		switch msg.Type {
		case msgExerciseComplete:
			s.handleExerciseComplete(ctx, peer, msg)
		default:
			_ = peer.send(wsErrorMessage{Type: msgError, Message: "unsupported message type"})
		}
	}
}

// handleExerciseComplete sends the award to this peer before the
// broadcast so the session sees request_awarded ahead of its own
// balance_update.
func (s *Server) handleExerciseComplete(ctx context.Context, peer *wsPeer, msg wsMessage) {
	result, err := s.workout.Complete(ctx, msg.Exercise, msg.Reps)
	if err != nil {
		s.logger.Error("exercise completion failed",
			zap.String("exercise", msg.Exercise),
			zap.Error(err),
		)
		_ = peer.send(wsErrorMessage{Type: msgError, Message: "ledger unavailable"})
		return
	}

	if !result.Outcome.Accepted() {
		_ = peer.send(wsErrorMessage{Type: msgError, Message: result.Outcome.Message})
		return
	}

	_ = peer.send(requestAwarded{
		Type:     msgRequestAwarded,
		Exercise: result.Award.Exercise,
		Requests: result.Award.Requests,
		Message:  result.Award.Message,
	})
	s.broadcaster.PublishBalance(result.Balance)
}
