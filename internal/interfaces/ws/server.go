// Package ws exposes the daemon over a JSON envelope on websocket. The
// wallet UI and the dApp content scripts are both clients of the same
// surface: dApp-path messages go through the provider facade, approval
// messages resolve broker requests, and pending requests are pushed to
// every connected client.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/tidewallet/tide-daemon/internal/core/application"
	"github.com/tidewallet/tide-daemon/internal/core/domain"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
)

const writeTimeout = 10 * time.Second

type handlerFunc func(ctx context.Context, origin string, data json.RawMessage) (interface{}, error)

// Server is the websocket envelope server.
type Server struct {
	addr     string
	unlocker application.UnlockerService
	wallet   application.WalletService
	broker   application.BrokerService
	provider application.ProviderService

	handlers map[string]handlerFunc
	upgrader websocket.Upgrader

	locker  sync.Mutex
	clients map[*client]struct{}
	httpSrv *http.Server
}

type client struct {
	conn   *websocket.Conn
	origin string

	writeMtx sync.Mutex
}

// NewServer returns a server that is not serving anything yet. The broker
// takes it as its approval surface, so the services are bound afterwards
// with UseServices.
func NewServer(addr string) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			// the daemon binds on localhost, origin policy is enforced per
			// message through the provider's connection state
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// UseServices binds the application services and registers the message
// handlers. Must be called before Start.
func (s *Server) UseServices(
	unlocker application.UnlockerService,
	wallet application.WalletService,
	broker application.BrokerService,
	provider application.ProviderService,
) {
	s.unlocker = unlocker
	s.wallet = wallet
	s.broker = broker
	s.provider = provider
	s.registerHandlers()
}

// Start serves until Stop is called.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleUpgrade)
	s.httpSrv = &http.Server{Addr: s.addr, Handler: mux}

	log.WithField("addr", s.addr).Info("ws: listening")
	if err := s.httpSrv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop closes the listener and every client connection.
func (s *Server) Stop(ctx context.Context) error {
	s.locker.Lock()
	for c := range s.clients {
		c.conn.Close()
	}
	s.locker.Unlock()

	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the upgrade endpoint for tests.
func (s *Server) Handler() http.HandlerFunc {
	return s.handleUpgrade
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("ws: upgrade failed")
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.RemoteAddr
	}
	c := &client{conn: conn, origin: origin}

	s.locker.Lock()
	s.clients[c] = struct{}{}
	s.locker.Unlock()

	events := s.provider.Subscribe(origin)
	go s.pumpEvents(c, events)

	log.WithField("origin", origin).Debug("ws: client connected")
	s.readLoop(c)

	s.provider.Unsubscribe(origin, events)
	s.locker.Lock()
	delete(s.clients, c)
	s.locker.Unlock()
	conn.Close()
	log.WithField("origin", origin).Debug("ws: client disconnected")
}

func (s *Server) readLoop(c *client) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseGoingAway, websocket.CloseNormalClosure,
			) {
				log.WithError(err).Debug("ws: read error")
			}
			return
		}

		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			s.send(c, errResponse(&Request{}, domain.NewProviderError(
				domain.CodeInvalidParams, "malformed envelope",
			)))
			continue
		}

		// each request runs on its own goroutine so a blocking approval
		// flow never stalls the approval messages resolving it
		go s.dispatch(c, &req)
	}
}

func (s *Server) dispatch(c *client, req *Request) {
	handler, ok := s.handlers[req.Type]
	if !ok {
		s.send(c, errResponse(req, domain.NewProviderError(
			domain.CodeMethodNotFound, "unknown message type "+req.Type,
		)))
		return
	}

	result, err := handler(context.Background(), c.origin, req.Data)
	if err != nil {
		s.send(c, errResponse(req, err))
		return
	}
	s.send(c, okResponse(req, result))
}

func (s *Server) pumpEvents(c *client, events <-chan application.ProviderEvent) {
	for event := range events {
		s.send(c, &Response{
			Type:    TypeProviderEvent,
			Success: true,
			Data:    event,
		})
	}
}

func (s *Server) send(c *client, res *Response) {
	c.writeMtx.Lock()
	defer c.writeMtx.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(res); err != nil {
		log.WithError(err).Debug("ws: write failed")
	}
}

func (s *Server) broadcast(res *Response) {
	s.locker.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.locker.Unlock()

	for _, c := range clients {
		s.send(c, res)
	}
}

// Open pushes a pending request to every client so the UI can render the
// approval prompt.
func (s *Server) Open(_ context.Context, request *domain.PendingRequest) error {
	s.broadcast(&Response{
		Type:    TypeRequestPending,
		Success: true,
		Data: map[string]interface{}{
			"id":       request.ID,
			"origin":   request.Origin,
			"kind":     request.Kind,
			"payload":  request.Payload,
			"deadline": request.Deadline,
		},
	})
	return nil
}

// Close tells every client the request is settled and any prompt for it
// should be dismissed.
func (s *Server) Close(_ context.Context, requestID string) error {
	s.broadcast(&Response{
		Type:    TypeRequestResolved,
		Success: true,
		Data:    map[string]interface{}{"id": requestID},
	})
	return nil
}

var _ ports.ApprovalSurface = (*Server)(nil)
