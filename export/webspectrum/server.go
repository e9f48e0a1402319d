package webspectrum

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

const (
	defaultAddress = "127.0.0.1"
	defaultPort    = 8887
	writeTimeout   = 2 * time.Second
)

// Server fans spectrum frames out to connected websocket clients.
//
// It is a best-effort sink: a client whose write fails is dropped, and
// publishing while the socket is closed does nothing. Callers poll
// SocketOpened to learn about sink availability.
type Server struct {
	mu       sync.Mutex
	address  string
	port     uint16
	listener net.Listener
	httpSrv  *http.Server
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

// NewServer returns a closed server with default listening parameters.
func NewServer() *Server {
	return &Server{
		address: defaultAddress,
		port:    defaultPort,
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// SetListeningAddress sets the bind address used by the next OpenSocket.
func (s *Server) SetListeningAddress(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = address
}

// SetPort sets the listening port used by the next OpenSocket.
func (s *Server) SetPort(port uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port = port
}

// ListeningAddress returns the configured bind address.
func (s *Server) ListeningAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address
}

// ListeningPort returns the configured port.
func (s *Server) ListeningPort() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Addr returns the actual listening address, or nil when closed. With
// port 0 this is where the ephemeral port shows up.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// SocketOpened reports whether the server is listening.
func (s *Server) SocketOpened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

// OpenSocket starts listening and serving websocket upgrades. Opening an
// already-open server is a no-op.
func (s *Server) OpenSocket() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("webspectrum: listen on %s:%d: %w", s.address, s.port, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)

	srv := &http.Server{Handler: mux}
	s.listener = ln
	s.httpSrv = srv

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			glog.Errorf("webspectrum: serve: %v", err)
		}
	}()

	glog.Infof("webspectrum: listening on %s", ln.Addr())

	return nil
}

// CloseSocket stops listening and disconnects all clients. Closing an
// already-closed server is a no-op.
func (s *Server) CloseSocket() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return
	}

	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})

	s.httpSrv.Close()
	s.httpSrv = nil
	s.listener = nil

	glog.Info("webspectrum: closed")
}

// Peers returns the remote addresses of connected clients.
func (s *Server) Peers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	peers := make([]string, 0, len(s.clients))
	for conn := range s.clients {
		peers = append(peers, conn.RemoteAddr().String())
	}

	return peers
}

// NewSpectrum publishes one power spectrum to all connected clients.
// Values are narrowed to float32 for the wire.
func (s *Server) NewSpectrum(power []float64, fftSize int, centerFrequency uint64, sampleRate int, linear, ssb, usb bool) {
	if fftSize > len(power) {
		fftSize = len(power)
	}

	bins := make([]float32, fftSize)
	for i := range bins {
		bins[i] = float32(power[i])
	}

	frame := Frame{
		CenterFrequency: centerFrequency,
		SampleRate:      uint32(sampleRate),
		Linear:          linear,
		SSB:             ssb,
		USB:             usb,
		Timestamp:       time.Now().UnixMilli(),
		Power:           bins,
	}
	payload := frame.Encode()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return
	}

	for conn := range s.clients {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			glog.Warningf("webspectrum: dropping client %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			delete(s.clients, conn)
			continue
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
			glog.Warningf("webspectrum: dropping client %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		glog.Warningf("webspectrum: upgrade from %s: %v", r.RemoteAddr, err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	glog.Infof("webspectrum: client connected: %s", conn.RemoteAddr())

	// reader loop: discard inbound messages, detect disconnect
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				delete(s.clients, conn)
				s.mu.Unlock()
				conn.Close()
				glog.Infof("webspectrum: client disconnected: %s", conn.RemoteAddr())
				return
			}
		}
	}()
}
