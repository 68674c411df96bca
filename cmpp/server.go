package cmpp

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Server is a minimal in-process CMPP gateway. It authenticates CONNECT
// frames, acknowledges submits and probes, and can push DELIVER frames to
// bound clients. Built for tests and local development.
type Server struct {
	Address    string
	SourceAddr string // expected SP id in CONNECT
	Password   string
	Logger     *logrus.Logger

	// SubmitResult decides the result code for each submit. Nil means 0.
	SubmitResult func(*Submit) uint32

	Submits chan *Submit // every accepted submit, for test assertions

	listener net.Listener
	clients  map[string]net.Conn
	mu       sync.RWMutex
	msgId    uint64
	seq      uint32
	wmu      sync.Mutex
}

// NewServer creates a gateway listening on address with the given SP
// credentials.
func NewServer(address, sourceAddr, password string, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		Address:    address,
		SourceAddr: sourceAddr,
		Password:   password,
		Logger:     logger,
		Submits:    make(chan *Submit, 1000),
		clients:    make(map[string]net.Conn),
	}
}

// Start begins accepting gateway connections.
func (s *Server) Start() error {
	var err error
	s.listener, err = net.Listen("tcp", s.Address)
	if err != nil {
		return fmt.Errorf("failed to start gateway: %v", err)
	}
	s.Logger.Infof("CMPP gateway started on %s", s.listener.Addr())
	go s.acceptConnections()
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.Address
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	addr := conn.RemoteAddr().String()
	logEntry := s.Logger.WithField("remote", addr)
	logEntry.Info("New client connected")

	s.mu.Lock()
	s.clients[addr] = conn
	s.mu.Unlock()

	err := readFrames(conn, func(seq uint32, p Packet) {
		s.handlePacket(conn, logEntry, seq, p)
	})
	if err != nil {
		logEntry.WithError(err).Debug("Client connection closed")
	}
	s.mu.Lock()
	delete(s.clients, addr)
	s.mu.Unlock()
	conn.Close()
}

func (s *Server) handlePacket(conn net.Conn, logEntry *logrus.Entry, seq uint32, p Packet) {
	switch p := p.(type) {
	case *Connect:
		resp := &ConnectResp{Version: Version}
		ts := fmt.Sprintf("%010d", p.Timestamp)
		want := Authenticator(s.SourceAddr, s.Password, ts)
		if p.SourceAddr != s.SourceAddr || p.AuthenticatorSource != want {
			resp.Status = ConnectAuthFailed
		}
		logEntry.WithFields(logrus.Fields{
			"source": p.SourceAddr,
			"status": resp.Status,
		}).Info("Connect")
		s.write(conn, seq, resp)
	case *Submit:
		result := uint32(SubmitOK)
		if s.SubmitResult != nil {
			result = s.SubmitResult(p)
		}
		resp := &SubmitResp{Result: result}
		binary.BigEndian.PutUint64(resp.MsgId[:], atomic.AddUint64(&s.msgId, 1))
		logEntry.WithFields(logrus.Fields{
			"seq":    seq,
			"result": result,
			"length": len(p.MsgContent),
		}).Info("Submit")
		s.write(conn, seq, resp)
		select {
		case s.Submits <- p:
		default:
		}
	case *ActiveTest:
		s.write(conn, seq, new(ActiveTestResp))
	case *Terminate:
		s.write(conn, seq, new(TerminateResp))
		conn.Close()
	case *DeliverResp, *ActiveTestResp:
		// acknowledgements of our own frames
	default:
		logEntry.WithField("type", p.CommandId().String()).Warning("Unsupported command type")
	}
}

// Deliver pushes a mobile-originated message to every bound client.
func (s *Server) Deliver(d *Deliver) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, conn := range s.clients {
		s.write(conn, atomic.AddUint32(&s.seq, 1), d)
	}
}

func (s *Server) write(conn net.Conn, seq uint32, p Packet) {
	buf := Marshal(seq, p)
	s.wmu.Lock()
	_, err := conn.Write(buf)
	s.wmu.Unlock()
	if err != nil {
		s.Logger.WithError(err).Error("Gateway write error")
	}
}

// Stop closes the listener and all client connections.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for _, conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[string]net.Conn)
	s.mu.Unlock()
	s.Logger.Info("CMPP gateway stopped")
}
