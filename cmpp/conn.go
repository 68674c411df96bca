package cmpp

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DialTimeout limits how long establishing the TCP connection may take.
var DialTimeout = 5 * time.Second

// Conn owns the TCP link to the gateway and the frame codec on it. Inbound
// frames are decoded on a dedicated reader goroutine and handed to the
// packet handler; writes may come from several goroutines and are
// serialized here.
type Conn struct {
	Addr   string
	Logger *logrus.Entry

	onPacket func(seq uint32, p Packet)
	onClose  func(err error)

	conn     net.Conn
	wmu      sync.Mutex // serializes frame writes
	mu       sync.Mutex // guards conn and isClosed
	isClosed bool
}

// NewConn prepares a transport for the given gateway address. The
// connection is not established until Connect.
func NewConn(addr string, logEntry *logrus.Entry) *Conn {
	if logEntry == nil {
		logEntry = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Conn{Addr: addr, Logger: logEntry.WithField("gateway", addr)}
}

// Handle registers the inbound packet handler and the disconnect handler.
// Must be called before Connect.
func (c *Conn) Handle(onPacket func(seq uint32, p Packet), onClose func(err error)) {
	c.onPacket = onPacket
	c.onClose = onClose
}

// Connect dials the gateway and starts the reader goroutine.
func (c *Conn) Connect() error {
	conn, err := net.DialTimeout("tcp", c.Addr, DialTimeout)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.isClosed = false
	c.mu.Unlock()
	c.Logger.Info("Gateway connected")
	go c.reading(conn)
	return nil
}

// Disconnect drops the TCP link. The reader goroutine ends without
// invoking the disconnect handler.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.isClosed = true
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
		c.Logger.Info("Gateway disconnected")
	}
}

// Send encodes and writes one frame under the given sequence id.
func (c *Conn) Send(seq uint32, p Packet) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return io.ErrClosedPipe
	}
	buf := Marshal(seq, p)
	c.wmu.Lock()
	_, err := conn.Write(buf)
	c.wmu.Unlock()
	return err
}

// reading decodes frames off the wire until the connection dies.
func (c *Conn) reading(conn net.Conn) {
	err := readFrames(conn, c.onPacket)
	c.mu.Lock()
	closed := c.isClosed || c.conn != conn
	c.mu.Unlock()
	if closed {
		return // dropped by Disconnect, not an error
	}
	if err != nil && err != io.EOF {
		c.Logger.WithError(err).Error("Gateway read error")
	}
	conn.Close()
	if c.onClose != nil {
		c.onClose(err)
	}
}

// readFrames reads and decodes frames from r, invoking handle per frame,
// until a read or framing error occurs.
func readFrames(r io.Reader, handle func(seq uint32, p Packet)) error {
	head := make([]byte, HeaderLength)
	for {
		if _, err := io.ReadFull(r, head); err != nil {
			return err
		}
		h := Header{
			TotalLength: binary.BigEndian.Uint32(head[0:4]),
			CommandId:   CommandId(binary.BigEndian.Uint32(head[4:8])),
			SequenceId:  binary.BigEndian.Uint32(head[8:12]),
		}
		if h.TotalLength < HeaderLength || h.TotalLength > MaxFrameLength {
			return ErrFrameLength
		}
		body := make([]byte, h.TotalLength-HeaderLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return err
		}
		p, err := Unmarshal(h, body)
		if err != nil {
			return err
		}
		if handle != nil {
			handle(h.SequenceId, p)
		}
	}
}
