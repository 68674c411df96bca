package cmpp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLength is the size of the frame header preceding every body.
const HeaderLength = 12

// MaxFrameLength bounds a single inbound frame; anything larger is treated
// as a framing error and closes the connection.
const MaxFrameLength = 8 * 1024

var (
	ErrFrameLength = errors.New("cmpp: invalid frame length")
	ErrBodyLength  = errors.New("cmpp: invalid body length")
)

// Header is the fixed 12-byte prefix of every CMPP frame.
type Header struct {
	TotalLength uint32
	CommandId   CommandId
	SequenceId  uint32
}

// Packet is a typed CMPP frame body.
type Packet interface {
	CommandId() CommandId
	marshal() []byte
}

// Marshal encodes a complete frame: header plus body.
func Marshal(seq uint32, p Packet) []byte {
	body := p.marshal()
	buf := make([]byte, HeaderLength+len(body))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(buf)))
	binary.BigEndian.PutUint32(buf[4:8], uint32(p.CommandId()))
	binary.BigEndian.PutUint32(buf[8:12], seq)
	copy(buf[HeaderLength:], body)
	return buf
}

// Unmarshal decodes a frame body according to the header's command id.
func Unmarshal(h Header, body []byte) (Packet, error) {
	var p Packet
	switch h.CommandId {
	case CONNECT:
		p = new(Connect)
	case CONNECT_RESP:
		p = new(ConnectResp)
	case TERMINATE:
		p = new(Terminate)
	case TERMINATE_RESP:
		p = new(TerminateResp)
	case SUBMIT:
		p = new(Submit)
	case SUBMIT_RESP:
		p = new(SubmitResp)
	case DELIVER:
		p = new(Deliver)
	case DELIVER_RESP:
		p = new(DeliverResp)
	case ACTIVE_TEST:
		p = new(ActiveTest)
	case ACTIVE_TEST_RESP:
		p = new(ActiveTestResp)
	default:
		return nil, fmt.Errorf("cmpp: unsupported command id 0x%08x", uint32(h.CommandId))
	}
	if err := p.(interface{ unmarshal([]byte) error }).unmarshal(body); err != nil {
		return nil, err
	}
	return p, nil
}

// putFixed writes s into a fixed-width field, zero padded, truncating
// overlong values.
func putFixed(b []byte, s string) {
	copy(b, s)
}

// fixed reads a zero-terminated fixed-width field back into a string.
func fixed(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// Connect is the SP login request.
type Connect struct {
	SourceAddr          string // 6 octets, SP id
	AuthenticatorSource [16]byte
	Version             uint8
	Timestamp           uint32 // MMDDHHMMSS as a decimal number
}

func (*Connect) CommandId() CommandId { return CONNECT }

func (p *Connect) marshal() []byte {
	buf := make([]byte, 27)
	putFixed(buf[0:6], p.SourceAddr)
	copy(buf[6:22], p.AuthenticatorSource[:])
	buf[22] = p.Version
	binary.BigEndian.PutUint32(buf[23:27], p.Timestamp)
	return buf
}

func (p *Connect) unmarshal(b []byte) error {
	if len(b) != 27 {
		return ErrBodyLength
	}
	p.SourceAddr = fixed(b[0:6])
	copy(p.AuthenticatorSource[:], b[6:22])
	p.Version = b[22]
	p.Timestamp = binary.BigEndian.Uint32(b[23:27])
	return nil
}

// ConnectResp is the gateway's answer to a Connect.
type ConnectResp struct {
	Status            uint32
	AuthenticatorISMG [16]byte
	Version           uint8
}

func (*ConnectResp) CommandId() CommandId { return CONNECT_RESP }

func (p *ConnectResp) marshal() []byte {
	buf := make([]byte, 21)
	binary.BigEndian.PutUint32(buf[0:4], p.Status)
	copy(buf[4:20], p.AuthenticatorISMG[:])
	buf[20] = p.Version
	return buf
}

func (p *ConnectResp) unmarshal(b []byte) error {
	if len(b) != 21 {
		return ErrBodyLength
	}
	p.Status = binary.BigEndian.Uint32(b[0:4])
	copy(p.AuthenticatorISMG[:], b[4:20])
	p.Version = b[20]
	return nil
}

// Terminate asks the peer to drop the link.
type Terminate struct{}

func (*Terminate) CommandId() CommandId   { return TERMINATE }
func (*Terminate) marshal() []byte        { return nil }
func (*Terminate) unmarshal([]byte) error { return nil }

type TerminateResp struct{}

func (*TerminateResp) CommandId() CommandId   { return TERMINATE_RESP }
func (*TerminateResp) marshal() []byte        { return nil }
func (*TerminateResp) unmarshal([]byte) error { return nil }

// ActiveTest is the keepalive probe.
type ActiveTest struct{}

func (*ActiveTest) CommandId() CommandId   { return ACTIVE_TEST }
func (*ActiveTest) marshal() []byte        { return nil }
func (*ActiveTest) unmarshal([]byte) error { return nil }

// ActiveTestResp answers a probe. The body carries one reserved octet.
type ActiveTestResp struct{}

func (*ActiveTestResp) CommandId() CommandId { return ACTIVE_TEST_RESP }
func (*ActiveTestResp) marshal() []byte      { return []byte{0} }

func (*ActiveTestResp) unmarshal(b []byte) error {
	if len(b) > 1 {
		return ErrBodyLength
	}
	return nil
}
