package sms

import (
	"encoding/binary"

	"cmppsms/cmpp"
)

// State is the lifecycle state of the gateway session.
type State int

const (
	Disconnected State = iota
	Connecting
	Authenticating
	Connected
	AuthenticationFailed
	Disposed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Authenticating:
		return "Authenticating"
	case Connected:
		return "Connected"
	case AuthenticationFailed:
		return "AuthenticationFailed"
	case Disposed:
		return "Disposed"
	default:
		return "Unknown"
	}
}

// SendStatus is the outcome of a Send call.
type SendStatus int

const (
	Success SendStatus = iota
	Unknown
	Timeout
	Congested
	MessageTooLong
	ConfigError
	NotConnected
)

func (s SendStatus) String() string {
	switch s {
	case Success:
		return "Success"
	case Timeout:
		return "Timeout"
	case Congested:
		return "Congested"
	case MessageTooLong:
		return "MessageTooLong"
	case ConfigError:
		return "ConfigError"
	case NotConnected:
		return "NotConnected"
	default:
		return "Unknown"
	}
}

// Config carries the SP-side settings of a gateway session. Immutable after
// the client is constructed.
type Config struct {
	SpCode    string `yaml:"spCode"`    // 6-digit service-provider short code
	Username  string `yaml:"username"`  // gateway login
	Password  string `yaml:"password"`  // gateway password
	Signature string `yaml:"signature"` // service signature around user content
	ServiceId string `yaml:"serviceId"` // business tag

	// FeeType and FeeCode go into every submit verbatim. Carriers disagree
	// on the "free" encoding, so both are configuration.
	FeeType string `yaml:"feeType,omitempty"` // defaults to "02"
	FeeCode string `yaml:"feeCode,omitempty"` // defaults to "05"

	DisableLongMessage             bool `yaml:"disableLongMessage,omitempty"`
	SendLongMessageAsShortMessages bool `yaml:"sendLongMessageAsShortMessages,omitempty"`
	PrepositiveGatewaySignature    bool `yaml:"prepositiveGatewaySignature,omitempty"`

	// AttemptRemoveSignature switches MsgFmt to the carrier-specific value
	// 15 and drops the signature from all length budgets. Payload bytes
	// stay UTF-16BE; only the declared format changes.
	AttemptRemoveSignature bool `yaml:"attemptRemoveSignature,omitempty"`
}

func (c *Config) feeType() string {
	if c.FeeType == "" {
		return "02"
	}
	return c.FeeType
}

func (c *Config) feeCode() string {
	if c.FeeCode == "" {
		return "05"
	}
	return c.FeeCode
}

func (c *Config) msgFmt() uint8 {
	if c.AttemptRemoveSignature {
		return cmpp.GB18030
	}
	return cmpp.UCS2
}

// Sent describes one acknowledged outbound part.
type Sent struct {
	To        []string
	MessageId int64
	Part      int // 1-based position within the call
	Total     int
}

// Received describes a delivered mobile-originated message.
type Received struct {
	Content     string // message text (already decoded)
	Source      string // subscriber number
	MessageId   int64
	Destination string // the SP number the subscriber wrote to
}

// Report describes a gateway status report for an earlier submit.
type Report struct {
	MessageId   int64
	Status      string // e.g. DELIVRD
	Destination string // the terminal the original message went to
}

// Transport is the frame codec the client drives. Implementations must
// tolerate Send being called from two goroutines at once.
type Transport interface {
	Connect() error
	Disconnect()
	Send(seq uint32, p cmpp.Packet) error
	Handle(onPacket func(seq uint32, p cmpp.Packet), onClose func(err error))
}

// msgIdInt64 reinterprets the 8-octet MsgId field as a little-endian signed
// integer, byte-for-byte identical with the wire representation.
func msgIdInt64(id [8]byte) int64 {
	return int64(binary.LittleEndian.Uint64(id[:]))
}
