package cmpp

import "encoding/binary"

// Deliver is a gateway-originated frame: either a mobile-originated message
// or, with RegisteredDelivery set, a delivery report whose body is packed
// into MsgContent.
type Deliver struct {
	MsgId              [8]byte
	DestId             string // 21 octets, the SP number the subscriber wrote to
	ServiceId          string // 10 octets
	TpPid              uint8
	TpUdhi             uint8
	MsgFmt             uint8
	SrcTerminalId      string // 32 octets, subscriber number
	SrcTerminalType    uint8
	RegisteredDelivery uint8 // 1 marks a status report
	MsgContent         []byte
	LinkId             string // 20 octets
}

func (*Deliver) CommandId() CommandId { return DELIVER }

func (p *Deliver) marshal() []byte {
	buf := make([]byte, 77+len(p.MsgContent)+20)
	copy(buf[0:8], p.MsgId[:])
	putFixed(buf[8:29], p.DestId)
	putFixed(buf[29:39], p.ServiceId)
	buf[39] = p.TpPid
	buf[40] = p.TpUdhi
	buf[41] = p.MsgFmt
	putFixed(buf[42:74], p.SrcTerminalId)
	buf[74] = p.SrcTerminalType
	buf[75] = p.RegisteredDelivery
	buf[76] = uint8(len(p.MsgContent))
	copy(buf[77:], p.MsgContent)
	putFixed(buf[77+len(p.MsgContent):], p.LinkId)
	return buf
}

func (p *Deliver) unmarshal(b []byte) error {
	if len(b) < 97 {
		return ErrBodyLength
	}
	copy(p.MsgId[:], b[0:8])
	p.DestId = fixed(b[8:29])
	p.ServiceId = fixed(b[29:39])
	p.TpPid = b[39]
	p.TpUdhi = b[40]
	p.MsgFmt = b[41]
	p.SrcTerminalId = fixed(b[42:74])
	p.SrcTerminalType = b[74]
	p.RegisteredDelivery = b[75]
	msgLength := int(b[76])
	if len(b) < 77+msgLength+20 {
		return ErrBodyLength
	}
	p.MsgContent = append([]byte(nil), b[77:77+msgLength]...)
	p.LinkId = fixed(b[77+msgLength : 77+msgLength+20])
	return nil
}

// DeliverResp confirms receipt of a Deliver.
type DeliverResp struct {
	MsgId  [8]byte
	Result uint32
}

func (*DeliverResp) CommandId() CommandId { return DELIVER_RESP }

func (p *DeliverResp) marshal() []byte {
	buf := make([]byte, 12)
	copy(buf[0:8], p.MsgId[:])
	binary.BigEndian.PutUint32(buf[8:12], p.Result)
	return buf
}

func (p *DeliverResp) unmarshal(b []byte) error {
	if len(b) != 12 {
		return ErrBodyLength
	}
	copy(p.MsgId[:], b[0:8])
	p.Result = binary.BigEndian.Uint32(b[8:12])
	return nil
}

// Report is the decoded MsgContent of a Deliver carrying a status report.
type Report struct {
	MsgId          [8]byte
	Stat           string // 7 octets, e.g. DELIVRD
	SubmitTime     string // 10 octets, YYMMDDHHMM
	DoneTime       string // 10 octets
	DestTerminalId string // 21 octets
	SMSCSequence   uint32
}

// ParseReport decodes the 60-octet report body packed into a Deliver's
// MsgContent when RegisteredDelivery is set.
func ParseReport(b []byte) (*Report, error) {
	if len(b) < 60 {
		return nil, ErrBodyLength
	}
	r := new(Report)
	copy(r.MsgId[:], b[0:8])
	r.Stat = fixed(b[8:15])
	r.SubmitTime = fixed(b[15:25])
	r.DoneTime = fixed(b[25:35])
	r.DestTerminalId = fixed(b[35:56])
	r.SMSCSequence = binary.BigEndian.Uint32(b[56:60])
	return r, nil
}

// Marshal packs a report into Deliver MsgContent form.
func (r *Report) Marshal() []byte {
	buf := make([]byte, 60)
	copy(buf[0:8], r.MsgId[:])
	putFixed(buf[8:15], r.Stat)
	putFixed(buf[15:25], r.SubmitTime)
	putFixed(buf[25:35], r.DoneTime)
	putFixed(buf[35:56], r.DestTerminalId)
	binary.BigEndian.PutUint32(buf[56:60], r.SMSCSequence)
	return buf
}
