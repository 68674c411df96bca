package cmpp

import "encoding/binary"

// Submit is an SP-originated short message (CMPP_SUBMIT).
type Submit struct {
	MsgId              [8]byte
	PkTotal            uint8
	PkNumber           uint8
	RegisteredDelivery uint8 // 1 requests a delivery report
	MsgLevel           uint8
	ServiceId          string // 10 octets
	FeeUserType        uint8
	FeeTerminalId      string // 32 octets
	FeeTerminalType    uint8
	TpPid              uint8
	TpUdhi             uint8 // 1 when MsgContent starts with a UDH
	MsgFmt             uint8
	MsgSrc             string // 6 octets, SP login name
	FeeType            string // 2 octets
	FeeCode            string // 6 octets
	ValidTime          string // 17 octets
	AtTime             string // 17 octets
	SrcId              string // 21 octets, displayed source number
	DestTerminalId     []string
	DestTerminalType   uint8
	MsgContent         []byte
	LinkId             string // 20 octets
}

func (*Submit) CommandId() CommandId { return SUBMIT }

func (p *Submit) marshal() []byte {
	buf := make([]byte, 129+32*len(p.DestTerminalId)+2+len(p.MsgContent)+20)
	copy(buf[0:8], p.MsgId[:])
	buf[8] = p.PkTotal
	buf[9] = p.PkNumber
	buf[10] = p.RegisteredDelivery
	buf[11] = p.MsgLevel
	putFixed(buf[12:22], p.ServiceId)
	buf[22] = p.FeeUserType
	putFixed(buf[23:55], p.FeeTerminalId)
	buf[55] = p.FeeTerminalType
	buf[56] = p.TpPid
	buf[57] = p.TpUdhi
	buf[58] = p.MsgFmt
	putFixed(buf[59:65], p.MsgSrc)
	putFixed(buf[65:67], p.FeeType)
	putFixed(buf[67:73], p.FeeCode)
	putFixed(buf[73:90], p.ValidTime)
	putFixed(buf[90:107], p.AtTime)
	putFixed(buf[107:128], p.SrcId)
	buf[128] = uint8(len(p.DestTerminalId))
	off := 129
	for _, dest := range p.DestTerminalId {
		putFixed(buf[off:off+32], dest)
		off += 32
	}
	buf[off] = p.DestTerminalType
	buf[off+1] = uint8(len(p.MsgContent))
	off += 2
	copy(buf[off:], p.MsgContent)
	off += len(p.MsgContent)
	putFixed(buf[off:off+20], p.LinkId)
	return buf
}

func (p *Submit) unmarshal(b []byte) error {
	if len(b) < 131 {
		return ErrBodyLength
	}
	copy(p.MsgId[:], b[0:8])
	p.PkTotal = b[8]
	p.PkNumber = b[9]
	p.RegisteredDelivery = b[10]
	p.MsgLevel = b[11]
	p.ServiceId = fixed(b[12:22])
	p.FeeUserType = b[22]
	p.FeeTerminalId = fixed(b[23:55])
	p.FeeTerminalType = b[55]
	p.TpPid = b[56]
	p.TpUdhi = b[57]
	p.MsgFmt = b[58]
	p.MsgSrc = fixed(b[59:65])
	p.FeeType = fixed(b[65:67])
	p.FeeCode = fixed(b[67:73])
	p.ValidTime = fixed(b[73:90])
	p.AtTime = fixed(b[90:107])
	p.SrcId = fixed(b[107:128])
	destCount := int(b[128])
	off := 129
	if len(b) < off+32*destCount+2+20 {
		return ErrBodyLength
	}
	p.DestTerminalId = make([]string, destCount)
	for i := 0; i < destCount; i++ {
		p.DestTerminalId[i] = fixed(b[off : off+32])
		off += 32
	}
	p.DestTerminalType = b[off]
	msgLength := int(b[off+1])
	off += 2
	if len(b) < off+msgLength+20 {
		return ErrBodyLength
	}
	p.MsgContent = append([]byte(nil), b[off:off+msgLength]...)
	p.LinkId = fixed(b[off+msgLength : off+msgLength+20])
	return nil
}

// SubmitResp acknowledges a Submit with the gateway-assigned message id.
type SubmitResp struct {
	MsgId  [8]byte
	Result uint32
}

func (*SubmitResp) CommandId() CommandId { return SUBMIT_RESP }

func (p *SubmitResp) marshal() []byte {
	buf := make([]byte, 12)
	copy(buf[0:8], p.MsgId[:])
	binary.BigEndian.PutUint32(buf[8:12], p.Result)
	return buf
}

func (p *SubmitResp) unmarshal(b []byte) error {
	if len(b) != 12 {
		return ErrBodyLength
	}
	copy(p.MsgId[:], b[0:8])
	p.Result = binary.BigEndian.Uint32(b[8:12])
	return nil
}
