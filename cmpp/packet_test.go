package cmpp

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestConnectMarshal(t *testing.T) {
	p := &Connect{
		SourceAddr: "900001",
		Version:    Version,
		Timestamp:  101150405,
	}
	copy(p.AuthenticatorSource[:], bytes.Repeat([]byte{0xAB}, 16))
	buf := Marshal(7, p)
	if len(buf) != HeaderLength+27 {
		t.Fatalf("frame length = %d, want %d", len(buf), HeaderLength+27)
	}
	if got := binary.BigEndian.Uint32(buf[0:4]); got != uint32(len(buf)) {
		t.Errorf("TotalLength = %d, want %d", got, len(buf))
	}
	if got := CommandId(binary.BigEndian.Uint32(buf[4:8])); got != CONNECT {
		t.Errorf("CommandId = %s", got)
	}
	if got := binary.BigEndian.Uint32(buf[8:12]); got != 7 {
		t.Errorf("SequenceId = %d, want 7", got)
	}
	q, err := Unmarshal(Header{CommandId: CONNECT}, buf[HeaderLength:])
	if err != nil {
		t.Fatal(err)
	}
	back := q.(*Connect)
	if back.SourceAddr != p.SourceAddr || back.Version != p.Version ||
		back.Timestamp != p.Timestamp || back.AuthenticatorSource != p.AuthenticatorSource {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestSubmitRoundTrip(t *testing.T) {
	p := &Submit{
		PkTotal:            1,
		PkNumber:           1,
		RegisteredDelivery: 1,
		ServiceId:          "NEWS",
		FeeUserType:        FeeUserSP,
		FeeTerminalId:      "100086",
		TpUdhi:             1,
		MsgFmt:             UCS2,
		MsgSrc:             "900001",
		FeeType:            "02",
		FeeCode:            "05",
		SrcId:              "10008601",
		DestTerminalId:     []string{"13800138000", "13900139000"},
		MsgContent:         []byte{0x05, 0x00, 0x03, 0x21, 0x02, 0x01, 0x00, 0x68},
	}
	buf := Marshal(42, p)
	q, err := Unmarshal(Header{CommandId: SUBMIT}, buf[HeaderLength:])
	if err != nil {
		t.Fatal(err)
	}
	back := q.(*Submit)
	if back.ServiceId != p.ServiceId || back.MsgSrc != p.MsgSrc ||
		back.FeeType != p.FeeType || back.FeeCode != p.FeeCode ||
		back.SrcId != p.SrcId || back.TpUdhi != p.TpUdhi ||
		back.FeeUserType != p.FeeUserType || back.RegisteredDelivery != p.RegisteredDelivery {
		t.Errorf("round trip mismatch: %+v", back)
	}
	if len(back.DestTerminalId) != 2 || back.DestTerminalId[0] != "13800138000" ||
		back.DestTerminalId[1] != "13900139000" {
		t.Errorf("DestTerminalId = %v", back.DestTerminalId)
	}
	if !bytes.Equal(back.MsgContent, p.MsgContent) {
		t.Errorf("MsgContent = % x", back.MsgContent)
	}
}

func TestDeliverRoundTrip(t *testing.T) {
	p := &Deliver{
		DestId:        "10008601",
		ServiceId:     "NEWS",
		MsgFmt:        UCS2,
		SrcTerminalId: "13800138000",
		MsgContent:    []byte{0x00, 0x4F, 0x60, 0x59},
	}
	copy(p.MsgId[:], []byte{1, 2, 3, 4, 5, 6, 7, 8})
	buf := Marshal(3, p)
	q, err := Unmarshal(Header{CommandId: DELIVER}, buf[HeaderLength:])
	if err != nil {
		t.Fatal(err)
	}
	back := q.(*Deliver)
	if back.DestId != p.DestId || back.SrcTerminalId != p.SrcTerminalId ||
		back.MsgId != p.MsgId || !bytes.Equal(back.MsgContent, p.MsgContent) {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestReportRoundTrip(t *testing.T) {
	r := &Report{
		Stat:           "DELIVRD",
		SubmitTime:     "2608051200",
		DoneTime:       "2608051201",
		DestTerminalId: "13800138000",
		SMSCSequence:   99,
	}
	copy(r.MsgId[:], []byte{8, 7, 6, 5, 4, 3, 2, 1})
	back, err := ParseReport(r.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if back.Stat != r.Stat || back.SubmitTime != r.SubmitTime || back.DoneTime != r.DoneTime ||
		back.DestTerminalId != r.DestTerminalId || back.SMSCSequence != r.SMSCSequence ||
		back.MsgId != r.MsgId {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestReadFrames(t *testing.T) {
	var wire bytes.Buffer
	wire.Write(Marshal(1, new(ActiveTest)))
	wire.Write(Marshal(2, &SubmitResp{Result: 8}))
	var got []Packet
	var seqs []uint32
	err := readFrames(&wire, func(seq uint32, p Packet) {
		seqs = append(seqs, seq)
		got = append(got, p)
	})
	if err == nil {
		t.Fatal("expected EOF at stream end")
	}
	if len(got) != 2 {
		t.Fatalf("decoded %d frames, want 2", len(got))
	}
	if seqs[0] != 1 || seqs[1] != 2 {
		t.Errorf("sequence ids = %v", seqs)
	}
	if _, ok := got[0].(*ActiveTest); !ok {
		t.Errorf("frame 0 = %T", got[0])
	}
	if resp, ok := got[1].(*SubmitResp); !ok || resp.Result != 8 {
		t.Errorf("frame 1 = %#v", got[1])
	}
}

func TestAuthenticator(t *testing.T) {
	a := Authenticator("900001", "secret", "0805120000")
	if a == Authenticator("900001", "secret", "0805120001") {
		t.Error("digest ignores the timestamp")
	}
	if a == Authenticator("900001", "other", "0805120000") {
		t.Error("digest ignores the password")
	}
	if a == Authenticator("900002", "secret", "0805120000") {
		t.Error("digest ignores the source address")
	}
	if a != Authenticator("900001", "secret", "0805120000") {
		t.Error("digest is unstable")
	}
}
