package sms

import (
	"bytes"
	"testing"
)

func TestEncodeUCS2(t *testing.T) {
	if got := EncodeUCS2("hi"); !bytes.Equal(got, []byte{0x00, 0x68, 0x00, 0x69}) {
		t.Errorf("EncodeUCS2(hi) = % x", got)
	}
	// a BMP character takes two octets, an astral one four
	if got := EncodeUCS2("你"); len(got) != 2 {
		t.Errorf("len(EncodeUCS2(你)) = %d", len(got))
	}
	if got := EncodeUCS2("😀"); len(got) != 4 {
		t.Errorf("len(EncodeUCS2(😀)) = %d", len(got))
	}
}

func TestUCS2RoundTrip(t *testing.T) {
	for _, text := range []string{
		"hello",
		"短信测试",
		"mixed 混合 content 😀",
	} {
		if got := DecodeUCS2(EncodeUCS2(text)); got != text {
			t.Errorf("round trip %q = %q", text, got)
		}
	}
}

func TestDecode(t *testing.T) {
	if got := Decode(8, EncodeUCS2("你好")); got != "你好" {
		t.Errorf("Decode(8) = %q", got)
	}
	if got := Decode(0, []byte("plain")); got != "plain" {
		t.Errorf("Decode(0) = %q", got)
	}
}
