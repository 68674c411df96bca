package sms

const (
	maxShortLength = 140 // payload ceiling of a single SMS
	maxPartLength  = 134 // payload per part after the 6-octet UDH
)

var MaxParts = 8 // maximum number of parts into which a long message is split

type fragmentMode int

const (
	modeShort  fragmentMode = iota // a single message, no UDH
	modeSplit                      // independent short messages
	modeConcat                     // concatenated long message with UDH
)

// fragments is the wire-ready payload plan for one Send call.
type fragments struct {
	mode  fragmentMode
	parts [][]byte // MsgContent per submit; UDH included in concat mode
}

func (f *fragments) udhi() uint8 {
	if f.mode == modeConcat {
		return 1
	}
	return 0
}

// fragment computes the payload plan for content under the configured
// signature policy. ref seeds the UDH reference byte and must be stable
// across the parts of one call.
func fragment(content string, cfg *Config, ref byte) (*fragments, SendStatus) {
	if content == "" {
		return nil, Unknown
	}
	var sigLength int
	if !cfg.AttemptRemoveSignature {
		sigLength = len(EncodeUCS2(cfg.Signature))
	}
	if cfg.SendLongMessageAsShortMessages {
		return splitShort(content, cfg)
	}
	encoded := EncodeUCS2(content)
	if len(encoded) == 0 {
		return nil, Unknown
	}
	// the signature counts against the single-message threshold even when
	// the gateway is the one appending it
	if len(encoded)+sigLength <= maxShortLength {
		return &fragments{mode: modeShort, parts: [][]byte{encoded}}, Success
	}
	if cfg.DisableLongMessage {
		return nil, MessageTooLong
	}
	count := (len(encoded) + maxPartLength - 1) / maxPartLength
	if count > MaxParts {
		return nil, MessageTooLong
	}
	parts := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		start := i * maxPartLength
		end := start + maxPartLength
		if end > len(encoded) {
			end = len(encoded)
		}
		part := make([]byte, 0, 6+end-start)
		part = append(part, 0x05, 0x00, 0x03, ref, byte(count), byte(i+1))
		part = append(part, encoded[start:end]...)
		parts = append(parts, part)
	}
	return &fragments{mode: modeConcat, parts: parts}, Success
}

// splitShort cuts content on code-point boundaries into pieces that each
// fit a single SMS, optionally reserving room for a leading signature.
func splitShort(content string, cfg *Config) (*fragments, SendStatus) {
	var sig []byte
	if cfg.PrepositiveGatewaySignature && !cfg.AttemptRemoveSignature {
		sig = EncodeUCS2(cfg.Signature)
	}
	budget := maxShortLength - len(sig)
	if budget < 4 { // a surrogate pair must fit every piece
		return nil, MessageTooLong
	}
	var parts [][]byte
	var piece []byte
	for _, r := range content {
		rb := EncodeUCS2(string(r)) // 2 octets for BMP, 4 for a surrogate pair
		if len(piece)+len(rb) > budget {
			parts = append(parts, piece)
			piece = nil
		}
		piece = append(piece, rb...)
	}
	if len(piece) > 0 {
		parts = append(parts, piece)
	}
	if len(parts) == 0 {
		return nil, Unknown
	}
	if len(parts) > MaxParts {
		return nil, MessageTooLong
	}
	if len(parts) > 1 && cfg.DisableLongMessage {
		return nil, MessageTooLong
	}
	if len(sig) > 0 {
		for i, p := range parts {
			parts[i] = append(append([]byte(nil), sig...), p...)
		}
	}
	return &fragments{mode: modeSplit, parts: parts}, Success
}
