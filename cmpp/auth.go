package cmpp

import "crypto/md5"

// Authenticator computes the CONNECT digest both peers agree on:
// MD5(SourceAddr + 9 zero octets + password + timestamp), where timestamp
// is the ASCII MMDDHHMMSS form also carried numerically in the frame.
func Authenticator(sourceAddr, password, timestamp string) [16]byte {
	h := md5.New()
	h.Write([]byte(sourceAddr))
	h.Write(make([]byte, 9))
	h.Write([]byte(password))
	h.Write([]byte(timestamp))
	var digest [16]byte
	copy(digest[:], h.Sum(nil))
	return digest
}
