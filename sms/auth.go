package sms

import (
	"strconv"
	"time"

	"cmppsms/cmpp"
)

// authTimestamp renders local time as the MMDDHHMMSS form the CONNECT
// digest and frame both use.
func authTimestamp(t time.Time) string {
	return t.Format("0102150405")
}

// buildConnect assembles the login frame for the given moment.
func (c *Client) buildConnect(now time.Time) *cmpp.Connect {
	ts := authTimestamp(now)
	n, _ := strconv.ParseUint(ts, 10, 32)
	return &cmpp.Connect{
		SourceAddr:          c.Username,
		AuthenticatorSource: cmpp.Authenticator(c.Username, c.Password, ts),
		Version:             cmpp.Version,
		Timestamp:           uint32(n),
	}
}
