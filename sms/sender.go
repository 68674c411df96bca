package sms

import (
	"time"

	"github.com/sirupsen/logrus"

	"cmppsms/cmpp"
)

// Send submits content to the given receivers and blocks until every part
// is acknowledged, times out, or fails. extendedCode is appended to the SP
// code to form the displayed source number. The returned message ids
// follow part order; on a mid-stream failure the list holds the parts that
// made it out.
func (c *Client) Send(extendedCode string, receivers []string, content string, needStatusReport bool) (SendStatus, []int64) {
	switch c.Status() {
	case AuthenticationFailed:
		return ConfigError, nil
	case Disposed:
		return NotConnected, nil
	case Connected:
	default:
		return Congested, nil
	}
	if c.pending.size() >= WindowSize {
		return Congested, nil
	}
	frags, status := fragment(content, &c.Config, byte(c.currentSeq()))
	if status != Success {
		return status, nil
	}
	logEntry := c.Logger.WithFields(logrus.Fields{
		"to":    receivers,
		"total": len(frags.parts),
	})
	var ids []int64
	for i, part := range frags.parts {
		p := c.buildSubmit(part, frags.udhi(), extendedCode, receivers, needStatusReport)
		logEntry.WithFields(logrus.Fields{
			"count":  i + 1,
			"length": len(part),
		}).Info("SMS send")
		for {
			status, id := c.submitAndWait(p)
			if status == Success {
				ids = append(ids, id)
				if c.OnMessageSent != nil {
					c.OnMessageSent(Sent{
						To:        receivers,
						MessageId: id,
						Part:      i + 1,
						Total:     len(frags.parts),
					})
				}
				break
			}
			if status == Congested && c.retryCongested(frags.mode, i) {
				time.Sleep(CongestedRetryDelay)
				continue
			}
			return status, ids
		}
	}
	return Success, ids
}

// retryCongested decides whether a congested part is retried in place.
// Later parts of a concatenated message must travel with their siblings;
// independent short pieces always retry.
func (c *Client) retryCongested(mode fragmentMode, part int) bool {
	switch mode {
	case modeConcat:
		return part > 0
	case modeSplit:
		return true
	default:
		return false
	}
}

// submitAndWait queues one submit and blocks on its completion signal.
func (c *Client) submitAndWait(p *cmpp.Submit) (SendStatus, int64) {
	s := newSubmission(p)
	c.pending.push(s)
	timer := time.NewTimer(SendTimeout)
	defer timer.Stop()
	select {
	case resp := <-s.done:
		if resp == nil {
			return Timeout, 0
		}
		switch resp.Result {
		case cmpp.SubmitOK:
			return Success, msgIdInt64(resp.MsgId)
		case cmpp.SubmitMsgTooLong:
			return MessageTooLong, 0
		case cmpp.SubmitCongested:
			return Congested, 0
		case 10, 11, 12, 13:
			return ConfigError, 0
		default:
			return Unknown, 0
		}
	case <-timer.C:
		return Timeout, 0
	}
}

func (c *Client) buildSubmit(content []byte, udhi uint8, extendedCode string, receivers []string, needStatusReport bool) *cmpp.Submit {
	var registered uint8
	if needStatusReport {
		registered = 1
	}
	return &cmpp.Submit{
		PkTotal:            1,
		PkNumber:           1,
		RegisteredDelivery: registered,
		ServiceId:          c.ServiceId,
		FeeUserType:        cmpp.FeeUserSP,
		FeeTerminalId:      c.SpCode,
		TpUdhi:             udhi,
		MsgFmt:             c.msgFmt(),
		MsgSrc:             c.Username,
		FeeType:            c.feeType(),
		FeeCode:            c.feeCode(),
		SrcId:              c.SpCode + extendedCode,
		DestTerminalId:     receivers,
		MsgContent:         content,
	}
}
