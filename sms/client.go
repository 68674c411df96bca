package sms

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"cmppsms/cmpp"
)

var (
	SendTimeout         = 30 * time.Second       // per-submission response deadline
	AuthTimeout         = 10 * time.Second       // silence budget while authenticating
	IdleInterval        = 10 * time.Second       // silence before a keepalive probe
	ReconnectDelay      = 3 * time.Second        // pause between connection attempts
	CongestedRetryDelay = 100 * time.Millisecond // pause before retrying a congested part
)

// Client keeps an authenticated CMPP session to one gateway: it submits
// messages within a bounded in-flight window, correlates responses back to
// waiting senders, answers keepalive probes and dispatches inbound
// messages and reports. A background worker owns the link lifecycle.
type Client struct {
	Config
	Logger *logrus.Entry

	// OnMessageReceive and OnMessageReport observe inbound traffic. Both
	// run on the transport's receive goroutine. OnMessageSent fires on the
	// sender's goroutine for every acknowledged outbound part.
	OnMessageReceive func(Received)
	OnMessageReport  func(Report)
	OnMessageSent    func(Sent)

	Metrics *Metrics

	transport Transport
	window    *window
	pending   *queue

	seq          uint32 // shared by all outbound frames
	lastTransfer int64  // unix nanos of the last wire activity
	state        int32

	mu         sync.Mutex // guards statusText
	statusText string
	stopOnce   sync.Once
}

// NewClient prepares a client over the given transport. Call Start to
// bring the session up.
func NewClient(cfg Config, transport Transport, logEntry *logrus.Entry) *Client {
	if logEntry == nil {
		logEntry = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &Client{
		Config:    cfg,
		Logger:    logEntry,
		Metrics:   newMetrics(),
		transport: transport,
		window:    newWindow(),
		pending:   new(queue),
	}
	transport.Handle(c.handlePacket, c.handleClose)
	return c
}

// Start launches the session worker.
func (c *Client) Start() {
	go c.run()
}

// Stop terminates the session and releases every waiting sender.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		if c.Status() == Connected {
			c.transport.Send(c.nextSeq(), new(cmpp.Terminate))
		}
		c.setState(Disposed, "")
		c.transport.Disconnect()
		for _, s := range c.window.drain() {
			s.complete(nil)
		}
		for s := c.pending.pop(); s != nil; s = c.pending.pop() {
			s.complete(nil)
		}
		c.Logger.Info("Client stopped")
	})
}

// Status returns the current session state.
func (c *Client) Status() State {
	return State(atomic.LoadInt32(&c.state))
}

// StatusText returns the human-readable reason for the current state.
func (c *Client) StatusText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusText
}

func (c *Client) setState(st State, text string) {
	atomic.StoreInt32(&c.state, int32(st))
	c.mu.Lock()
	c.statusText = text
	c.mu.Unlock()
}

// nextSeq returns the next outbound sequence id. Wrap is fine; the window
// bound keeps concurrent ids apart.
func (c *Client) nextSeq() uint32 {
	return atomic.AddUint32(&c.seq, 1) - 1
}

func (c *Client) currentSeq() uint32 {
	return atomic.LoadUint32(&c.seq)
}

func (c *Client) touch() {
	atomic.StoreInt64(&c.lastTransfer, time.Now().UnixNano())
}

func (c *Client) idle() time.Duration {
	return time.Duration(time.Now().UnixNano() - atomic.LoadInt64(&c.lastTransfer))
}

// run drives connect, authenticate, steady-state pumping and reconnect
// until the client is stopped.
func (c *Client) run() {
	for {
		switch c.Status() {
		case Disposed:
			return
		case AuthenticationFailed:
			time.Sleep(time.Second)
		case Disconnected:
			c.connect()
		case Connecting, Authenticating:
			if c.idle() > AuthTimeout {
				c.Logger.Warning("认证超时")
				c.disconnectLink("认证超时")
				time.Sleep(ReconnectDelay)
			} else {
				time.Sleep(100 * time.Millisecond)
			}
		case Connected:
			c.pump()
		}
	}
}

// connect dials the gateway and sends the login frame. Authentication
// completes on the receive side when CONNECT_RESP arrives.
func (c *Client) connect() {
	c.setState(Connecting, "")
	if err := c.transport.Connect(); err != nil {
		c.Logger.WithError(err).Error("Gateway connection error")
		c.setState(Disconnected, err.Error())
		time.Sleep(ReconnectDelay)
		return
	}
	c.touch()
	c.setState(Authenticating, "")
	if err := c.transport.Send(c.nextSeq(), c.buildConnect(time.Now())); err != nil {
		c.Logger.WithError(err).Error("Login send error")
		c.disconnectLink(err.Error())
		time.Sleep(ReconnectDelay)
	}
}

// pump is one steady-state iteration: sweep expired submits, detect a
// stalled link, keep the link alive, and move pending submits into the
// window.
func (c *Client) pump() {
	now := time.Now()
	expired := c.window.sweep(now, SendTimeout)
	for _, s := range expired {
		c.Metrics.Timeouts.Inc(1)
		s.complete(nil)
	}
	if len(expired) > 0 && c.idle() > IdleInterval {
		// responses overdue and nothing arriving: the link is dead
		for _, s := range c.window.drain() {
			s.complete(nil)
		}
		c.Logger.Warning("链路超时，重新连接")
		c.disconnectLink("链路超时")
		return
	}
	if c.window.size() == 0 && c.pending.size() == 0 && c.idle() > IdleInterval {
		if err := c.transport.Send(c.nextSeq(), new(cmpp.ActiveTest)); err != nil {
			c.disconnectLink(err.Error())
			return
		}
		c.touch()
		time.Sleep(100 * time.Millisecond)
		return
	}
	if c.window.size() >= WindowSize || c.pending.size() == 0 {
		time.Sleep(50 * time.Millisecond)
		return
	}
	for c.window.size() < WindowSize {
		s := c.pending.pop()
		if s == nil {
			break
		}
		s.seq = c.nextSeq()
		s.sendTime = time.Now()
		c.window.insert(s)
		if err := c.transport.Send(s.seq, s.packet); err != nil {
			c.Logger.WithError(err).Error("Submit send error")
			c.window.take(s.seq)
			c.pending.requeue([]*submission{s})
			c.disconnectLink(err.Error())
			return
		}
		c.Metrics.Submits.Inc(1)
		c.Metrics.SubmitRate.Mark(1)
	}
}

// disconnectLink drops the transport and moves every in-flight submit back
// onto the pending queue. The entries keep their completion handles, so
// their original waiters receive the response of the retried submit.
func (c *Client) disconnectLink(reason string) {
	c.transport.Disconnect()
	c.pending.requeue(c.window.drain())
	if c.Status() != Disposed {
		c.setState(Disconnected, reason)
	}
	c.Metrics.Reconnects.Inc(1)
}

// handleClose reacts to the transport dropping underneath us.
func (c *Client) handleClose(err error) {
	switch c.Status() {
	case Disposed, Disconnected, AuthenticationFailed:
		return
	}
	if err != nil {
		c.Logger.WithError(err).Error("Gateway connection lost")
	}
	c.pending.requeue(c.window.drain())
	c.setState(Disconnected, "连接中断")
	c.Metrics.Reconnects.Inc(1)
}

// handlePacket classifies one inbound frame. Runs on the transport's
// receive goroutine; panics are contained here so a bad frame cannot take
// the session down.
func (c *Client) handlePacket(seq uint32, p cmpp.Packet) {
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Errorf("Receive handler panic: %v", r)
		}
	}()
	c.touch()
	if st := c.Status(); st == Authenticating || st == Connecting {
		resp, ok := p.(*cmpp.ConnectResp)
		if !ok {
			c.Logger.WithField("type", p.CommandId().String()).Warning("Unexpected response")
			c.disconnectLink("Unexpected response")
			return
		}
		c.handleConnectResp(resp)
		return
	}
	switch p := p.(type) {
	case *cmpp.SubmitResp:
		if s := c.window.take(seq); s != nil {
			c.Metrics.Responses.Inc(1)
			s.complete(p)
		}
		// late responses after a timeout sweep are dropped
	case *cmpp.Deliver:
		c.handleDeliver(seq, p)
	case *cmpp.ActiveTest:
		if err := c.transport.Send(seq, new(cmpp.ActiveTestResp)); err != nil {
			c.Logger.WithError(err).Error("Probe reply error")
		}
	case *cmpp.ActiveTestResp, *cmpp.TerminateResp:
		// transfer time already refreshed
	case *cmpp.Terminate:
		c.Logger.Warning("网关终止连接")
		c.disconnectLink("网关终止连接")
	default:
		c.Logger.WithField("type", p.CommandId().String()).Warning("Unsupported command type")
	}
}

func (c *Client) handleConnectResp(p *cmpp.ConnectResp) {
	if p.Status == cmpp.ConnectOK {
		c.Logger.Info("Gateway authenticated")
		c.setState(Connected, "")
		if err := c.transport.Send(c.nextSeq(), new(cmpp.ActiveTest)); err != nil {
			c.disconnectLink(err.Error())
		}
		return
	}
	text := "未知错误"
	switch p.Status {
	case cmpp.ConnectBadStructure:
		text = "消息结构错"
	case cmpp.ConnectBadSourceAddr:
		text = "非法源地址"
	case cmpp.ConnectAuthFailed:
		text = "认证失败"
	case cmpp.ConnectBadVersion:
		text = "版本太高"
	}
	c.Logger.WithField("status", p.Status).Errorf("Gateway authentication failed: %s", text)
	c.transport.Disconnect()
	c.setState(AuthenticationFailed, text)
}

// handleDeliver confirms the frame and raises the matching event.
func (c *Client) handleDeliver(seq uint32, p *cmpp.Deliver) {
	resp := &cmpp.DeliverResp{MsgId: p.MsgId}
	if err := c.transport.Send(seq, resp); err != nil {
		c.Logger.WithError(err).Error("Deliver reply error")
	}
	if p.RegisteredDelivery == 1 {
		report, err := cmpp.ParseReport(p.MsgContent)
		if err != nil {
			c.Logger.WithError(err).Error("Broken delivery report")
			return
		}
		c.Metrics.Reports.Inc(1)
		c.Logger.WithFields(logrus.Fields{
			"stat": report.Stat,
			"dest": report.DestTerminalId,
		}).Info("SMS report")
		if c.OnMessageReport != nil {
			c.OnMessageReport(Report{
				MessageId:   msgIdInt64(report.MsgId),
				Status:      report.Stat,
				Destination: report.DestTerminalId,
			})
		}
		return
	}
	c.Metrics.Delivers.Inc(1)
	c.Metrics.DeliverRate.Mark(1)
	msg := Received{
		Content:     Decode(p.MsgFmt, p.MsgContent),
		Source:      p.SrcTerminalId,
		MessageId:   msgIdInt64(p.MsgId),
		Destination: p.DestId,
	}
	c.Logger.WithFields(logrus.Fields{
		"from": msg.Source,
		"to":   msg.Destination,
	}).Info("SMS received")
	if c.OnMessageReceive != nil {
		c.OnMessageReceive(msg)
	}
}
