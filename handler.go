package main

import (
	"github.com/sirupsen/logrus"

	"cmppsms/sms"
	"cmppsms/sqlog"
)

// Gate routes client events into the log and, when configured, the MySQL
// journal.
type Gate struct {
	Logger *logrus.Entry
	db     *sqlog.DB
}

func NewGate(dsn string, logEntry *logrus.Entry) (*Gate, error) {
	gate := &Gate{Logger: logEntry}
	if dsn != "" {
		db, err := sqlog.Connect(dsn)
		if err != nil {
			return nil, err
		}
		gate.db = db
	}
	return gate, nil
}

func (g *Gate) Close() {
	if g.db != nil {
		g.db.Close()
	}
}

// MessageSent journals one acknowledged outbound part.
func (g *Gate) MessageSent(s sms.Sent) {
	if g.db == nil {
		return
	}
	for _, to := range s.To {
		if err := g.db.Sent(to, s.MessageId, s.Part, s.Total); err != nil {
			g.Logger.WithError(err).Error("Journal insert error")
		}
	}
}

// MessageReceived handles a mobile-originated message.
func (g *Gate) MessageReceived(msg sms.Received) {
	g.Logger.WithFields(logrus.Fields{
		"from": msg.Source,
		"to":   msg.Destination,
		"id":   msg.MessageId,
	}).Infof("SMS: %q", msg.Content)
	if g.db == nil {
		return
	}
	if err := g.db.Received(msg.Source, msg.Destination, msg.Content, msg.MessageId); err != nil {
		g.Logger.WithError(err).Error("Journal insert error")
	}
}

// MessageReported handles a delivery report.
func (g *Gate) MessageReported(report sms.Report) {
	g.Logger.WithFields(logrus.Fields{
		"id":   report.MessageId,
		"stat": report.Status,
	}).Info("SMS report")
	if g.db == nil {
		return
	}
	if err := g.db.Report(report.MessageId, report.Status, report.Destination); err != nil {
		g.Logger.WithError(err).Error("Journal update error")
	}
}
