package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"go.uber.org/zap"
)

// Publisher is the part of *nats.Conn the change publisher needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ConnectNATS dials url and keeps reconnecting for the life of the process.
func ConnectNATS(url string, logger *zap.Logger) (*nats.Conn, error) {
	logger = logger.Named("nats")
	nc, err := nats.Connect(url,
		nats.Name("scba-benevolat"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return nc, nil
}

// ChangePublisher forwards every committed game to <subject>.<gameId> so
// other services can follow the roster.
type ChangePublisher struct {
	conn    Publisher
	subject string
	logger  *zap.Logger
}

func NewChangePublisher(conn Publisher, subject string, logger *zap.Logger) *ChangePublisher {
	return &ChangePublisher{conn: conn, subject: subject, logger: logger.Named("publisher")}
}

// Run publishes games from changes until the channel closes or ctx ends.
func (p *ChangePublisher) Run(ctx context.Context, changes <-chan models.Game) {
	for {
		select {
		case <-ctx.Done():
			return
		case g, ok := <-changes:
			if !ok {
				return
			}
			if err := p.Publish(g); err != nil {
				p.logger.Error("failed to publish game", zap.String("game", g.ID), zap.Error(err))
			}
		}
	}
}

func (p *ChangePublisher) Publish(g models.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject+"."+g.ID, data)
}
