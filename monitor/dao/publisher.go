package dao

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/yaron8/netmonitor/logi"
	"github.com/yaron8/netmonitor/telemetrics"
)

// LinkSource produces the current link views.
type LinkSource interface {
	Links() []telemetrics.LinkView
}

// Store is where the publisher writes to. DAOLinks implements it.
type Store interface {
	StoreAll(ctx context.Context, views []telemetrics.LinkView, updatedAt time.Time) error
}

// Publisher periodically copies the current link views into the store.
type Publisher struct {
	source   LinkSource
	store    Store
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger
}

func NewPublisher(source LinkSource, store Store, clk clock.Clock, interval time.Duration) *Publisher {
	return &Publisher{
		source:   source,
		store:    store,
		clock:    clk,
		interval: interval,
		logger:   logi.GetLogger(),
	}
}

func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("Link publisher starting", "interval", p.interval)

	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Link publisher stopped")
			return nil
		case <-ticker.C:
			if err := p.PublishOnce(ctx); err != nil {
				p.logger.Error("Error publishing link views", "error", err)
			}
		}
	}
}

// PublishOnce skips the store when there is nothing to publish.
func (p *Publisher) PublishOnce(ctx context.Context) error {
	views := p.source.Links()
	if len(views) == 0 {
		return nil
	}

	if err := p.store.StoreAll(ctx, views, p.clock.Now()); err != nil {
		return err
	}
	p.logger.Debug("Link views published", "links", len(views))
	return nil
}
