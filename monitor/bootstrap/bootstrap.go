package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/yaron8/netmonitor/generator/fabric"
	"github.com/yaron8/netmonitor/logi"
	"github.com/yaron8/netmonitor/metrics"
	"github.com/yaron8/netmonitor/monitor/aggregator"
	"github.com/yaron8/netmonitor/monitor/collector"
	"github.com/yaron8/netmonitor/monitor/config"
	"github.com/yaron8/netmonitor/monitor/dao"
	"github.com/yaron8/netmonitor/monitor/service"
)

const shutdownTimeout = 5 * time.Second

type Bootstrap struct {
	config     *config.Config
	emulator   *fabric.Emulator
	aggregator *aggregator.Aggregator
	poller     *collector.Poller
	prober     *collector.Prober
	dispatcher *collector.Dispatcher
	daoLinks   *dao.DAOLinks
	publisher  *dao.Publisher
	apiServer  *service.APIServer
	logger     *slog.Logger
}

func NewBootstrap(cfg *config.Config) (*Bootstrap, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	clk := clock.New()
	emu := fabric.NewEmulator(cfg.Emulator, clk)

	repos := aggregator.NewRepositories(clk)
	agg := aggregator.NewAggregator(repos)

	b := &Bootstrap{
		config:     cfg,
		emulator:   emu,
		aggregator: agg,
		poller:     collector.NewPoller(emu, repos.ResponseTimes, clk, cfg.Collector.PollInterval),
		prober:     collector.NewProber(emu, repos.Topology, repos.Latencies, clk, cfg.Collector.ProbeInterval),
		dispatcher: collector.NewDispatcher(emu, repos, clk),
		logger:     logi.GetLogger(),
	}

	// nil interface unless Redis is enabled, so the published route stays off
	var published service.PublishedReader
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: "", // no password set
			DB:       0,  // use default DB
			Protocol: 2,
		})
		b.daoLinks = dao.NewDAOLinks(redisClient, cfg.Redis.TTL)
		b.publisher = dao.NewPublisher(agg, b.daoLinks, clk, cfg.Redis.PublishInterval)
		published = b.daoLinks
	}

	b.apiServer = service.NewAPIServer(cfg.Port, agg, metrics.NewRegistry(agg), published)

	return b, nil
}

func (b *Bootstrap) Aggregator() *aggregator.Aggregator {
	return b.aggregator
}

// Run starts the fabric, the collectors and the API server, and blocks until ctx is
// done or one of them fails. Everything is shut down before Run returns.
func (b *Bootstrap) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	b.emulator.Start()

	g.Go(func() error { return b.dispatcher.Run(gctx) })
	g.Go(func() error { return b.poller.Run(gctx) })
	g.Go(func() error { return b.prober.Run(gctx) })
	if b.publisher != nil {
		g.Go(func() error { return b.publisher.Run(gctx) })
	}
	g.Go(b.apiServer.Start)

	g.Go(func() error {
		<-gctx.Done()
		b.logger.Info("Network monitor shutting down")
		return b.shutdown()
	})

	return g.Wait()
}

func (b *Bootstrap) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := multierr.Combine(
		b.apiServer.Shutdown(ctx),
		b.emulator.Close(),
	)
	if b.daoLinks != nil {
		err = multierr.Append(err, b.daoLinks.Close())
	}
	if err != nil {
		b.logger.Error("Errors during shutdown", "errors", multierr.Errors(err))
	}
	return err
}
