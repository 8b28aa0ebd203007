package app

import (
	"context"
	"time"

	"github.com/kapu/ufc-athlete-scraper-go/internal/crawler"
	"github.com/kapu/ufc-athlete-scraper-go/internal/domain"
	"github.com/kapu/ufc-athlete-scraper-go/internal/storage"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const defaultSinkTimeout = 30 * time.Second

// Runner is the crawl step of the pipeline.
type Runner interface {
	Run(ctx context.Context, known map[string]struct{}) (*crawler.Result, error)
}

// Sink receives the crawled athletes after the JSON dataset is written. Sink failures are logged, never fatal.
type Sink interface {
	Name() string
	Store(ctx context.Context, records []*domain.AthleteRecord) error
}

// IDSource contributes already-scraped athlete ids for skip-known runs.
type IDSource func(ctx context.Context) (map[string]struct{}, error)

type Pipeline struct {
	runner      Runner
	store       *storage.JSONStore
	sinks       []Sink
	idSources   []IDSource
	skipKnown   bool
	sinkTimeout time.Duration
	logger      *zap.Logger
}

// Report summarises one pipeline run.
type Report struct {
	Crawl       *crawler.Result
	Persist     storage.PersistResult
	SinkFailure int
}

func NewPipeline(runner Runner, store *storage.JSONStore, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		runner:      runner,
		store:       store,
		sinkTimeout: defaultSinkTimeout,
		logger:      logger,
	}
}

func (p *Pipeline) WithSinks(sinks ...Sink) *Pipeline {
	p.sinks = append(p.sinks, sinks...)
	return p
}

// WithSkipKnown makes the crawl skip athletes already present in the dataset or in any extra id source.
func (p *Pipeline) WithSkipKnown(sources ...IDSource) *Pipeline {
	p.skipKnown = true
	p.idSources = append(p.idSources, sources...)
	return p
}

// Run crawls, merges into the JSON dataset and then fans the fresh records out to the sinks.
// Only a dataset write failure is returned as an error.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	var known map[string]struct{}
	if p.skipKnown {
		known = p.knownIDs(ctx)
	}

	result, err := p.runner.Run(ctx, known)
	if err != nil {
		return nil, err
	}

	persisted, err := p.store.Persist(result.Records)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Crawl:       result,
		Persist:     persisted,
		SinkFailure: p.publish(ctx, result.Records),
	}

	p.logger.Info("Scraping complete",
		zap.Int("fighters_scraped", len(result.Records)),
		zap.Int("partial", result.Partial),
		zap.Int("added", persisted.Added),
		zap.Int("dataset_total", persisted.Total),
		zap.String("output", p.store.Path()),
	)
	return report, nil
}

func (p *Pipeline) knownIDs(ctx context.Context) map[string]struct{} {
	known, err := p.store.KnownIDs()
	if err != nil {
		p.logger.Warn("Failed to read known athletes from dataset", zap.Error(err))
		known = make(map[string]struct{})
	}

	for _, source := range p.idSources {
		ids, err := source(ctx)
		if err != nil {
			p.logger.Warn("Failed to read known athletes", zap.Error(err))
			continue
		}
		for id := range ids {
			known[id] = struct{}{}
		}
	}

	p.logger.Info("Skipping known athletes", zap.Int("known", len(known)))
	return known
}

// publish runs every sink concurrently and returns how many failed.
// It detaches from ctx so an interrupted crawl still reaches the sinks.
func (p *Pipeline) publish(ctx context.Context, records []*domain.AthleteRecord) int {
	if len(p.sinks) == 0 || len(records) == 0 {
		return 0
	}

	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.sinkTimeout)
	defer cancel()

	failures := make([]bool, len(p.sinks))
	workers := pool.New().WithErrors().WithContext(sinkCtx)
	for i, sink := range p.sinks {
		workers.Go(func(ctx context.Context) error {
			if err := sink.Store(ctx, records); err != nil {
				failures[i] = true
				p.logger.Warn("Sink failed", zap.String("sink", sink.Name()), zap.Error(err))
				return err
			}
			p.logger.Debug("Sink updated", zap.String("sink", sink.Name()), zap.Int("athletes", len(records)))
			return nil
		})
	}
	_ = workers.Wait()

	failed := 0
	for _, f := range failures {
		if f {
			failed++
		}
	}
	return failed
}
