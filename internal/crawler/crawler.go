// Package crawler drives the listing -> profile -> fight-history traversal of ufc.com on top of colly.
package crawler

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"github.com/kapu/ufc-athlete-scraper-go/internal/domain"
	"github.com/kapu/ufc-athlete-scraper-go/internal/extractor"
	"github.com/kapu/ufc-athlete-scraper-go/internal/util"
	"github.com/kapu/ufc-athlete-scraper-go/pkg/errors"
	"go.uber.org/zap"
)

// Request kinds carried in the colly context.
const (
	kindListing = "listing"
	kindProfile = "profile"
	kindHistory = "history"
)

const (
	ctxKeyKind      = "kind"
	ctxKeyPage      = "page"
	ctxKeyAthleteID = "athlete_id"
	ctxKeyRetries   = "retries"
)

// Options configures one crawler. Zero durations disable the matching limit.
type Options struct {
	StartURL         string
	AllowedDomains   []string
	Gender           string
	Concurrency      int
	Delay            time.Duration
	RandomDelay      time.Duration
	RetryTimes       int
	RequestTimeout   time.Duration
	UserAgent        string
	RotateUserAgent  bool
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Stats counts pages handled during one run.
type Stats struct {
	ListingPages int64
	Profiles     int64
	HistoryPages int64
	Skipped      int64
	Failed       int64
}

// Result is what a run hands to the persistence layer.
type Result struct {
	Records []*domain.AthleteRecord
	Partial int
	Stats   Stats
}

type Crawler struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) (*Crawler, error) {
	if opts.StartURL == "" {
		return nil, errors.NewValidationError("start URL is required", "StartURL", opts.StartURL)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{opts: opts, logger: logger}, nil
}

// session holds the state of a single Run.
type session struct {
	opts      Options
	ctx       context.Context
	logger    *zap.Logger
	collector *colly.Collector
	tracker   *Tracker
	breaker   *util.CircuitBreaker
	known     map[string]struct{}

	listingPages atomic.Int64
	profiles     atomic.Int64
	historyPages atomic.Int64
	skipped      atomic.Int64
	failed       atomic.Int64
}

// Run crawls from the start URL until colly has no requests left or ctx is cancelled,
// then flushes pending athletes as partial data. Profiles whose id is in known are not visited.
func (c *Crawler) Run(ctx context.Context, known map[string]struct{}) (*Result, error) {
	collector, err := c.newCollector(ctx)
	if err != nil {
		return nil, err
	}

	s := &session{
		opts:      c.opts,
		ctx:       ctx,
		logger:    c.logger,
		collector: collector,
		tracker:   NewTracker(c.logger),
		breaker:   util.NewCircuitBreaker(c.opts.BreakerThreshold, c.opts.BreakerCooldown, c.logger),
		known:     known,
	}
	s.register()

	c.logger.Info("Starting crawl",
		zap.String("start_url", c.opts.StartURL),
		zap.Int("concurrency", c.opts.Concurrency),
		zap.Duration("delay", c.opts.Delay),
		zap.Int("known_athletes", len(known)),
	)

	if err := collector.Request(http.MethodGet, c.opts.StartURL, nil, newRequestContext(kindListing, 1, ""), nil); err != nil {
		return nil, errors.NewFetchError("failed to start crawl", c.opts.StartURL, 0, err)
	}
	collector.Wait()

	if ctx.Err() != nil {
		c.logger.Warn("Crawl interrupted, flushing pending athletes", zap.Error(ctx.Err()))
	}

	records, partial := s.tracker.Flush()
	result := &Result{
		Records: records,
		Partial: partial,
		Stats: Stats{
			ListingPages: s.listingPages.Load(),
			Profiles:     s.profiles.Load(),
			HistoryPages: s.historyPages.Load(),
			Skipped:      s.skipped.Load(),
			Failed:       s.failed.Load(),
		},
	}

	breaker := s.breaker.Status()
	c.logger.Info("Crawl finished",
		zap.Int("athletes", len(records)),
		zap.Int("partial", partial),
		zap.Int64("listing_pages", result.Stats.ListingPages),
		zap.Int64("profiles", result.Stats.Profiles),
		zap.Int64("history_pages", result.Stats.HistoryPages),
		zap.Int64("skipped", result.Stats.Skipped),
		zap.Int64("failed", result.Stats.Failed),
		zap.String("breaker_state", breaker.State.String()),
	)

	return result, nil
}

func (c *Crawler) newCollector(ctx context.Context) (*colly.Collector, error) {
	options := []colly.CollectorOption{
		colly.Async(true),
		colly.StdlibContext(ctx),
	}
	if len(c.opts.AllowedDomains) > 0 {
		options = append(options, colly.AllowedDomains(c.opts.AllowedDomains...))
	}
	if c.opts.UserAgent != "" {
		options = append(options, colly.UserAgent(c.opts.UserAgent))
	}

	collector := colly.NewCollector(options...)
	if c.opts.RequestTimeout > 0 {
		collector.SetRequestTimeout(c.opts.RequestTimeout)
	}

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: c.opts.Concurrency,
		Delay:       c.opts.Delay,
		RandomDelay: c.opts.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("failed to set limit rule: %w", err)
	}

	if c.opts.RotateUserAgent {
		extensions.RandomUserAgent(collector)
	}
	extensions.Referer(collector)

	return collector, nil
}

func (s *session) register() {
	s.collector.OnResponse(func(_ *colly.Response) {
		s.breaker.RecordSuccess()
	})

	s.collector.OnHTML("html", func(e *colly.HTMLElement) {
		switch e.Request.Ctx.Get(ctxKeyKind) {
		case kindListing:
			s.handleListing(e)
		case kindProfile:
			s.handleProfile(e)
		case kindHistory:
			s.handleHistory(e)
		}
	})

	s.collector.OnError(s.handleError)
}

func (s *session) handleListing(e *colly.HTMLElement) {
	page := intFromContext(e.Request.Ctx, ctxKeyPage)
	s.listingPages.Add(1)

	cards := extractor.ListingCards(e.DOM)
	s.logger.Info("Scraping listing page",
		zap.Int("page", page),
		zap.Int("athletes", len(cards)),
		zap.String("url", e.Request.URL.String()),
	)

	for _, card := range cards {
		if card.Href == "" {
			s.logger.Warn("Athlete card without profile link", zap.Int("page", page))
			continue
		}

		profileURL := e.Request.AbsoluteURL(card.Href)
		if profileURL == "" {
			s.logger.Warn("Unresolvable profile link", zap.String("href", card.Href))
			continue
		}
		if s.isKnown(profileURL) {
			s.skipped.Add(1)
			s.logger.Debug("Skipping known athlete", zap.String("url", profileURL))
			continue
		}

		s.enqueue(profileURL, newRequestContext(kindProfile, 1, ""))
	}

	next := extractor.PagerLink(e.DOM)
	if next == "" {
		s.logger.Info("No more listing pages to scrape", zap.Int("page", page))
		return
	}
	if nextURL := e.Request.AbsoluteURL(next); nextURL != "" {
		s.enqueue(nextURL, newRequestContext(kindListing, page+1, ""))
	}
}

func (s *session) handleProfile(e *colly.HTMLElement) {
	profileURL := e.Request.URL.String()

	record, err := s.extractProfile(e, profileURL)
	if err != nil {
		s.failed.Add(1)
		s.logger.Error("Failed to extract athlete profile", zap.String("url", profileURL), zap.Error(err))
		return
	}
	s.profiles.Add(1)

	var nextURL string
	if next := extractor.PagerLink(e.DOM); next != "" {
		nextURL = e.Request.AbsoluteURL(next)
	}

	if !s.tracker.Profile(record, nextURL != "") {
		return
	}
	s.enqueue(nextURL, newRequestContext(kindHistory, 1, record.ID()))
}

func (s *session) extractProfile(e *colly.HTMLElement, profileURL string) (record *domain.AthleteRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewExtractionError("profile extraction failed", "profile", profileURL, fmt.Errorf("panic: %v", r))
		}
	}()
	return extractor.ExtractAthlete(e.DOM, profileURL, s.opts.Gender, s.logger), nil
}

func (s *session) handleHistory(e *colly.HTMLElement) {
	athleteID := e.Request.Ctx.Get(ctxKeyAthleteID)
	pageURL := e.Request.URL.String()

	fights := extractor.ExtractFightHistory(e.DOM, pageURL, s.logger)

	var nextURL string
	if next := extractor.HistoryPagerLink(e.DOM); next != "" {
		nextURL = e.Request.AbsoluteURL(next)
	}

	progress, err := s.tracker.Continue(athleteID, fights, nextURL != "")
	if err != nil {
		s.logger.Error("Dropping fight-history page",
			zap.String("athlete_id", athleteID),
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return
	}
	s.historyPages.Add(1)

	s.logger.Debug("Fight-history page merged",
		zap.String("athlete_id", athleteID),
		zap.Int("page", progress.Page),
		zap.Int("fights", progress.Fights),
	)

	if progress.Done {
		return
	}
	s.enqueue(nextURL, newRequestContext(kindHistory, progress.Page, athleteID))
}

func (s *session) handleError(r *colly.Response, err error) {
	requestURL := r.Request.URL.String()

	if s.ctx.Err() != nil {
		s.logger.Debug("Request cancelled", zap.String("url", requestURL))
		return
	}

	s.breaker.RecordFailure()

	retries := intFromContext(r.Request.Ctx, ctxKeyRetries)
	if retries < s.opts.RetryTimes && retryable(r.StatusCode) && s.breaker.CanExecute() {
		r.Request.Ctx.Put(ctxKeyRetries, retries+1)
		s.logger.Warn("Retrying request",
			zap.String("url", requestURL),
			zap.Int("status", r.StatusCode),
			zap.Int("attempt", retries+1),
			zap.Error(err),
		)
		if retryErr := r.Request.Retry(); retryErr == nil {
			return
		}
	}

	s.failed.Add(1)
	s.logger.Error("Giving up on request",
		zap.String("kind", r.Request.Ctx.Get(ctxKeyKind)),
		zap.String("athlete_id", r.Request.Ctx.Get(ctxKeyAthleteID)),
		zap.Error(errors.NewFetchError("request failed", requestURL, r.StatusCode, err)),
	)
}

func (s *session) enqueue(target string, ctx *colly.Context) {
	err := s.collector.Request(http.MethodGet, target, nil, ctx, nil)
	if err == nil {
		return
	}
	// A refused history page leaves its athlete pending until the final flush.
	if ctx.Get(ctxKeyKind) == kindHistory {
		s.logger.Warn("Fight-history page not scheduled",
			zap.String("url", target),
			zap.String("athlete_id", ctx.Get(ctxKeyAthleteID)),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("Request not scheduled", zap.String("url", target), zap.Error(err))
}

func (s *session) isKnown(profileURL string) bool {
	if len(s.known) == 0 {
		return false
	}
	_, ok := s.known[extractor.AthleteID(profileURL)]
	return ok
}

// retryable mirrors the usual crawler retry set: transport errors, timeouts, throttling and 5xx.
func retryable(status int) bool {
	switch {
	case status == 0:
		return true
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return true
	default:
		return status >= http.StatusInternalServerError
	}
}

func newRequestContext(kind string, page int, athleteID string) *colly.Context {
	ctx := colly.NewContext()
	ctx.Put(ctxKeyKind, kind)
	ctx.Put(ctxKeyPage, page)
	if athleteID != "" {
		ctx.Put(ctxKeyAthleteID, athleteID)
	}
	return ctx
}

func intFromContext(ctx *colly.Context, key string) int {
	value, _ := ctx.GetAny(key).(int)
	return value
}
