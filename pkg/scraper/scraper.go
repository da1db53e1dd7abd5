// Package scraper orchestrates the image acquisition pipeline: submit the
// search, extract candidate URLs, fetch-and-validate each one in order, and
// persist results while keeping the shared progress record current.
package scraper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BrunoDobem/dowloadimg/internal/metrics"
	"github.com/BrunoDobem/dowloadimg/pkg/bing"
	"github.com/BrunoDobem/dowloadimg/pkg/cache"
	"github.com/BrunoDobem/dowloadimg/pkg/config"
	errs "github.com/BrunoDobem/dowloadimg/pkg/errors"
	"github.com/BrunoDobem/dowloadimg/pkg/extract"
	"github.com/BrunoDobem/dowloadimg/pkg/fetch"
	"github.com/BrunoDobem/dowloadimg/pkg/logger"
	"github.com/BrunoDobem/dowloadimg/pkg/progress"
	"github.com/BrunoDobem/dowloadimg/pkg/ratelimit"
	"github.com/BrunoDobem/dowloadimg/pkg/storage"
)

// Pipeline coordinates one acquisition run at a time over process-wide
// shared state. At most one run is active; concurrent Start calls are
// rejected, not queued.
type Pipeline struct {
	search    SearchClient
	extractor ResultExtractor
	validator CandidateValidator
	store     *storage.Manager
	cache     *cache.ResolutionCache
	tracker   *progress.Tracker
	limiter   ratelimit.Limiter
	logger    logger.Logger
	urlOnly   bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New wires a Pipeline from configuration. The tracker is owned by the
// caller and reused across runs.
func New(cfg *config.Config, tracker *progress.Tracker, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.GetLogger()
	}

	searchClient := bing.NewClient(bing.Options{
		URLTemplate:    cfg.Search.URLTemplate,
		UserAgent:      cfg.Search.UserAgent,
		AcceptLanguage: cfg.Search.AcceptLanguage,
		Timeout:        cfg.Search.Timeout,
		MaxRetries:     cfg.Search.MaxRetries,
		Logger:         log,
	})

	validator := fetch.NewValidator(fetch.Options{
		Timeout:        cfg.Download.Timeout,
		UserAgent:      cfg.Search.UserAgent,
		AcceptLanguage: cfg.Search.AcceptLanguage,
		Logger:         log,
	})

	locator := storage.NewLocator(cfg.Output.BaseDirectory, cfg.Output.Serverless)

	return &Pipeline{
		search:    searchClient,
		extractor: extract.New(),
		validator: validator,
		store:     storage.NewManager(locator, log),
		cache:     cache.NewResolutionCache(),
		tracker:   tracker,
		limiter:   ratelimit.NewTokenBucket(cfg.Download.DownloadsPerMinute, time.Minute),
		logger:    log,
		urlOnly:   cfg.Output.Serverless,
	}
}

// Store exposes the storage manager for asset and metadata lookups.
func (p *Pipeline) Store() *storage.Manager {
	return p.store
}

// Cache exposes the resolution cache (used by Purge and tests).
func (p *Pipeline) Cache() *cache.ResolutionCache {
	return p.cache
}

// Progress returns a consistent snapshot of the shared download status.
func (p *Pipeline) Progress() progress.Snapshot {
	return p.tracker.Snapshot()
}

// Running reports whether a run is currently active.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start validates parameters, claims the single-flight slot and launches
// the run on a background goroutine. The caller observes the run through
// Progress; failures surface in the progress message and the log.
func (p *Pipeline) Start(query string, quantity int) error {
	if err := validateParams(query, quantity); err != nil {
		return err
	}

	ctx, err := p.claim()
	if err != nil {
		return err
	}

	go func() {
		// The background run has no caller to return to; the log is the
		// supervising context here.
		if err := p.run(ctx, query, quantity); err != nil {
			p.logger.WithError(err).WithFields(map[string]interface{}{
				"query":    query,
				"quantity": quantity,
			}).Error("acquisition run failed")
		}
	}()

	return nil
}

// Run executes an acquisition synchronously, for callers that want the
// terminal error directly (the CLI). The same single-flight rule applies.
func (p *Pipeline) Run(ctx context.Context, query string, quantity int) error {
	if err := validateParams(query, quantity); err != nil {
		return err
	}

	runCtx, err := p.claimWithParent(ctx)
	if err != nil {
		return err
	}
	return p.run(runCtx, query, quantity)
}

// Stop cancels the in-flight run, if any. The run notices at its next
// blocking boundary.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// Purge removes all stored assets and clears the resolution cache. It is
// refused while a run is active; purge and active runs must not interleave.
func (p *Pipeline) Purge() error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errs.New(errs.ErrorTypeBusy, "cannot purge while a download is in progress")
	}
	p.mu.Unlock()

	if err := p.store.PurgeAll(); err != nil {
		return err
	}
	p.cache.Clear()
	metrics.PurgesTotal.Inc()
	return nil
}

func validateParams(query string, quantity int) error {
	if cache.Normalize(query) == "" {
		return errs.New(errs.ErrorTypeInvalidParams, "query must not be empty")
	}
	if quantity <= 0 {
		return errs.New(errs.ErrorTypeInvalidParams, "quantity must be positive")
	}
	return nil
}

// claim takes the single-flight slot or fails with a busy error.
func (p *Pipeline) claim() (context.Context, error) {
	return p.claimWithParent(context.Background())
}

func (p *Pipeline) claimWithParent(parent context.Context) (context.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil, errs.New(errs.ErrorTypeBusy, "a download is already in progress")
	}
	ctx, cancel := context.WithCancel(parent)
	p.running = true
	p.cancel = cancel
	return ctx, nil
}

func (p *Pipeline) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// run drives one acquisition from Running to a terminal state. The shared
// tracker always ends with running=false, whatever path the run takes.
func (p *Pipeline) run(ctx context.Context, query string, quantity int) (err error) {
	runID := uuid.New().String()
	log := p.logger.WithFields(map[string]interface{}{
		"run_id":   runID,
		"query":    query,
		"quantity": quantity,
	})

	p.tracker.Begin(quantity)

	defer p.release()
	defer func() {
		if r := recover(); r != nil {
			p.tracker.Finish(fmt.Sprintf("internal error: %v", r))
			metrics.RecordRun("failed")
			panic(r)
		}
		if err != nil {
			p.tracker.Finish(err.Error())
			metrics.RecordRun("failed")
		}
	}()

	log.Info("acquisition run started")

	// Cache hit: synthesize progress from the cached URLs and skip all
	// network and filesystem work.
	if cached, ok := p.cache.Get(query, quantity); ok {
		log.InfoWithFields("serving run from resolution cache", map[string]interface{}{
			"cached": len(cached),
		})
		metrics.CacheHitsTotal.Inc()
		for i, u := range cached[:quantity] {
			p.tracker.Increment(fmt.Sprintf("downloaded %d of %d images", i+1, quantity))
			p.tracker.AppendURL(u)
		}
		p.tracker.Finish(fmt.Sprintf("download finished: %d images ready", quantity))
		metrics.RecordRun("completed")
		return nil
	}

	var queryDir string
	if !p.urlOnly {
		p.tracker.SetMessage("creating download folder...")
		queryDir, err = p.store.QueryDir(query)
		if err != nil {
			log.WithError(err).Error("failed to prepare query folder")
			return err
		}
	}

	p.tracker.SetMessage("searching images...")
	html, searchErr := p.search.SearchHTML(ctx, query)
	metrics.RecordSearch(searchErr == nil)
	if searchErr != nil {
		err = searchErr
		return err
	}

	candidates := p.extractor.Extract(html)
	if len(candidates) == 0 {
		err = errs.New(errs.ErrorTypeNoResults, "no images found for this search")
		return err
	}
	log.InfoWithFields("candidates extracted", map[string]interface{}{
		"candidates": len(candidates),
	})

	completed := 0
	metadata := make(map[string]string)
	var sourceURLs []string

	for _, candidate := range candidates {
		if completed >= quantity {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errs.Wrap(errs.ErrorTypeNetwork, "run cancelled", ctxErr)
			return err
		}
		if waitErr := p.limiter.Wait(ctx); waitErr != nil {
			err = errs.Wrap(errs.ErrorTypeNetwork, "run cancelled", waitErr)
			return err
		}

		p.tracker.SetMessage(fmt.Sprintf("downloading image %d of %d...", completed+1, quantity))

		start := time.Now()
		data, format, fetchErr := p.validator.FetchValidate(ctx, candidate)
		if fetchErr != nil {
			metrics.RecordCandidateFetch("skipped", time.Since(start))
			log.DebugWithFields("candidate skipped", map[string]interface{}{
				"url":   candidate,
				"error": fetchErr.Error(),
			})
			continue
		}
		metrics.RecordCandidateFetch("validated", time.Since(start))

		completed++
		sourceURLs = append(sourceURLs, candidate)

		if p.urlOnly {
			p.tracker.Increment(fmt.Sprintf("downloaded %d of %d images", completed, quantity))
			p.tracker.AppendURL(candidate)
			continue
		}

		name, saveErr := p.store.SaveImage(queryDir, completed, data)
		if saveErr != nil {
			log.WithError(saveErr).Error("failed to persist image")
			err = saveErr
			return err
		}
		metadata[name] = candidate
		p.tracker.Increment(fmt.Sprintf("downloaded %d of %d images", completed, quantity))
		p.tracker.AppendURL(name)

		log.DebugWithFields("image acquired", map[string]interface{}{
			"file":   name,
			"url":    candidate,
			"format": format,
		})
	}

	if !p.urlOnly && len(metadata) > 0 {
		if metaErr := p.store.WriteMetadata(queryDir, metadata); metaErr != nil {
			log.WithError(metaErr).Error("failed to write metadata document")
			err = metaErr
			return err
		}
	}

	// Later requests for the same query can be served without re-scraping,
	// as long as enough URLs were resolved this time.
	if len(sourceURLs) > 0 {
		p.cache.Put(query, sourceURLs)
	}

	p.tracker.Finish(fmt.Sprintf("download finished: %d images saved", completed))
	metrics.RecordRun("completed")
	log.InfoWithFields("acquisition run completed", map[string]interface{}{
		"completed": completed,
	})
	return nil
}
