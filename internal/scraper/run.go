package scraper

import (
	"context"
	"errors"
	"log"
	"time"

	"go-upwork-scraper/internal/dedup"
)

// PageFetcher is the external transport capability. It applies any proxy or
// stealth policy itself and returns raw page content or a transport error.
type PageFetcher interface {
	Fetch(ctx context.Context, req PageRequest) (string, error)
}

type Status string

const (
	StatusDone   Status = "Done"
	StatusFailed Status = "Failed"
)

type RunError struct {
	Kind    string `json:"kind"`
	Page    int    `json:"page"`
	Message string `json:"message"`
}

// Summary is the run report produced alongside the records.
type Summary struct {
	RecordCount   int        `json:"recordCount"`
	RejectedCount int        `json:"rejectedCount"`
	PagesFetched  int        `json:"pagesFetched"`
	Status        Status     `json:"status"`
	Errors        []RunError `json:"errors"`
}

type RunConfig struct {
	MaxItems   int           // 0 = bounded only by MaxPages
	MaxPages   int           // safety bound against endless pagination
	RetryLimit int           // total fetch attempts per page
	RetryDelay time.Duration // first retry delay, doubled per attempt
}

// Runner drives one run: build request, fetch, extract, normalize, dedup,
// decide. It owns all run state; no other component mutates it.
type Runner struct {
	fetcher    PageFetcher
	builder    *QueryBuilder
	extractor  *Extractor
	normalizer *Normalizer
	cfg        RunConfig
	sleep      func(time.Duration)
}

func NewRunner(fetcher PageFetcher, cfg RunConfig) *Runner {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Runner{
		fetcher:    fetcher,
		builder:    NewQueryBuilder(),
		extractor:  NewExtractor(),
		normalizer: NewNormalizer(),
		cfg:        cfg,
		sleep:      time.Sleep,
	}
}

type runState struct {
	records      []JobRecord
	seen         *dedup.Dedup
	rejected     int
	pagesFetched int
	status       Status
	errs         []RunError
}

func (st *runState) fail(e RunError) {
	st.status = StatusFailed
	st.errs = append(st.errs, e)
}

func (st *runState) summary() Summary {
	return Summary{
		RecordCount:   len(st.records),
		RejectedCount: st.rejected,
		PagesFetched:  st.pagesFetched,
		Status:        st.status,
		Errors:        st.errs,
	}
}

// Run walks search pages until the item cap, page bound or end of results.
// A failed run still returns everything accumulated so far; the only error
// returned is a pre-run InvalidQueryError.
func (r *Runner) Run(ctx context.Context, query SearchQuery) ([]JobRecord, Summary, error) {
	if _, err := r.builder.Build(query, 1); err != nil {
		return nil, Summary{}, err
	}

	st := &runState{seen: dedup.New()}
	page := 1
	for {
		if err := ctx.Err(); err != nil {
			log.Printf("🛑 Run cancelled before page %d, returning %d records", page, len(st.records))
			st.fail(RunError{Kind: "cancelled", Page: page, Message: err.Error()})
			break
		}

		req, err := r.builder.Build(query, page)
		if err != nil {
			return st.records, st.summary(), err
		}

		html, err := r.fetchPage(ctx, req)
		if err != nil {
			st.fail(RunError{Kind: "transport", Page: page, Message: err.Error()})
			break
		}
		st.pagesFetched++

		candidates, err := r.extractor.Extract(html)
		if errors.Is(err, ErrPageUnrecognized) {
			// One fresh fetch; the collaborator may rotate egress underneath.
			log.Printf("⚠️ Page %d not recognized (%v), refetching once", page, err)
			html, ferr := r.fetchPage(ctx, req)
			if ferr != nil {
				st.fail(RunError{Kind: "transport", Page: page, Message: ferr.Error()})
				break
			}
			candidates, err = r.extractor.Extract(html)
		}
		if err != nil {
			st.fail(RunError{Kind: "extraction", Page: page, Message: err.Error()})
			break
		}

		if len(candidates) == 0 {
			log.Printf("🏁 Page %d has no listings, end of results", page)
			st.status = StatusDone
			break
		}

		admitted := 0
		capped := false
		for _, c := range candidates {
			rec, err := r.normalizer.Normalize(c)
			if err != nil {
				st.rejected++
				continue
			}
			if !st.seen.Admit(rec.JobID) {
				continue
			}
			st.records = append(st.records, rec)
			admitted++
			if r.cfg.MaxItems > 0 && len(st.records) >= r.cfg.MaxItems {
				capped = true
				break
			}
		}
		log.Printf("📦 Page %d: %d candidates, %d admitted (%d total)", page, len(candidates), admitted, len(st.records))

		if capped {
			log.Printf("✋ Reached max items (%d), stopping", r.cfg.MaxItems)
			st.status = StatusDone
			break
		}
		if page >= r.cfg.MaxPages {
			log.Printf("✋ Reached max pages (%d), stopping", r.cfg.MaxPages)
			st.status = StatusDone
			break
		}
		page++
	}

	return st.records, st.summary(), nil
}

// fetchPage runs the transport call through an explicit bounded retry
// schedule. Attempt n sleeps RetryDelay*2^(n-1) before retrying.
func (r *Runner) fetchPage(ctx context.Context, req PageRequest) (string, error) {
	bo := backoff{delay: r.cfg.RetryDelay, max: r.cfg.RetryLimit - 1}
	for {
		html, err := r.fetcher.Fetch(ctx, req)
		if err == nil {
			return html, nil
		}
		if ctx.Err() != nil {
			return "", err
		}
		d, ok := bo.next()
		if !ok {
			return "", err
		}
		log.Printf("⚠️ Fetch page %d failed (%v), retrying in %v", req.Page, err, d)
		r.sleep(d)
	}
}

type backoff struct {
	delay   time.Duration
	max     int
	attempt int
}

func (b *backoff) next() (time.Duration, bool) {
	if b.attempt >= b.max {
		return 0, false
	}
	d := b.delay << b.attempt
	b.attempt++
	return d, true
}
