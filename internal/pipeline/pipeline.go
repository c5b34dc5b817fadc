// Package pipeline orchestrates a scraping run: every selected source adapter
// is invoked in turn, results are normalized and partitioned into new and
// duplicate sets, and the new set is persisted in a single batched write.
//
// Sources run strictly sequentially. Most of these sites key their
// anti-automation defenses on request pacing, and concurrent fetching would
// defeat the rate governor's guarantees.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/MarkitIt/markitit-xc475/internal/dedupe"
	"github.com/MarkitIt/markitit-xc475/internal/event"
	"github.com/MarkitIt/markitit-xc475/internal/logger"
	"github.com/MarkitIt/markitit-xc475/internal/normalize"
	"github.com/MarkitIt/markitit-xc475/internal/observability"
	"github.com/MarkitIt/markitit-xc475/internal/source"
	"github.com/MarkitIt/markitit-xc475/internal/store"
)

// SourceReport is one source's contribution to a run.
type SourceReport struct {
	Scraped    int  `json:"scraped"`
	New        int  `json:"new"`
	Duplicates int  `json:"duplicates"`
	Failed     bool `json:"failed,omitempty"`
}

// Report summarizes a completed run.
type Report struct {
	RunID      string                  `json:"run_id"`
	StartedAt  time.Time               `json:"started_at"`
	Duration   time.Duration           `json:"duration"`
	New        int                     `json:"new"`
	Duplicates int                     `json:"duplicates"`
	Sources    map[string]SourceReport `json:"sources"`
}

// Pipeline wires the adapters, the dedup engine, and the store together. All
// collaborators are explicit dependencies scoped to the run; there is no
// ambient global state.
type Pipeline struct {
	sources map[string]source.Source
	checker *dedupe.Checker
	store   store.Store
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// New creates a Pipeline. A nil clock means real time.
func New(sources map[string]source.Source, checker *dedupe.Checker, st store.Store, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		sources: sources,
		checker: checker,
		store:   st,
		metrics: metrics,
		clock:   clock,
	}
}

// Run scrapes the selected sources and persists the new events in one batch.
// Failures below this boundary are contained and become zero contributions;
// only persistence failures (dedup queries and the batch commit) propagate,
// in which case nothing from this run is written.
func (p *Pipeline) Run(ctx context.Context, sourceIDs []string) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: p.clock.Now(),
		Sources:   make(map[string]SourceReport),
	}

	p.metrics.RunRunning.Set(1)
	defer p.metrics.RunRunning.Set(0)

	logger.Info("run started", logger.Fields{
		"run_id":  report.RunID,
		"sources": sourceIDs,
	})

	type collected struct {
		sourceID string
		evt      *event.Event
	}
	var events []collected

	for _, id := range sourceIDs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		sr := SourceReport{}
		src, ok := p.sources[id]
		if !ok {
			logger.Error("unknown source selected", logger.Fields{
				"run_id": report.RunID,
				"source": id,
			}, nil)
			p.metrics.SourceFailures.WithLabelValues(id).Inc()
			sr.Failed = true
			report.Sources[id] = sr
			continue
		}

		raws, err := src.FetchEvents(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			logger.Error("source fetch failed", logger.Fields{
				"run_id": report.RunID,
				"source": id,
			}, err)
			p.metrics.SourceFailures.WithLabelValues(id).Inc()
			sr.Failed = true
			report.Sources[id] = sr
			continue
		}

		sr.Scraped = len(raws)
		p.metrics.EventsScraped.WithLabelValues(id).Add(float64(len(raws)))

		for _, raw := range raws {
			evt, err := normalize.Normalize(raw)
			if err != nil {
				logger.Warn("item dropped", logger.Fields{
					"run_id": report.RunID,
					"source": id,
					"error":  err.Error(),
				})
				p.metrics.ItemFailures.WithLabelValues(id).Inc()
				continue
			}
			events = append(events, collected{sourceID: id, evt: evt})
		}
		report.Sources[id] = sr

		logger.Info("source scraped", logger.Fields{
			"run_id": report.RunID,
			"source": id,
			"events": sr.Scraped,
		})
	}

	batch := p.store.NewBatch()
	seen := make(map[string]bool)

	for _, c := range events {
		key := dedupe.Key(c.evt)
		c.evt.IdentityKey = key

		dup := seen[key]
		if !dup {
			var err error
			dup, err = p.checker.IsDuplicate(ctx, key)
			if err != nil {
				return report, err
			}
		}

		sr := report.Sources[c.sourceID]
		if dup {
			report.Duplicates++
			sr.Duplicates++
			p.metrics.EventsDupes.WithLabelValues(c.sourceID).Inc()
		} else {
			seen[key] = true
			batch.Set(c.evt)
			report.New++
			sr.New++
			p.metrics.EventsNew.WithLabelValues(c.sourceID).Inc()
		}
		report.Sources[c.sourceID] = sr
	}

	if size := batch.Len(); size > 0 {
		if err := batch.Commit(ctx); err != nil {
			return report, fmt.Errorf("committing batch: %w", err)
		}
		p.metrics.BatchSize.Observe(float64(size))
	}

	report.Duration = p.clock.Since(report.StartedAt)
	p.metrics.RunDuration.Observe(report.Duration.Seconds())

	logger.Info("run finished", logger.Fields{
		"run_id":     report.RunID,
		"new":        report.New,
		"duplicates": report.Duplicates,
		"duration":   report.Duration.String(),
	})
	return report, nil
}
