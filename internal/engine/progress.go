package engine

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhaseCheckingCredits Phase = "checking_credits"
	PhaseChunking        Phase = "chunking"
	PhaseMapping         Phase = "mapping"
	PhaseReducing        Phase = "reducing"
	PhaseSaving          Phase = "saving"
	PhaseDone            Phase = "done"
	PhaseFailed          Phase = "failed"
)

// Snapshot is the latest observable state of a run. It is a status
// projection, not an event log: observers may miss intermediate updates but
// always see the latest.
type Snapshot struct {
	Phase   Phase  `json:"phase"`
	Percent int    `json:"percent"`
	Partial string `json:"partial"`
	Reason  string `json:"reason,omitempty"`
	Mtime   int64  `json:"mtime"`
}

// Publisher keeps the last snapshot per (document, mode) in an expiring
// cache. Publish is fire-and-forget and never blocks the orchestrator on an
// observer.
type Publisher struct {
	cache *expirable.LRU[string, Snapshot]
}

func NewPublisher() *Publisher {
	return &Publisher{cache: expirable.NewLRU[string, Snapshot](4096, nil, 2*time.Hour)}
}

func (p *Publisher) Publish(docID string, mode Mode, snap Snapshot) {
	snap.Mtime = time.Now().UnixMilli()
	p.cache.Add(progressKey(docID, mode), snap)
}

func (p *Publisher) Get(docID string, mode Mode) (Snapshot, bool) {
	return p.cache.Get(progressKey(docID, mode))
}

func progressKey(docID string, mode Mode) string {
	return docID + "|" + string(mode)
}
