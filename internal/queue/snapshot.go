package queue

import (
	"encoding/json"
	"slices"
)

// Job is one tracked download unit.
type Job struct {
	ID          string
	Title       string
	Category    Category
	Progress    float64
	HasProgress bool
}

// Snapshot is the queue state at one point in time. It is immutable: every
// accessor hands out copies, and a new fetch produces a new Snapshot.
type Snapshot struct {
	buckets [len(categoryOrder)][]Job
}

// NewSnapshot builds a snapshot from per-category job lists. Categories are
// processed in display order and the first occurrence of an id wins; later
// duplicates are dropped. Each job's Category is set from its bucket.
func NewSnapshot(buckets map[Category][]Job) Snapshot {
	var b builder
	for _, c := range categoryOrder {
		for _, job := range buckets[c] {
			b.add(c, job)
		}
	}
	return b.snapshot()
}

// Jobs returns the jobs in category c in server order.
func (s Snapshot) Jobs(c Category) []Job {
	if !c.Valid() {
		return nil
	}
	return slices.Clone(s.buckets[c])
}

// Len returns the number of jobs in category c.
func (s Snapshot) Len(c Category) int {
	if !c.Valid() {
		return 0
	}
	return len(s.buckets[c])
}

// Total returns the number of jobs across all categories.
func (s Snapshot) Total() int {
	n := 0
	for _, bucket := range s.buckets {
		n += len(bucket)
	}
	return n
}

// Empty reports whether every bucket is empty.
func (s Snapshot) Empty() bool {
	return s.Total() == 0
}

// Find looks a job up by id across all categories.
func (s Snapshot) Find(id string) (Job, bool) {
	for _, bucket := range s.buckets {
		for _, job := range bucket {
			if job.ID == id {
				return job, true
			}
		}
	}
	return Job{}, false
}

// Equal reports whether two snapshots hold the same jobs in the same order.
func (s Snapshot) Equal(other Snapshot) bool {
	for i := range s.buckets {
		if !slices.Equal(s.buckets[i], other.buckets[i]) {
			return false
		}
	}
	return true
}

type jobJSON struct {
	ID       string   `json:"id"`
	Title    string   `json:"title,omitempty"`
	Progress *float64 `json:"progress,omitempty"`
}

// MarshalJSON encodes the snapshot with every bucket present, in display
// order, as arrays of job records. Decode accepts this shape.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	encode := func(c Category) []jobJSON {
		jobs := s.buckets[c]
		out := make([]jobJSON, 0, len(jobs))
		for _, job := range jobs {
			rec := jobJSON{ID: job.ID, Title: job.Title}
			if job.HasProgress {
				p := job.Progress
				rec.Progress = &p
			}
			out = append(out, rec)
		}
		return out
	}
	return json.Marshal(struct {
		Queued      []jobJSON `json:"queued"`
		Downloading []jobJSON `json:"downloading"`
		Completed   []jobJSON `json:"completed"`
		Error       []jobJSON `json:"error"`
	}{
		Queued:      encode(Queued),
		Downloading: encode(Downloading),
		Completed:   encode(Completed),
		Error:       encode(Errored),
	})
}

type builder struct {
	seen    map[string]struct{}
	buckets [len(categoryOrder)][]Job
}

func (b *builder) add(c Category, job Job) {
	if !c.Valid() || job.ID == "" {
		return
	}
	if b.seen == nil {
		b.seen = make(map[string]struct{})
	}
	if _, dup := b.seen[job.ID]; dup {
		return
	}
	b.seen[job.ID] = struct{}{}
	job.Category = c
	b.buckets[c] = append(b.buckets[c], job)
}

func (b *builder) snapshot() Snapshot {
	return Snapshot{buckets: b.buckets}
}
