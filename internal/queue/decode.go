package queue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Decode normalises a status payload into a Snapshot.
//
// The payload maps category keys to buckets. A bucket is either an object
// keyed by job id or an array of job records; null, {} and [] are empty.
// Unknown top-level keys are ignored and missing categories are empty.
// Record fields other than id, title and progress are ignored.
func Decode(data []byte) (Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}

	var b builder
	for _, c := range categoryOrder {
		raw, ok := top[c.Key()]
		if !ok {
			continue
		}
		jobs, err := decodeBucket(raw)
		if err != nil {
			return Snapshot{}, fmt.Errorf("decode %s bucket: %w", c.Key(), err)
		}
		for _, job := range jobs {
			b.add(c, job)
		}
	}
	return b.snapshot(), nil
}

func decodeBucket(raw json.RawMessage) ([]Job, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		jobs := make([]Job, 0, len(records))
		for _, rec := range records {
			if job, ok := decodeRecord("", rec); ok {
				jobs = append(jobs, job)
			}
		}
		return jobs, nil

	case '{':
		// Walk tokens instead of unmarshalling into a map so jobs keep the
		// order the server listed them in.
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		var jobs []Job
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := tok.(string)
			var rec json.RawMessage
			if err := dec.Decode(&rec); err != nil {
				return nil, err
			}
			if job, ok := decodeRecord(key, rec); ok {
				jobs = append(jobs, job)
			}
		}
		return jobs, nil

	default:
		return nil, fmt.Errorf("unexpected bucket value %.20q", trimmed)
	}
}

func decodeRecord(key string, raw json.RawMessage) (Job, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Job{}, false
	}

	job := Job{ID: key}
	if id, ok := scalarString(fields["id"]); ok && id != "" {
		job.ID = id
	}
	if job.ID == "" {
		return Job{}, false
	}

	if v, ok := decodeValue(fields["title"]).(string); ok {
		job.Title = v
	}
	if n, ok := decodeValue(fields["progress"]).(json.Number); ok {
		f, err := n.Float64()
		if errors.Is(err, strconv.ErrRange) && math.IsInf(f, 0) {
			// Overflowing values keep their sign and clamp on display.
			f, err = math.Copysign(math.MaxFloat64, f), nil
		}
		if err == nil {
			job.Progress = f
			job.HasProgress = true
		}
	}
	return job, true
}

// scalarString accepts ids sent either as strings or as numbers.
func scalarString(raw json.RawMessage) (string, bool) {
	switch v := decodeValue(raw).(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

func decodeValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}
