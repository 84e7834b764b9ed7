package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Record is a tamper-evident entry for one job result.
type Record struct {
	Seq       int    `json:"seq"`
	Timestamp string `json:"timestamp"`
	RunID     string `json:"runId"`
	Workflow  string `json:"workflow"`
	Ref       string `json:"ref"`
	Job       string `json:"job"`
	Status    string `json:"status"`
	LogPath   string `json:"logPath"`
	LogHash   string `json:"logHash"`
	PrevHash  string `json:"prevHash"`
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
	PubKey    string `json:"pubKey"`
}

// canonicalData returns the JSON bytes used to compute the record hash.
// It intentionally excludes Hash, Signature and PubKey.
func (r *Record) canonicalData() ([]byte, error) {
	view := struct {
		Seq       int    `json:"seq"`
		Timestamp string `json:"timestamp"`
		RunID     string `json:"runId"`
		Workflow  string `json:"workflow"`
		Ref       string `json:"ref"`
		Job       string `json:"job"`
		Status    string `json:"status"`
		LogPath   string `json:"logPath"`
		LogHash   string `json:"logHash"`
		PrevHash  string `json:"prevHash"`
	}{
		Seq:       r.Seq,
		Timestamp: r.Timestamp,
		RunID:     r.RunID,
		Workflow:  r.Workflow,
		Ref:       r.Ref,
		Job:       r.Job,
		Status:    r.Status,
		LogPath:   r.LogPath,
		LogHash:   r.LogHash,
		PrevHash:  r.PrevHash,
	}
	return json.Marshal(view)
}

// ComputeHash calculates SHA256 over canonicalData.
func (r *Record) ComputeHash() (string, error) {
	data, err := r.canonicalData()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func newRecord(seq int, e Entry, prevHash string) (*Record, error) {
	rec := &Record{
		Seq:       seq,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RunID:     e.RunID,
		Workflow:  e.Workflow,
		Ref:       e.Ref,
		Job:       e.Job,
		Status:    e.Status,
		LogPath:   e.LogPath,
		LogHash:   e.LogHash,
		PrevHash:  prevHash,
	}
	h, err := rec.ComputeHash()
	if err != nil {
		return nil, fmt.Errorf("compute record hash: %w", err)
	}
	rec.Hash = h
	return rec, nil
}
