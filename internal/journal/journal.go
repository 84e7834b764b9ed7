// Package journal keeps an append-only, hash-chained and ed25519-signed
// record of job results, persisted as JSON lines. Any edit to a persisted
// record breaks the chain and is caught by Verify.
package journal

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Entry is what callers append; sequencing, hashing and signing happen here.
type Entry struct {
	RunID    string
	Workflow string
	Ref      string
	Job      string
	Status   string
	LogPath  string
	LogHash  string
}

type Journal struct {
	mu      sync.Mutex
	records []*Record
	path    string
	priv    ed25519.PrivateKey
	pub     ed25519.PublicKey
}

// Open loads an existing journal file or starts an empty one. The keypair
// signs every appended record; Append fails without it.
func Open(path string, priv ed25519.PrivateKey, pub ed25519.PublicKey) (*Journal, error) {
	j := &Journal{path: path, priv: priv, pub: pub}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode journal entry: %w", err)
		}
		j.records = append(j.records, &rec)
	}
	return j, nil
}

// Append seals an entry into the chain: assigns the next sequence number,
// links it to the previous hash, signs it and persists it.
func (j *Journal) Append(e Entry) (*Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.priv) == 0 {
		return nil, fmt.Errorf("journal has no signing key")
	}

	prev := ""
	if n := len(j.records); n > 0 {
		prev = j.records[n-1].Hash
	}
	rec, err := newRecord(len(j.records), e, prev)
	if err != nil {
		return nil, err
	}
	sig := ed25519.Sign(j.priv, []byte(rec.Hash))
	rec.Signature = hex.EncodeToString(sig)
	rec.PubKey = hex.EncodeToString(j.pub)

	f, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return nil, fmt.Errorf("write journal file: %w", err)
	}

	j.records = append(j.records, rec)
	return rec, nil
}

// Verify re-computes every record hash, chain link and signature to detect
// tampering.
func (j *Journal) Verify() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for i, rec := range j.records {
		h, err := rec.ComputeHash()
		if err != nil {
			return fmt.Errorf("compute hash for seq %d: %w", rec.Seq, err)
		}
		if h != rec.Hash {
			return fmt.Errorf("hash mismatch at seq %d", rec.Seq)
		}
		if i > 0 && rec.PrevHash != j.records[i-1].Hash {
			return fmt.Errorf("prev hash mismatch at seq %d", rec.Seq)
		}
		if rec.Seq != i {
			return fmt.Errorf("seq mismatch: expected %d got %d", i, rec.Seq)
		}

		pub, err := hex.DecodeString(rec.PubKey)
		if err != nil || len(pub) != ed25519.PublicKeySize {
			return fmt.Errorf("bad public key at seq %d", rec.Seq)
		}
		sig, err := hex.DecodeString(rec.Signature)
		if err != nil {
			return fmt.Errorf("bad signature encoding at seq %d", rec.Seq)
		}
		if !ed25519.Verify(ed25519.PublicKey(pub), []byte(rec.Hash), sig) {
			return fmt.Errorf("signature verification failed at seq %d", rec.Seq)
		}
	}
	return nil
}

// Records exposes the in-memory chain (callers must not mutate outside
// tests).
func (j *Journal) Records() []*Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.records
}

// Len returns the number of records in the chain.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.records)
}
