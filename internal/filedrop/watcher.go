package filedrop

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auditdomain "github.com/floorcraft/floorplan-backend/internal/legacyaudit/domain"
	"github.com/floorcraft/floorplan-backend/internal/pipeline"
	"github.com/floorcraft/floorplan-backend/internal/queue"
)

// Publisher is satisfied by *pipeline.Relay.
type Publisher interface {
	Publish(ctx context.Context, kind queue.Kind, origin pipeline.Origin, m pipeline.Mutation) (queue.Envelope, error)
}

// AuditRecorder is satisfied by the legacy audit service.
type AuditRecorder interface {
	Record(ctx context.Context, batch auditdomain.Batch) (*auditdomain.Record, error)
}

type Options struct {
	IncomingPrefix  string
	ProcessedPrefix string
	FailedPrefix    string
	Importer        string
}

func (o *Options) defaults() {
	if o.IncomingPrefix == "" {
		o.IncomingPrefix = "incoming/"
	}
	if o.ProcessedPrefix == "" {
		o.ProcessedPrefix = "processed/"
	}
	if o.FailedPrefix == "" {
		o.FailedPrefix = "failed/"
	}
	if o.Importer == "" {
		o.Importer = "filedrop"
	}
}

// ScanResult summarizes one pass over the incoming prefix.
type ScanResult struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// ErrRelayUnavailable aborts an import when a record could not be handed to
// the broker. The file stays under the incoming prefix for the next scan.
var ErrRelayUnavailable = errors.New("relay unavailable")

// eventNamespace seeds the name-based ids of file drop events.
var eventNamespace = uuid.MustParse("8f1c2a6e-3b7d-5e40-9a21-6c4d0f7b9e13")

type Watcher struct {
	store  ObjectStore
	claims Claimer
	relay  Publisher
	audit  AuditRecorder
	opts   Options
	log    *zap.Logger
}

func NewWatcher(store ObjectStore, claims Claimer, relay Publisher, audit AuditRecorder, opts Options, log *zap.Logger) *Watcher {
	opts.defaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{store: store, claims: claims, relay: relay, audit: audit, opts: opts, log: log}
}

// Scan imports every supported file currently under the incoming prefix.
// Files claimed by another watcher are skipped. Scan stops at the first
// file whose records cannot reach the broker and returns ErrRelayUnavailable.
func (w *Watcher) Scan(ctx context.Context) (ScanResult, error) {
	var res ScanResult

	objs, err := w.store.List(ctx, w.opts.IncomingPrefix)
	if err != nil {
		return res, err
	}

	for _, obj := range objs {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if !Supported(obj.Key) {
			w.log.Debug("unsupported file skipped", zap.String("key", obj.Key))
			res.Skipped++
			continue
		}

		ok, err := w.claims.Claim(ctx, obj.Key)
		if err != nil {
			return res, err
		}
		if !ok {
			res.Skipped++
			continue
		}

		status, err := w.importFile(ctx, obj.Key)
		if errors.Is(err, ErrObjectNotFound) {
			// moved by another watcher between List and Claim
			res.Skipped++
			w.release(ctx, obj.Key)
			continue
		}
		if errors.Is(err, ErrRelayUnavailable) {
			w.log.Warn("file import deferred", zap.String("key", obj.Key), zap.Error(err))
			w.release(ctx, obj.Key)
			return res, err
		}
		if err != nil {
			// claim is left to expire so no other watcher re-imports a half-moved file
			w.log.Error("file import aborted", zap.String("key", obj.Key), zap.Error(err))
			res.Failed++
			continue
		}
		if status == auditdomain.StatusFailed {
			res.Failed++
		} else {
			res.Imported++
		}

		w.release(ctx, obj.Key)
	}
	return res, nil
}

func (w *Watcher) release(ctx context.Context, key string) {
	if err := w.claims.Release(ctx, key); err != nil {
		w.log.Warn("claim release failed", zap.String("key", key), zap.Error(err))
	}
}

// importFile publishes the file's records, moves it and writes the audit row.
// A non-nil error means the file is still under incoming: either the broker
// refused a record or the move failed.
func (w *Watcher) importFile(ctx context.Context, key string) (string, error) {
	log := w.log.With(zap.String("key", key))
	batch := auditdomain.Batch{
		SourceFileName: key,
		ImportedBy:     w.opts.Importer,
	}

	doc, digest, err := w.read(ctx, key)
	if errors.Is(err, ErrObjectNotFound) {
		return "", err
	}
	if err != nil {
		batch.LegacySystemID = LegacySystemID(nil, key, w.opts.IncomingPrefix)
		batch.Err = err
	} else {
		batch.LegacySystemID = LegacySystemID(doc, key, w.opts.IncomingPrefix)
		batch.DataType = doc.DataType
		batch.RecordCount = len(doc.Records)
		batch.FailedCount, batch.Err = w.publishAll(ctx, key, digest, doc.Records)
		if errors.Is(batch.Err, ErrRelayUnavailable) {
			return "", batch.Err
		}
	}

	status := batch.Status()
	dest := rebase(key, w.opts.IncomingPrefix, w.opts.ProcessedPrefix)
	if status == auditdomain.StatusFailed {
		dest = rebase(key, w.opts.IncomingPrefix, w.opts.FailedPrefix)
	}
	if err := w.store.Move(ctx, key, dest); err != nil {
		return "", err
	}

	if _, err := w.audit.Record(ctx, batch); err != nil {
		log.Error("audit record failed", zap.Error(err))
	}

	log.Info("file imported",
		zap.String("status", status),
		zap.String("moved_to", dest),
		zap.Int("records", batch.RecordCount),
		zap.Int("failed", batch.FailedCount),
	)
	return status, nil
}

// read parses the object and returns the hex sha256 of its content.
func (w *Watcher) read(ctx context.Context, key string) (*Document, string, error) {
	rc, err := w.store.Open(ctx, key)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()

	h := sha256.New()
	doc, err := Parse(key, io.TeeReader(rc, h))
	if err != nil {
		return nil, "", err
	}
	return doc, hex.EncodeToString(h.Sum(nil)), nil
}

// recordEventID names record i of a file by key and content, so importing
// the same file again yields the same event ids.
func recordEventID(key, digest string, i int) string {
	return uuid.NewSHA1(eventNamespace, []byte(key+"\x00"+digest+"\x00"+strconv.Itoa(i))).String()
}

// publishAll returns the number of records rejected by validation. A relay
// failure stops the batch and is returned wrapped in ErrRelayUnavailable.
func (w *Watcher) publishAll(ctx context.Context, key, digest string, recs []Record) (int, error) {
	var (
		failed   int
		firstErr error
	)
	for i := range recs {
		kind, m, err := validateRecord(recs[i])
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = fmt.Errorf("record %d: %w", i+1, err)
			}
			continue
		}
		origin := pipeline.Origin{
			Source:     queue.SourceFileDrop,
			SourceFile: key,
			EventID:    recordEventID(key, digest, i),
		}
		if _, err := w.relay.Publish(ctx, kind, origin, m); err != nil {
			return failed, fmt.Errorf("%w: record %d: %v", ErrRelayUnavailable, i+1, err)
		}
	}
	if failed == 0 {
		return 0, nil
	}
	return failed, fmt.Errorf("%d of %d records rejected: %w", failed, len(recs), firstErr)
}

func validateRecord(rec Record) (queue.Kind, pipeline.Mutation, error) {
	kind, err := rec.Kind()
	if err != nil {
		return "", pipeline.Mutation{}, err
	}
	m := rec.Mutation
	if err := m.Validate(kind); err != nil {
		return "", pipeline.Mutation{}, err
	}
	return kind, m, nil
}
