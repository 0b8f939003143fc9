package emailstore

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/emaildb/emaildb/block"
	"github.com/emaildb/emaildb/blockfile"
	"github.com/emaildb/emaildb/blockio"
	"github.com/emaildb/emaildb/compress"
	"github.com/emaildb/emaildb/errs"
	"github.com/emaildb/emaildb/internal/options"
)

// EmailStore packs emails into EmailBatch blocks via a BatchBuilder,
// coordinates deduplication against three externally-owned hash indexes,
// and resolves compound ids once their enclosing batch is flushed. It owns
// no file I/O of its own; all of it goes through the BlockFile it wraps.
type EmailStore struct {
	bf  *blockfile.BlockFile
	cfg *Config

	envelopeIdx ExternalIndex
	contentIdx  ExternalIndex
	messageIdx  ExternalIndex

	mu              sync.Mutex
	builder         *BatchBuilder
	pendingMessages []Message
	pendingEnvelope map[[32]byte]CompoundID

	// pendingFingerprints counts, per xxHash64 content fingerprint, how
	// many entries in the current (unflushed) batch share it. A count
	// above one flags bodies worth a closer look (identical attachments
	// resent under different envelopes); it never gates dedup itself.
	pendingFingerprints map[uint64]int

	nextBlockID int64

	flushCount int
	emailCount int
	dedupHits  int
}

// NewEmailStore wraps bf with a fresh BatchBuilder sized to bf's current
// AdaptiveSizer target, storing dedup state in the three given indexes. By
// default batches are written uncompressed; pass WithBatchCompression to
// change that.
func NewEmailStore(bf *blockfile.BlockFile, envelopeIdx, contentIdx, messageIdx ExternalIndex, opts ...Option) (*EmailStore, error) {
	cfg := newDefaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &EmailStore{
		bf:              bf,
		cfg:             cfg,
		envelopeIdx:     envelopeIdx,
		contentIdx:      contentIdx,
		messageIdx:      messageIdx,
		builder:             NewBatchBuilder(bf.TargetBatchSize()),
		pendingEnvelope:     make(map[[32]byte]CompoundID),
		pendingFingerprints: make(map[uint64]int),
		nextBlockID:         nextBlockIDAfter(bf),
	}, nil
}

// nextBlockIDAfter scans bf's current live blocks for the highest BlockID
// and returns one past it, so a reopened store never reassigns a BlockID
// still observable in an external index.
func nextBlockIDAfter(bf *blockfile.BlockFile) int64 {
	max := blockfile.HeaderBlockID
	for _, loc := range bf.Index().Live() {
		if loc.BlockID > max {
			max = loc.BlockID
		}
	}

	return max + 1
}

// Store deduplicates message by its envelope hash (first against the
// external index, which is authoritative for already-flushed batches, then
// against entries still pending in the current builder) and, if it is
// new, appends it to the builder. It returns the resulting CompoundId,
// which is Pending() until the enclosing batch is flushed.
func (es *EmailStore) Store(msg Message, data []byte) (CompoundID, error) {
	es.mu.Lock()
	defer es.mu.Unlock()

	envHash := EnvelopeHash(msg, data)
	envKey := hex.EncodeToString(envHash[:])

	if existing, ok, err := es.envelopeIdx.Get(envKey); err != nil {
		return CompoundID{}, fmt.Errorf("%w: envelope index lookup: %v", errs.ErrIO, err)
	} else if ok {
		cid, err := ParseCompoundID(existing)
		if err != nil {
			return CompoundID{}, err
		}
		es.dedupHits++

		return cid, nil
	}

	if cid, ok := es.pendingEnvelope[envHash]; ok {
		es.dedupHits++

		return cid, nil
	}

	target := es.bf.TargetBatchSize()
	if target != es.builder.Target() && es.builder.Len() > 0 {
		if _, err := es.flushLocked(); err != nil {
			return CompoundID{}, err
		}
	}
	es.builder.SetTarget(target)

	entry := es.builder.Add(msg, data)
	es.pendingMessages = append(es.pendingMessages, msg)
	es.pendingFingerprints[entry.ContentFingerprint]++

	cid := newPendingID(entry.LocalID)
	es.pendingEnvelope[envHash] = cid

	if es.builder.ShouldFlush() {
		if _, err := es.flushLocked(); err != nil {
			return CompoundID{}, err
		}
	}

	return cid, nil
}

// Flush serializes and writes the current builder's contents even if
// ShouldFlush() would still report false. Calling it on an empty builder
// is a no-op.
func (es *EmailStore) Flush() error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.builder.Len() == 0 {
		return nil
	}

	_, err := es.flushLocked()

	return err
}

// flushLocked must be called with es.mu held. It returns the BlockID the
// batch was written under.
func (es *EmailStore) flushLocked() (int64, error) {
	entries := es.builder.Entries()
	messages := es.pendingMessages
	rawPayload := es.builder.Serialize()

	payload, err := es.wrapBatchPayload(rawPayload)
	if err != nil {
		return 0, err
	}

	blockID := es.nextBlockID
	es.nextBlockID++

	blk := block.Block{
		Version:   block.CurrentVersion,
		Type:      block.TypeEmailBatch,
		Flags:     block.NewFlags(es.cfg.compression, block.EncryptionNone),
		Encoding:  block.EncodingRawBytes,
		Timestamp: time.Now().Unix(),
		BlockID:   blockID,
		Payload:   payload,
	}

	if _, err := es.bf.Append(blk); err != nil {
		return 0, err
	}

	for _, cid := range es.pendingEnvelope {
		cid.resolve(blockID)
	}

	for i, e := range entries {
		cid := NewCompoundID(blockID, e.LocalID).String()

		envKey := hex.EncodeToString(e.EnvelopeHash[:])
		if err := es.envelopeIdx.Put(envKey, cid); err != nil {
			return 0, fmt.Errorf("%w: updating envelope index: %v", errs.ErrIO, err)
		}

		contentKey := hex.EncodeToString(e.ContentHash[:])
		if err := es.contentIdx.Put(contentKey, cid); err != nil {
			return 0, fmt.Errorf("%w: updating content index: %v", errs.ErrIO, err)
		}

		if i < len(messages) && messages[i].MessageID != "" {
			if err := es.messageIdx.Put(messages[i].MessageID, cid); err != nil {
				return 0, fmt.Errorf("%w: updating message-id index: %v", errs.ErrIO, err)
			}
		}
	}

	es.emailCount += len(entries)
	es.flushCount++

	es.builder.Clear()
	es.pendingMessages = nil
	es.pendingEnvelope = make(map[[32]byte]CompoundID)
	es.pendingFingerprints = make(map[uint64]int)

	return blockID, nil
}

// wrapBatchPayload applies es.cfg.compression to raw, prefixing an
// ExtendedHeader carrying the uncompressed size whenever compression is
// in effect. block.CompressionNone skips both steps entirely so an
// uncompressed batch costs nothing beyond the TOC itself.
func (es *EmailStore) wrapBatchPayload(raw []byte) ([]byte, error) {
	if es.cfg.compression == block.CompressionNone {
		return raw, nil
	}

	codec, err := compress.GetCodec(es.cfg.compression)
	if err != nil {
		return nil, err
	}

	compressed, err := codec.Compress(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: compressing batch payload: %v", errs.ErrIO, err)
	}

	ext := blockio.ExtendedHeader{
		UncompressedSize:    uint64(len(raw)),
		HasUncompressedSize: true,
	}

	out := make([]byte, 0, len(ext.Bytes())+len(compressed))
	out = append(out, ext.Bytes()...)
	out = append(out, compressed...)

	return out, nil
}

// unwrapBatchPayload reverses wrapBatchPayload given the Flags recorded on
// the block that carried payload.
func unwrapBatchPayload(payload []byte, flags block.Flags) ([]byte, error) {
	if !flags.Compressed() {
		return payload, nil
	}

	ext, n, err := blockio.DecodeExtendedHeader(payload)
	if err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(flags.CompressionAlgo())
	if err != nil {
		return nil, err
	}

	raw, err := codec.Decompress(payload[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing batch payload: %v", errs.ErrIO, err)
	}

	if ext.HasUncompressedSize && uint64(len(raw)) != ext.UncompressedSize {
		return nil, fmt.Errorf("%w: decompressed batch size %d != declared %d", errs.ErrCorruptBlock, len(raw), ext.UncompressedSize)
	}

	return raw, nil
}

// Get resolves id to the raw email bytes it names. A still-pending id
// (its enclosing batch hasn't been flushed) returns
// errs.ErrPendingCompoundIDUnresolved; an unknown BlockId or a LocalId
// past the batch's TOC count returns errs.ErrEmailNotFound.
func (es *EmailStore) Get(id CompoundID) ([]byte, error) {
	if id.Pending() {
		return nil, fmt.Errorf("%w: %s", errs.ErrPendingCompoundIDUnresolved, id)
	}

	loc, err := es.bf.Index().Lookup(id.BlockID())
	if err != nil {
		return nil, fmt.Errorf("%w: block %d: %v", errs.ErrEmailNotFound, id.BlockID(), err)
	}

	blk, err := es.bf.Read(loc)
	if err != nil {
		return nil, err
	}

	batchPayload, err := unwrapBatchPayload(blk.Payload, blk.Flags)
	if err != nil {
		return nil, err
	}

	entries, err := parseTOC(batchPayload)
	if err != nil {
		return nil, err
	}

	data, err := sliceEntry(batchPayload, entries, id.LocalID())
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	copy(out, data)

	return out, nil
}

// Stats summarizes the store's activity and the file it backs.
type Stats struct {
	LiveBlockCount  int
	SupersededBytes int64
	FlushCount      int
	EmailCount      int
	DedupHits       int
	PendingEmails   int

	// PendingRepeatedContent counts entries in the current, unflushed
	// batch whose body's xxHash64 fingerprint is shared with at least one
	// other entry in the same batch (every entry of such a group counts,
	// the first one included) — a cheap signal that the same attachment
	// or boilerplate body is being resent under distinct envelopes.
	PendingRepeatedContent int
}

// Stats returns a snapshot of the store's counters.
func (es *EmailStore) Stats() Stats {
	es.mu.Lock()
	defer es.mu.Unlock()

	var repeated int
	for _, count := range es.pendingFingerprints {
		if count > 1 {
			repeated += count
		}
	}

	return Stats{
		LiveBlockCount:         es.bf.Index().LiveBlockCount(),
		SupersededBytes:        es.bf.Index().SupersededBytes(),
		FlushCount:             es.flushCount,
		EmailCount:             es.emailCount,
		DedupHits:              es.dedupHits,
		PendingEmails:          es.builder.Len(),
		PendingRepeatedContent: repeated,
	}
}
