// Package archive serializes computed indicator snapshots for hand-off to
// downstream report tooling. Snapshots are written as JSON lines,
// zstd-compressed above a size threshold.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"medistock/internal/domain/stock"
)

// CompressionAlgo specifies the compression applied to an archive.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// defaultCompressThreshold is the serialized size above which snapshots
// are compressed. Small depot snapshots are not worth the encoder pass.
const defaultCompressThreshold = 10 * 1024 // 10KB

// Archiver encodes depot snapshots.
type Archiver struct {
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// New creates a snapshot archiver.
func New() (*Archiver, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Archiver{
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// Record is one archived snapshot with its encoding metadata.
type Record struct {
	CompressionAlgo CompressionAlgo `json:"compressionAlgo"`
	Payload         []byte          `json:"payload"`
}

// Encode serializes a snapshot, compressing it when large enough.
func (a *Archiver) Encode(snapshot *stock.DepotSnapshot) (Record, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return Record{}, fmt.Errorf("marshal snapshot: %w", err)
	}

	record := Record{CompressionAlgo: CompressionNone, Payload: payload}
	if len(payload) > a.compressThreshold {
		record.CompressionAlgo = CompressionZstd
		record.Payload = a.encoder.EncodeAll(payload, nil)
	}

	return record, nil
}

// Decode restores a snapshot from an archived record.
func (a *Archiver) Decode(record Record) (*stock.DepotSnapshot, error) {
	payload := record.Payload
	if record.CompressionAlgo == CompressionZstd {
		decompressed, err := a.decoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
		payload = decompressed
	}

	var snapshot stock.DepotSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}

// WriteTo writes a snapshot to w as a single JSON line wrapping the
// encoded record.
func (a *Archiver) WriteTo(w io.Writer, snapshot *stock.DepotSnapshot) error {
	record, err := a.Encode(snapshot)
	if err != nil {
		return err
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if _, err := w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// ReadFrom reads one snapshot line from r.
func (a *Archiver) ReadFrom(r io.Reader) (*stock.DepotSnapshot, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(bytes.TrimSpace(raw), &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}

	return a.Decode(record)
}
