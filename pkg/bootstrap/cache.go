package bootstrap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"os"

	"github.com/golang/snappy"
)

// Draw caches let interval recomputation (different confidence level, later
// inspection) skip the expensive re-estimation step. The format is a single
// snappy-compressed block with a CRC trailer:
//
//	[magic:4][version:1][compressedLen:4][compressed payload][checksum:4]
//
// The payload packs, big-endian: nodes, requested, converged, failed, level,
// the per-pair sample weights, then per pair a count-prefixed run of draws.
var cacheMagic = [4]byte{'N', 'P', 'B', 'S'}

const cacheVersion = 1

// ErrCorruptCache is returned when a draw cache fails its checksum or
// structural checks.
var ErrCorruptCache = errors.New("bootstrap draw cache is corrupt")

// SaveDraws writes the run's per-edge draws and metadata to path.
func (r *Result) SaveDraws(path string) error {
	var payload bytes.Buffer

	write := func(v any) {
		binary.Write(&payload, binary.BigEndian, v)
	}
	write(uint32(r.nodes))
	write(uint32(r.Requested))
	write(uint32(r.Converged))
	write(uint32(r.Failed))
	write(math.Float64bits(r.Level))

	for _, iv := range r.Intervals {
		write(math.Float64bits(iv.Sample))
	}
	for _, values := range r.draws {
		write(uint32(len(values)))
		for _, v := range values {
			write(math.Float64bits(v))
		}
	}

	compressed := snappy.Encode(nil, payload.Bytes())

	var out bytes.Buffer
	out.Write(cacheMagic[:])
	out.WriteByte(cacheVersion)
	binary.Write(&out, binary.BigEndian, uint32(len(compressed)))
	out.Write(compressed)
	binary.Write(&out, binary.BigEndian, crc32.ChecksumIEEE(compressed))

	if err := os.WriteFile(path, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing draw cache: %w", err)
	}
	return nil
}

// LoadDraws reads a cache written by SaveDraws and rebuilds the Result,
// including intervals at the stored confidence level.
func LoadDraws(path string) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading draw cache: %w", err)
	}
	if len(raw) < 13 || !bytes.Equal(raw[:4], cacheMagic[:]) {
		return nil, fmt.Errorf("%w: bad header", ErrCorruptCache)
	}
	if raw[4] != cacheVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptCache, raw[4])
	}

	compressedLen := binary.BigEndian.Uint32(raw[5:9])
	if len(raw) != int(9+compressedLen+4) {
		return nil, fmt.Errorf("%w: truncated", ErrCorruptCache)
	}
	compressed := raw[9 : 9+compressedLen]
	checksum := binary.BigEndian.Uint32(raw[9+compressedLen:])
	if crc32.ChecksumIEEE(compressed) != checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptCache)
	}

	payload, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCache, err)
	}

	buf := bytes.NewReader(payload)
	readU32 := func() (uint32, error) {
		var v uint32
		err := binary.Read(buf, binary.BigEndian, &v)
		return v, err
	}
	readF64 := func() (float64, error) {
		var bits uint64
		err := binary.Read(buf, binary.BigEndian, &bits)
		return math.Float64frombits(bits), err
	}

	nodes, err := readU32()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCache, err)
	}
	requested, _ := readU32()
	converged, _ := readU32()
	failed, _ := readU32()
	level, err := readF64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCache, err)
	}

	pairs := pairCount(int(nodes))
	samples := make([]float64, pairs)
	for i := range samples {
		if samples[i], err = readF64(); err != nil {
			return nil, fmt.Errorf("%w: short sample block", ErrCorruptCache)
		}
	}

	result := &Result{
		Requested: int(requested),
		Converged: int(converged),
		Failed:    int(failed),
		Level:     level,
		nodes:     int(nodes),
		draws:     make([][]float64, pairs),
	}
	for pair := 0; pair < pairs; pair++ {
		count, err := readU32()
		if err != nil {
			return nil, fmt.Errorf("%w: short draw block", ErrCorruptCache)
		}
		values := make([]float64, count)
		for k := range values {
			if values[k], err = readF64(); err != nil {
				return nil, fmt.Errorf("%w: short draw block", ErrCorruptCache)
			}
		}
		result.draws[pair] = values
	}

	result.Intervals = intervalsFromDraws(samples, result.draws, int(nodes), level)
	return result, nil
}

// Recompute returns intervals at a different confidence level from the
// retained draws, without re-estimating anything.
func (r *Result) Recompute(level float64) ([]EdgeInterval, error) {
	if level <= 0 || level >= 1 {
		return nil, fmt.Errorf("confidence level must be in (0,1), got %v", level)
	}
	samples := make([]float64, len(r.Intervals))
	for i, iv := range r.Intervals {
		samples[i] = iv.Sample
	}
	return intervalsFromDraws(samples, r.draws, r.nodes, level), nil
}
