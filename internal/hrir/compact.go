package hrir

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/echosight/echosight-go/internal/dsp"
	"github.com/echosight/echosight-go/internal/errors"
)

// Compact binary layout, little-endian:
//
//	magic[8] = "HRIRBIN1"
//	version  i32 = 1
//	rate     i32
//	taps     i32
//	count    i32
//	count entries of { azimuth f32, elevation f32, left[taps] i16, right[taps] i16 }
const (
	compactMagic      = "HRIRBIN1"
	compactVersion    = 1
	compactHeaderSize = 24
)

// tap samples are stored as signed int16 scaled by 1/32768
const tapScale = 32768.0

type compactHeader struct {
	Version      int32
	SampleRateHz int32
	TapCount     int32
	EntryCount   int32
}

// LoadCompact reads a compact HRIR binary file. Any validation failure
// yields a nil database plus an error whose message is kept by callers as
// the load diagnostic; the engine then falls back to the stereo pan law.
func LoadCompact(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("hrir").
			Category(errors.CategoryFileIO).
			Context("operation", "load_compact").
			Context("path", path).
			Build()
	}

	if len(data) < compactHeaderSize {
		return nil, errors.Newf("compact HRIR file too short: %d bytes", len(data)).
			Component("hrir").
			Category(errors.CategoryFileParsing).
			FileContext(path, int64(len(data))).
			Build()
	}

	if string(data[:8]) != compactMagic {
		return nil, errors.Newf("bad compact HRIR magic %q", data[:8]).
			Component("hrir").
			Category(errors.CategoryFileParsing).
			FileContext(path, int64(len(data))).
			Build()
	}

	var hdr compactHeader
	hdr.Version = int32(binary.LittleEndian.Uint32(data[8:]))
	hdr.SampleRateHz = int32(binary.LittleEndian.Uint32(data[12:]))
	hdr.TapCount = int32(binary.LittleEndian.Uint32(data[16:]))
	hdr.EntryCount = int32(binary.LittleEndian.Uint32(data[20:]))

	if hdr.Version != compactVersion {
		return nil, errors.Newf("unsupported compact HRIR version %d", hdr.Version).
			Component("hrir").
			Category(errors.CategoryFileParsing).
			FileContext(path, int64(len(data))).
			Build()
	}
	if hdr.SampleRateHz <= 0 || hdr.TapCount <= 0 || hdr.EntryCount <= 0 {
		return nil, errors.Newf("non-positive compact HRIR header fields: rate=%d taps=%d entries=%d",
			hdr.SampleRateHz, hdr.TapCount, hdr.EntryCount).
			Component("hrir").
			Category(errors.CategoryFileParsing).
			FileContext(path, int64(len(data))).
			Build()
	}

	entrySize := 8 + int(hdr.TapCount)*2*2
	need := compactHeaderSize + int(hdr.EntryCount)*entrySize
	if len(data) < need {
		return nil, errors.Newf("truncated compact HRIR file: have %d bytes, need %d", len(data), need).
			Component("hrir").
			Category(errors.CategoryFileParsing).
			FileContext(path, int64(len(data))).
			Build()
	}

	db := &Database{
		SampleRateHz: int(hdr.SampleRateHz),
		TapCount:     int(hdr.TapCount),
		Entries:      make([]Entry, 0, hdr.EntryCount),
	}

	off := compactHeaderSize
	for range hdr.EntryCount {
		az := math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		el := math.Float32frombits(binary.LittleEndian.Uint32(data[off+4:]))
		off += 8

		left := make([]float64, hdr.TapCount)
		right := make([]float64, hdr.TapCount)
		for i := range left {
			left[i] = float64(int16(binary.LittleEndian.Uint16(data[off+i*2:]))) / tapScale
		}
		off += int(hdr.TapCount) * 2
		for i := range right {
			right[i] = float64(int16(binary.LittleEndian.Uint16(data[off+i*2:]))) / tapScale
		}
		off += int(hdr.TapCount) * 2

		db.Entries = append(db.Entries, Entry{
			AzimuthDeg:   float64(az),
			ElevationDeg: float64(el),
			Left:         left,
			Right:        right,
		})
	}

	return db, nil
}

// WriteCompact encodes a database into the compact binary format. Taps are
// clamped to [-1,1] and quantized to int16.
func WriteCompact(path string, db *Database) error {
	if db == nil || len(db.Entries) == 0 {
		return errors.Newf("refusing to write empty HRIR database").
			Component("hrir").
			Category(errors.CategoryValidation).
			Context("path", path).
			Build()
	}

	entrySize := 8 + db.TapCount*2*2
	buf := make([]byte, compactHeaderSize+len(db.Entries)*entrySize)
	copy(buf, compactMagic)
	binary.LittleEndian.PutUint32(buf[8:], uint32(compactVersion))
	binary.LittleEndian.PutUint32(buf[12:], uint32(db.SampleRateHz))
	binary.LittleEndian.PutUint32(buf[16:], uint32(db.TapCount))
	binary.LittleEndian.PutUint32(buf[20:], uint32(len(db.Entries)))

	off := compactHeaderSize
	for i := range db.Entries {
		e := &db.Entries[i]
		if len(e.Left) != db.TapCount || len(e.Right) != db.TapCount {
			return errors.Newf("entry %d tap count mismatch: left=%d right=%d want %d",
				i, len(e.Left), len(e.Right), db.TapCount).
				Component("hrir").
				Category(errors.CategoryValidation).
				Context("path", path).
				Build()
		}

		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(float32(e.AzimuthDeg)))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(float32(e.ElevationDeg)))
		off += 8
		for _, s := range e.Left {
			binary.LittleEndian.PutUint16(buf[off:], uint16(quantizeTap(s)))
			off += 2
		}
		for _, s := range e.Right {
			binary.LittleEndian.PutUint16(buf[off:], uint16(quantizeTap(s)))
			off += 2
		}
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return errors.New(err).
			Component("hrir").
			Category(errors.CategoryFileIO).
			Context("operation", "write_compact").
			Context("path", path).
			Build()
	}
	return nil
}

func quantizeTap(s float64) int16 {
	return int16(math.Round(dsp.Clamp(s, -1, 1) * 32767.0))
}
