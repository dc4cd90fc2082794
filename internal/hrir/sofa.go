package hrir

import (
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"

	"github.com/echosight/echosight-go/internal/errors"
)

// SOFA files are netCDF4/HDF5 containers. The loader only touches the three
// datasets the spatializer needs:
//
//	SourcePosition [M, >=2]      azimuth and elevation per measurement
//	Data.IR        [M, R>=2, N]  impulse responses per measurement/receiver/tap
//	Data.SamplingRate            scalar
//
// Impulse responses are fetched one measurement at a time so an oversized
// file is rejected by the byte cap before its payload is materialized.

// LoadSOFA reads a SOFA acoustic-measurement file into a Database.
// maxIRBytes caps the estimated decoded size of the Data.IR payload.
func LoadSOFA(path string, maxIRBytes int64) (*Database, error) {
	group, err := netcdf.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("hrir").
			Category(errors.CategoryFileParsing).
			Context("operation", "open_sofa").
			Context("path", path).
			Build()
	}
	defer group.Close()

	srcPos, err := group.GetVariable("SourcePosition")
	if err != nil {
		return nil, errors.New(err).
			Component("hrir").
			Category(errors.CategoryFileParsing).
			Context("operation", "read_source_position").
			Context("path", path).
			Build()
	}

	posShape := arrayShape(srcPos.Values)
	if len(posShape) != 2 || posShape[1] < 2 {
		return nil, errors.Newf("unexpected SourcePosition shape %v", posShape).
			Component("hrir").
			Category(errors.CategoryValidation).
			Context("path", path).
			Build()
	}
	m := posShape[0]

	positions, err := flattenFloats(srcPos.Values)
	if err != nil {
		return nil, errors.New(err).
			Component("hrir").
			Category(errors.CategoryFileParsing).
			Context("operation", "flatten_source_position").
			Context("path", path).
			Build()
	}

	rateVar, err := group.GetVariable("Data.SamplingRate")
	if err != nil {
		return nil, errors.New(err).
			Component("hrir").
			Category(errors.CategoryFileParsing).
			Context("operation", "read_sampling_rate").
			Context("path", path).
			Build()
	}
	rates, err := flattenFloats(rateVar.Values)
	if err != nil || len(rates) == 0 || rates[0] <= 0 {
		return nil, errors.Newf("missing or invalid Data.SamplingRate").
			Component("hrir").
			Category(errors.CategoryValidation).
			Context("path", path).
			Build()
	}
	sampleRate := int(rates[0])

	irGetter, err := group.GetVarGetter("Data.IR")
	if err != nil {
		return nil, errors.New(err).
			Component("hrir").
			Category(errors.CategoryFileParsing).
			Context("operation", "read_data_ir").
			Context("path", path).
			Build()
	}
	if irGetter.Len() != int64(m) {
		return nil, errors.Newf("Data.IR has %d measurements, SourcePosition has %d", irGetter.Len(), m).
			Component("hrir").
			Category(errors.CategoryValidation).
			Context("path", path).
			Build()
	}

	// Probe the first measurement to learn the receiver/tap dimensions.
	first, err := irGetter.GetSlice(0, 1)
	if err != nil {
		return nil, errors.New(err).
			Component("hrir").
			Category(errors.CategoryFileParsing).
			Context("operation", "probe_data_ir").
			Context("path", path).
			Build()
	}
	irShape := arrayShape(first)
	if len(irShape) != 3 || irShape[1] < 2 {
		return nil, errors.Newf("unexpected Data.IR shape %v", append([]int{m}, irShape[1:]...)).
			Component("hrir").
			Category(errors.CategoryValidation).
			Context("path", path).
			Build()
	}
	receivers, taps := irShape[1], irShape[2]

	estimated := int64(m) * int64(receivers) * int64(taps) * 8
	if estimated > maxIRBytes {
		return nil, errors.Newf("Data.IR payload too large: estimated %d bytes exceeds cap %d", estimated, maxIRBytes).
			Component("hrir").
			Category(errors.CategoryValidation).
			Context("path", path).
			Context("measurements", m).
			Build()
	}

	db := &Database{
		SampleRateHz: sampleRate,
		TapCount:     taps,
		Entries:      make([]Entry, 0, m),
	}

	stride := posShape[1]
	for i := 0; i < m; i++ {
		row, err := irGetter.GetSlice(int64(i), int64(i+1))
		if err != nil {
			return nil, errors.New(err).
				Component("hrir").
				Category(errors.CategoryFileParsing).
				Context("operation", "read_ir_row").
				Context("measurement", i).
				Build()
		}
		flat, err := flattenFloats(row)
		if err != nil {
			return nil, errors.New(err).
				Component("hrir").
				Category(errors.CategoryFileParsing).
				Context("operation", "flatten_ir_row").
				Context("measurement", i).
				Build()
		}
		if len(flat) < 2*taps {
			return nil, errors.Newf("short Data.IR row %d: %d samples", i, len(flat)).
				Component("hrir").
				Category(errors.CategoryValidation).
				Context("measurement", i).
				Build()
		}

		left := make([]float64, taps)
		right := make([]float64, taps)
		copy(left, flat[:taps])
		copy(right, flat[taps:2*taps])

		db.Entries = append(db.Entries, Entry{
			AzimuthDeg:   positions[i*stride],
			ElevationDeg: positions[i*stride+1],
			Left:         left,
			Right:        right,
		})
	}

	return db, nil
}

// arrayShape infers the rectangular shape of a possibly-nested slice value.
// Scalars report an empty shape.
func arrayShape(v any) []int {
	var shape []int
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		shape = append(shape, rv.Len())
		if rv.Len() == 0 {
			break
		}
		rv = rv.Index(0)
	}
	return shape
}

// flattenFloats flattens possibly-nested numeric arrays into a contiguous
// float64 buffer in row-major order.
func flattenFloats(v any) ([]float64, error) {
	var out []float64
	if err := appendFloats(reflect.ValueOf(v), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func appendFloats(rv reflect.Value, out *[]float64) error {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := appendFloats(rv.Index(i), out); err != nil {
				return err
			}
		}
		return nil
	case reflect.Float32, reflect.Float64:
		*out = append(*out, rv.Float())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		*out = append(*out, float64(rv.Int()))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		*out = append(*out, float64(rv.Uint()))
		return nil
	case reflect.Interface:
		return appendFloats(rv.Elem(), out)
	default:
		return errors.Newf("non-numeric element of kind %s", rv.Kind()).
			Component("hrir").
			Category(errors.CategoryValidation).
			Build()
	}
}
