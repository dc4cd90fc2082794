package hrir

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayShape(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []int
	}{
		{"scalar", 3.5, nil},
		{"flat", []float64{1, 2, 3}, []int{3}},
		{"matrix", [][]float32{{1, 2}, {3, 4}, {5, 6}}, []int{3, 2}},
		{"cube", [][][]float64{{{1, 2, 3}, {4, 5, 6}}}, []int{1, 2, 3}},
		{"empty_outer", [][]float64{}, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, arrayShape(tt.in))
		})
	}
}

func TestFlattenFloats(t *testing.T) {
	t.Run("nested_row_major", func(t *testing.T) {
		got, err := flattenFloats([][]float64{{1, 2}, {3, 4}})
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3, 4}, got)
	})

	t.Run("float32_and_int_elements", func(t *testing.T) {
		got, err := flattenFloats([]float32{0.5, 1.5})
		require.NoError(t, err)
		assert.InDelta(t, 0.5, got[0], 1e-6)

		gotInt, err := flattenFloats([]int32{7, -3})
		require.NoError(t, err)
		assert.Equal(t, []float64{7, -3}, gotInt)
	})

	t.Run("scalar", func(t *testing.T) {
		got, err := flattenFloats(44100.0)
		require.NoError(t, err)
		assert.Equal(t, []float64{44100}, got)
	})

	t.Run("rejects_non_numeric", func(t *testing.T) {
		_, err := flattenFloats([]string{"nope"})
		assert.Error(t, err)
	})
}

func TestLoadSOFARejectsNonContainer(t *testing.T) {
	// A compact HRIR binary is not an HDF5 container.
	path := filepath.Join(t.TempDir(), "not-sofa.bin")
	require.NoError(t, WriteCompact(path, testDatabase()))

	db, err := LoadSOFA(path, 64<<20)
	require.Error(t, err)
	assert.Nil(t, db)
}
