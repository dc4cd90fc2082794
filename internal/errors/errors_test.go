package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	base := NewStd("boom")

	err := New(base).
		Component("hrir").
		Category(CategoryFileParsing).
		Context("path", "/tmp/x.bin").
		Build()

	assert.Equal(t, "boom", err.Error())
	assert.Equal(t, "hrir", err.Component)
	assert.Equal(t, CategoryFileParsing, err.Category)
	assert.Equal(t, "/tmp/x.bin", err.Context["path"])
	assert.False(t, err.Timestamp.IsZero())
	assert.True(t, Is(err, base))
}

func TestBuilderDefaults(t *testing.T) {
	err := Newf("bad value %d", 7).Build()
	assert.Equal(t, "bad value 7", err.Error())
	assert.Equal(t, ComponentUnknown, err.Component)
	assert.Equal(t, CategoryGeneric, err.Category)
}

func TestNewNilError(t *testing.T) {
	err := New(nil).Build()
	require.NotNil(t, err)
	assert.NotEmpty(t, err.Error())
}

func TestFileContext(t *testing.T) {
	err := Newf("short file").FileContext("/data/a.bin", 12).Build()
	assert.Equal(t, "/data/a.bin", err.Context["file_path"])
	assert.Equal(t, int64(12), err.Context["file_size_bytes"])
}

func TestGetContextReturnsCopy(t *testing.T) {
	err := Newf("x").Context("k", "v").Build()
	cp := err.GetContext()
	cp["k"] = "mutated"
	assert.Equal(t, "v", err.Context["k"])

	assert.Nil(t, Newf("x").Build().GetContext())
}

func TestCategoryMatching(t *testing.T) {
	err := Newf("missing").Category(CategoryNotFound).Build()

	assert.True(t, IsCategory(err, CategoryNotFound))
	assert.False(t, IsCategory(err, CategoryValidation))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(NewStd("plain")))

	// Category matching survives wrapping.
	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsNotFound(wrapped))
}

func TestUnwrap(t *testing.T) {
	base := NewStd("inner")
	err := New(base).Build()
	assert.Equal(t, base, Unwrap(err))

	var ee *EnhancedError
	assert.True(t, As(err, &ee))
	assert.Equal(t, base, ee.Err)
}
