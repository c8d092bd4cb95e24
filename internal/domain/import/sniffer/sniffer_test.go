package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLayout(t *testing.T) {
	t.Run("plain comma header", func(t *testing.T) {
		layout, err := DetectLayout([]byte("Name,Price,Category 1\nDrain Cleaning,149.99,Plumbing\n"))
		require.NoError(t, err)
		assert.Equal(t, ',', int32(layout.Delimiter))
		assert.Equal(t, 0, layout.HeaderRow)
		assert.Equal(t, []string{"Name", "Price", "Category 1"}, layout.Headers)
		require.Len(t, layout.SampleRows, 1)
	})

	t.Run("preamble before header", func(t *testing.T) {
		raw := "Acme Flat Rate Export\n\nName;Code;Price;Cost\nInstall Faucet;PLB-100;249.00;80.00\n"
		layout, err := DetectLayout([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, ';', int32(layout.Delimiter))
		assert.Equal(t, 2, layout.HeaderRow)
		assert.Equal(t, []string{"Name", "Code", "Price", "Cost"}, layout.Headers)
	})

	t.Run("tab delimited", func(t *testing.T) {
		layout, err := DetectLayout([]byte("Name\tPrice\nService A\t10\n"))
		require.NoError(t, err)
		assert.Equal(t, '\t', int32(layout.Delimiter))
	})

	t.Run("bom stripped", func(t *testing.T) {
		layout, err := DetectLayout([]byte("\uFEFFName,Price\nA,1\n"))
		require.NoError(t, err)
		assert.Equal(t, "Name", layout.Headers[0])
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := DetectLayout(nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("forced header row", func(t *testing.T) {
		raw := "junk,line\nName,Price\nA,1\n"
		layout, err := DetectLayoutWithOptions([]byte(raw), &DetectOptions{HeaderRowIndex: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, layout.HeaderRow)
		assert.Equal(t, []string{"Name", "Price"}, layout.Headers)
	})
}

func TestFingerprint(t *testing.T) {
	a, err := DetectLayout([]byte("Name,Price,Category 1\nx,1,y\n"))
	require.NoError(t, err)
	b, err := DetectLayout([]byte("name, price, CATEGORY-1\nx,1,y\n"))
	require.NoError(t, err)
	c, err := DetectLayout([]byte("Name,Cost\nx,1\n"))
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint, b.Fingerprint, "normalization should ignore case and punctuation")
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}
