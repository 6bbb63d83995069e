package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocationPrefix(t *testing.T) {
	assert.Equal(t, "M", LocationPrefix("Manpada"))
	assert.Equal(t, "M", LocationPrefix("manpada showroom"))
	assert.Equal(t, "BWS", LocationPrefix("Bigwing Surat"))
	// Longest match wins over the plain "Airoli" entry.
	assert.Equal(t, "AEC", LocationPrefix("Airoli EC"))
	assert.Equal(t, "A", LocationPrefix("Airoli"))
	assert.Equal(t, "UNKNOWN", LocationPrefix("Nagpur"))
	assert.Equal(t, "UNKNOWN", LocationPrefix(""))
}

func TestCurrentTaxYear(t *testing.T) {
	assert.Equal(t, "24-25", CurrentTaxYear(time.Date(2025, time.March, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "25-26", CurrentTaxYear(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "25-26", CurrentTaxYear(time.Date(2025, time.December, 15, 12, 0, 0, 0, time.UTC)))
}

func TestNextSerial(t *testing.T) {
	june := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	t.Run("first serial for a location", func(t *testing.T) {
		assert.Equal(t, "M/24-25/0001", NextSerial("", "Manpada", june))
	})

	t.Run("increments within the tax year", func(t *testing.T) {
		assert.Equal(t, "M/24-25/0003", NextSerial("M/24-25/0002", "Manpada", june))
	})

	t.Run("keeps zero padding across sequence growth", func(t *testing.T) {
		assert.Equal(t, "M/24-25/0100", NextSerial("M/24-25/0099", "Manpada", june))
	})

	t.Run("tax year rollover resets the sequence", func(t *testing.T) {
		may2025 := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, "M/25-26/0001", NextSerial("M/24-25/0042", "Manpada", may2025))
	})

	t.Run("unknown location falls back to the sentinel prefix", func(t *testing.T) {
		assert.Equal(t, "UNKNOWN/24-25/0001", NextSerial("", "Nagpur", june))
	})

	t.Run("garbage previous serial restarts the sequence", func(t *testing.T) {
		assert.Equal(t, "M/24-25/0001", NextSerial("not-a-serial", "Manpada", june))
	})
}

func TestParseGatePassSerial(t *testing.T) {
	prefix, taxYear, seq, err := ParseGatePassSerial("SR/24-25/0017")
	assert.Nil(t, err)
	assert.Equal(t, "SR", prefix)
	assert.Equal(t, "24-25", taxYear)
	assert.Equal(t, 17, seq)

	_, _, _, err = ParseGatePassSerial("SR-24-25-0017")
	assert.NotNil(t, err)
}
