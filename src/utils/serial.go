package utils

import (
	"context"
	"dms/src/lib"
	"dms/src/models"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// locationPrefixes maps showroom names to the short codes stamped on gate
// passes. Matching is case-insensitive substring; unknown locations fall
// back to "UNKNOWN".
var locationPrefixes = map[string]string{
	"Manpada":          "M",
	"Ovala":            "O",
	"Shreenagar":       "SR",
	"Shahapur":         "S",
	"Padgha":           "P",
	"Diva":             "D",
	"Vasind":           "V",
	"Lokmanyanagar":    "L",
	"Vashi":            "VS",
	"Airoli":           "A",
	"Airoli EC":        "AEC",
	"Sanpada":          "SP",
	"Turbhe":           "T",
	"Ghansoli":         "G",
	"Bigwing Thane":    "BWT",
	"Bigwing Miraroad": "BWM",
	"Bigwing Surat":    "BWS",
}

const unknownPrefix = "UNKNOWN"

// LocationPrefix resolves the gate-pass code for a showroom. Longer names
// win so "Airoli EC" is not shadowed by "Airoli".
func LocationPrefix(location string) string {
	best := ""
	for name := range locationPrefixes {
		matched, err := regexp.MatchString("(?i)"+regexp.QuoteMeta(name), location)
		if err != nil || !matched {
			continue
		}
		if len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return unknownPrefix
	}
	return locationPrefixes[best]
}

// CurrentTaxYear formats the Indian financial year (April 1 to March 31)
// the given instant falls in, e.g. "24-25".
func CurrentTaxYear(now time.Time) string {
	year := now.Year()
	startOfFY := time.Date(year, time.April, 1, 0, 0, 0, 0, now.Location())
	if now.Before(startOfFY) {
		return fmt.Sprintf("%02d-%02d", (year-1)%100, year%100)
	}
	return fmt.Sprintf("%02d-%02d", year%100, (year+1)%100)
}

// ParseGatePassSerial splits "M/24-25/0007" into its prefix, tax year and
// sequence. Sequence stays zero-padded in the wire form; the numeric value
// is returned for incrementing.
func ParseGatePassSerial(serial string) (prefix, taxYear string, seq int, err error) {
	parts := strings.Split(serial, "/")
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("malformed gate pass serial %q", serial)
	}
	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", "", 0, fmt.Errorf("malformed gate pass sequence %q", parts[2])
	}
	return parts[0], parts[1], seq, nil
}

// FormatGatePassSerial renders a serial with the four-digit zero padding the
// descending string sort depends on.
func FormatGatePassSerial(prefix, taxYear string, seq int) string {
	return fmt.Sprintf("%s/%s/%04d", prefix, taxYear, seq)
}

// NextSerial computes the serial that follows previous for a location at the
// given instant. An empty previous starts the location's sequence; a tax-year
// rollover resets it to 1 while keeping the previous prefix.
func NextSerial(previous, location string, now time.Time) string {
	taxYear := CurrentTaxYear(now)
	if previous == "" {
		return FormatGatePassSerial(LocationPrefix(location), taxYear, 1)
	}
	prefix, prevYear, seq, err := ParseGatePassSerial(previous)
	if err != nil {
		log.Printf("Ignoring unparseable gate pass serial %q for %s: %s\n", previous, location, err.Error())
		return FormatGatePassSerial(LocationPrefix(location), taxYear, 1)
	}
	if prevYear == taxYear {
		return FormatGatePassSerial(prefix, taxYear, seq+1)
	}
	return FormatGatePassSerial(prefix, taxYear, 1)
}

// NextGatePassSerial issues the next serial for a location. The latest issued
// serial comes from the redis cache when warm, else from the store via a
// descending string sort over the zero-padded serials.
func NextGatePassSerial(tx *gorm.DB, location string, now time.Time) (string, error) {
	previous := lib.CachedGatePassSerial(context.Background(), location)
	if previous != "" {
		if _, _, _, err := ParseGatePassSerial(previous); err != nil {
			lib.DropGatePassSerial(context.Background(), location)
			previous = ""
		}
	}
	if previous == "" {
		var ticket models.Ticket
		err := tx.
			Model(&models.Ticket{}).
			Where("location = ? AND gate_pass_serial_number <> ''", location).
			Order("gate_pass_serial_number desc").
			First(&ticket).
			Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
		previous = ticket.GatePassSerialNumber
	}
	return NextSerial(previous, location, now), nil
}
