package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const lineLen = 69

// ParseSet parses a single named two-line element set.
//
// Both lines are validated for length, line-number prefix, and mod-10
// checksum before any field is extracted. Field errors are reported as
// *FormatError, checksum mismatches as *ChecksumError. The catalog number
// is line 1 columns 3-7 (1-indexed) and must match line 2; the raw
// substring is preserved on the result for external catalog lookups.
func ParseSet(name, line1, line2 string) (ElementSet, error) {
	line1 = strings.TrimRight(line1, "\r\n ")
	line2 = strings.TrimRight(line2, "\r\n ")

	if len(line1) != lineLen {
		return ElementSet{}, &FormatError{Line: 1, Field: "line", Value: line1,
			Reason: fmt.Sprintf("length %d, expected %d", len(line1), lineLen)}
	}
	if len(line2) != lineLen {
		return ElementSet{}, &FormatError{Line: 2, Field: "line", Value: line2,
			Reason: fmt.Sprintf("length %d, expected %d", len(line2), lineLen)}
	}
	if line1[0] != '1' {
		return ElementSet{}, &FormatError{Line: 1, Field: "line number", Value: line1[:1], Reason: "expected '1'"}
	}
	if line2[0] != '2' {
		return ElementSet{}, &FormatError{Line: 2, Field: "line number", Value: line2[:1], Reason: "expected '2'"}
	}

	if err := verifyChecksum(1, line1); err != nil {
		return ElementSet{}, err
	}
	if err := verifyChecksum(2, line2); err != nil {
		return ElementSet{}, err
	}

	catnum := line1[2:7]
	if line2[2:7] != catnum {
		return ElementSet{}, &FormatError{Field: "catalog number",
			Value: line2[2:7], Reason: fmt.Sprintf("line 2 does not match line 1 (%q)", catnum)}
	}
	noradID, err := strconv.Atoi(strings.TrimSpace(catnum))
	if err != nil {
		return ElementSet{}, &FormatError{Line: 1, Field: "catalog number", Value: catnum, Reason: "not numeric"}
	}

	epoch, err := parseEpoch(line1[18:32])
	if err != nil {
		return ElementSet{}, err
	}

	ndot, err := parseFloatField(1, "mean motion derivative", line1[33:43])
	if err != nil {
		return ElementSet{}, err
	}
	nddot, err := parseExpField(1, "mean motion second derivative", line1[44:52])
	if err != nil {
		return ElementSet{}, err
	}
	bstar, err := parseExpField(1, "bstar", line1[53:61])
	if err != nil {
		return ElementSet{}, err
	}

	incl, err := parseFloatField(2, "inclination", line2[8:16])
	if err != nil {
		return ElementSet{}, err
	}
	raan, err := parseFloatField(2, "raan", line2[17:25])
	if err != nil {
		return ElementSet{}, err
	}
	ecc, err := parseFloatField(2, "eccentricity", "."+line2[26:33])
	if err != nil {
		return ElementSet{}, err
	}
	argp, err := parseFloatField(2, "argument of perigee", line2[34:42])
	if err != nil {
		return ElementSet{}, err
	}
	ma, err := parseFloatField(2, "mean anomaly", line2[43:51])
	if err != nil {
		return ElementSet{}, err
	}
	mm, err := parseFloatField(2, "mean motion", line2[52:63])
	if err != nil {
		return ElementSet{}, err
	}

	// Physical range checks.
	if ecc < 0 || ecc >= 1 {
		return ElementSet{}, &FormatError{Line: 2, Field: "eccentricity",
			Value: line2[26:33], Reason: "outside [0, 1)"}
	}
	if incl < 0 || incl > 180 {
		return ElementSet{}, &FormatError{Line: 2, Field: "inclination",
			Value: line2[8:16], Reason: "outside [0, 180] degrees"}
	}
	if mm <= 0 {
		return ElementSet{}, &FormatError{Line: 2, Field: "mean motion",
			Value: line2[52:63], Reason: "must be positive"}
	}

	return ElementSet{
		Name:           strings.TrimSpace(name),
		CatalogNumber:  catnum,
		NORADID:        noradID,
		Epoch:          epoch,
		InclinationDeg: incl,
		RAANDeg:        raan,
		Eccentricity:   ecc,
		ArgPerigeeDeg:  argp,
		MeanAnomalyDeg: ma,
		MeanMotion:     mm,
		MeanMotionDot:  ndot,
		MeanMotionDDot: nddot,
		Bstar:          bstar,
		ChecksumOK:     true,
		Line1:          line1,
		Line2:          line2,
	}, nil
}

// Parse reads 3-line NORAD catalog text from r and returns parsed entries.
// Malformed entries are skipped with a warning log; per-entry strictness
// lives in ParseSet, which callers holding a single triple should use.
func Parse(r io.Reader, logger *slog.Logger) ([]ElementSet, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog data: %w", err)
	}

	var entries []ElementSet
	for i := 0; i+2 < len(lines); {
		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Try to find the next valid triplet.
			logger.Warn("skipping malformed catalog entry", "line_index", i, "name", name)
			i++
			continue
		}

		els, err := ParseSet(name, line1, line2)
		if err != nil {
			logger.Warn("skipping invalid element set", "name", name, "error", err)
			i += 3
			continue
		}

		entries = append(entries, els)
		i += 3
	}

	return entries, nil
}

// Checksum computes the mod-10 checksum over the first 68 columns of a TLE
// line: digits count by value, '-' counts as 1, everything else as 0.
func Checksum(line string) int {
	if len(line) > lineLen-1 {
		line = line[:lineLen-1]
	}
	sum := 0
	for _, c := range line {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

func verifyChecksum(lineNo int, line string) error {
	last := line[lineLen-1]
	if last < '0' || last > '9' {
		return &FormatError{Line: lineNo, Field: "checksum", Value: string(last), Reason: "not a digit"}
	}
	want := int(last - '0')
	got := Checksum(line)
	if got != want {
		return &ChecksumError{Line: lineNo, Want: want, Got: got}
	}
	return nil
}

// parseEpoch converts the line 1 epoch field in YYDDD.DDDDDDDD format to a
// UTC time. Year 00-56 maps to the 2000s, 57-99 to the 1900s.
func parseEpoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) < 5 {
		return time.Time{}, &FormatError{Line: 1, Field: "epoch", Value: s, Reason: "too short"}
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, &FormatError{Line: 1, Field: "epoch year", Value: s[:2], Reason: "not numeric"}
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, &FormatError{Line: 1, Field: "epoch day", Value: s[2:], Reason: "not numeric"}
	}

	// Day of year is 1-based: day 1.0 is Jan 1 00:00 UTC.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}

func parseFloatField(lineNo int, field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &FormatError{Line: lineNo, Field: field, Value: s, Reason: "not numeric"}
	}
	return v, nil
}

// parseExpField parses the 8-column implied-decimal exponent fields on
// line 1 (nddot and bstar): sign column, five mantissa digits, and a
// two-column signed power of ten. " 12345-3" reads as 0.12345e-3.
func parseExpField(lineNo int, field, s string) (float64, error) {
	sign := strings.TrimSpace(s[0:1])
	mantissa := strings.ReplaceAll(s[1:6], " ", "0")
	exponent := strings.TrimSpace(s[6:8])
	if exponent == "" {
		exponent = "0"
	}

	v, err := strconv.ParseFloat(sign+"."+mantissa+"e"+exponent, 64)
	if err != nil {
		return 0, &FormatError{Line: lineNo, Field: field, Value: s, Reason: "not numeric"}
	}
	return v, nil
}
