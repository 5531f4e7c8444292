package maplib

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// CSVHeader is a first row of CSV exports.
var CSVHeader = []string{"IP", "City", "Country", "Region", "Latitude", "Longitude", "Timezone"}

var csvIPv4Pattern = regexp.MustCompile(`^(?:\d{1,3}\.){3}\d{1,3}$`)

// ReadCSVKeys reads keys from the first column of CSV document. Rows
// which do not look like IPv4 addresses (headers, garbage, malformed
// rows) are silently skipped. An error is returned only if src cannot
// be read.
func ReadCSVKeys(src io.Reader) ([]string, error) {
	reader := csv.NewReader(src)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	rv := []string{}
	firstRow := true

	for {
		row, err := reader.Read()

		var parseErr *csv.ParseError

		switch {
		case errors.Is(err, io.EOF):
			return rv, nil
		case errors.As(err, &parseErr):
			continue
		case err != nil:
			return nil, fmt.Errorf("cannot read csv row: %w", err)
		case len(row) == 0:
			continue
		}

		key := row[0]

		if firstRow {
			key = strings.TrimPrefix(key, "\ufeff")
			firstRow = false
		}

		key = strings.TrimSpace(key)
		if csvIPv4Pattern.MatchString(key) {
			rv = append(rv, key)
		}
	}
}

// WriteCSVOutcomes writes outcomes as CSV document with CSVHeader.
// Failed outcomes have a key, empty location fields and a quoted error
// message in the last column.
func WriteCSVOutcomes(dst io.Writer, outcomes []Outcome) error {
	writer := bufio.NewWriter(dst)

	writeCSVRow(writer, CSVHeader, false)

	for _, v := range outcomes {
		if !v.OK() {
			writeCSVRow(writer, []string{v.Key, "", "", "", "", "", v.Failure.String()}, true)

			continue
		}

		writeCSVRow(writer, []string{
			v.Key,
			v.Location.City,
			v.Location.Country,
			v.Location.Region,
			strconv.FormatFloat(v.Location.Latitude, 'f', -1, 64),
			strconv.FormatFloat(v.Location.Longitude, 'f', -1, 64),
			v.Location.Timezone,
		}, false)
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("cannot write csv: %w", err)
	}

	return nil
}

// writeCSVRow writes fields as a CSV row. If quoteLast is set, the last
// field is always quoted.
func writeCSVRow(writer *bufio.Writer, fields []string, quoteLast bool) {
	for i, v := range fields {
		if i > 0 {
			writer.WriteByte(',') // nolint: errcheck
		}

		if (quoteLast && i == len(fields)-1) || csvFieldNeedsQuotes(v) {
			writer.WriteByte('"')                                // nolint: errcheck
			writer.WriteString(strings.ReplaceAll(v, `"`, `""`)) // nolint: errcheck
			writer.WriteByte('"')                                // nolint: errcheck
		} else {
			writer.WriteString(v) // nolint: errcheck
		}
	}

	writer.WriteByte('\n') // nolint: errcheck
}

func csvFieldNeedsQuotes(field string) bool {
	if field == "" {
		return false
	}

	return strings.ContainsAny(field, ",\"\r\n") ||
		field[0] == ' ' ||
		field[0] == '\t'
}
