// SPDX-License-Identifier: AGPL-3.0-or-later
package duplicates

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Required columns of unidades.csv; every other column is an attribute.
var envelopeColumns = []string{"minx", "miny", "maxx", "maxy"}

// ReadUnits parses a units export. The delimiter is ',' or ';', detected
// from the header line.
func ReadUnits(r io.Reader) ([]Unit, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	first, _, _ := strings.Cut(string(head), "\n")

	cr := csv.NewReader(br)
	if strings.Count(first, ";") > strings.Count(first, ",") {
		cr.Comma = ';'
	}
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}
	idCol, ok := cols["id"]
	if !ok {
		return nil, errors.New("units export lacks an id column")
	}
	var envCols [4]int
	for i, name := range envelopeColumns {
		c, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("units export lacks a %s column", name)
		}
		envCols[i] = c
	}
	reserved := map[int]bool{idCol: true, envCols[0]: true, envCols[1]: true, envCols[2]: true, envCols[3]: true}

	var units []Unit
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) < len(header) {
			return nil, fmt.Errorf("line %d: %d fields, want %d", line, len(rec), len(header))
		}

		var box [4]float64
		for i, c := range envCols {
			v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(rec[c]), ",", ".", 1), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, envelopeColumns[i], err)
			}
			box[i] = v
		}
		u := Unit{
			ID:    strings.TrimSpace(rec[idCol]),
			Attrs: map[string]string{},
			Env:   Envelope{MinX: box[0], MinY: box[1], MaxX: box[2], MaxY: box[3]},
		}
		for i, h := range header {
			if !reserved[i] {
				u.Attrs[strings.TrimSpace(h)] = rec[i]
			}
		}
		units = append(units, u)
	}
	return units, nil
}
