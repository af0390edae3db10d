package server

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

var errPointList = errors.New("expected a JSON array of [lat, lon] pairs")

// pointScanner reads a JSON array of coordinate pairs without reflection.
type pointScanner struct {
	data []byte
	pos  int
}

func (s *pointScanner) skipSpace() {
	for s.pos < len(s.data) {
		switch s.data[s.pos] {
		case ' ', '\n', '\t', '\r':
			s.pos++
		default:
			return
		}
	}
}

// consume skips whitespace and reports whether the next byte is c,
// advancing past it if so.
func (s *pointScanner) consume(c byte) bool {
	s.skipSpace()
	if s.pos < len(s.data) && s.data[s.pos] == c {
		s.pos++
		return true
	}
	return false
}

func (s *pointScanner) number() (float64, error) {
	s.skipSpace()
	start := s.pos
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if (c < '0' || c > '9') && c != '-' && c != '+' && c != '.' && c != 'e' && c != 'E' {
			break
		}
		s.pos++
	}
	if start == s.pos {
		return 0, fmt.Errorf("%w: missing number at offset %d", errPointList, start)
	}
	v, err := strconv.ParseFloat(string(s.data[start:s.pos]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %w", err)
	}
	return v, nil
}

func (s *pointScanner) point() ([2]float64, error) {
	var p [2]float64
	if !s.consume('[') {
		return p, fmt.Errorf("%w: expected '[' at offset %d", errPointList, s.pos)
	}
	var err error
	if p[0], err = s.number(); err != nil {
		return p, err
	}
	if !s.consume(',') {
		return p, fmt.Errorf("%w: expected ',' at offset %d", errPointList, s.pos)
	}
	if p[1], err = s.number(); err != nil {
		return p, err
	}
	if !s.consume(']') {
		return p, fmt.Errorf("%w: expected ']' at offset %d", errPointList, s.pos)
	}
	return p, nil
}

// unmarshalPointsListFast appends the [lat, lon] pairs of data to result.
func unmarshalPointsListFast(data []byte, result *[][2]float64) error {
	*result = slices.Grow(*result, len(data)/16) // n/16 is a heuristic

	s := pointScanner{data: data}
	if !s.consume('[') {
		return fmt.Errorf("%w: expected '['", errPointList)
	}
	if s.consume(']') {
		return nil
	}

	for {
		p, err := s.point()
		if err != nil {
			return err
		}
		*result = append(*result, p)

		if s.consume(']') {
			break
		}
		if !s.consume(',') {
			return fmt.Errorf("%w: expected ',' or ']' at offset %d", errPointList, s.pos)
		}
	}

	s.skipSpace()
	if s.pos != len(s.data) {
		return fmt.Errorf("%w: trailing data at offset %d", errPointList, s.pos)
	}
	return nil
}
