// vehicle/envelope.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package vehicle

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/aerolab/motionplan/math"
	"github.com/aerolab/motionplan/plan"

	"github.com/vmihailenco/msgpack/v5"
)

const maxEnvelopeSize = 1 << 20

var ErrEnvelopeTooLarge = errors.New("Waypoint envelope too large")

// EncodeWaypoints serializes waypoints as a msgpack array of
// [north, east, altitude, heading] integer tuples preceded by the
// payload's length as a 4-byte big-endian integer.
func EncodeWaypoints(wps []plan.Waypoint) ([]byte, error) {
	tuples := make([][4]int, len(wps))
	for i, wp := range wps {
		tuples[i] = [4]int{math.Round(wp.North), math.Round(wp.East), math.Round(wp.Altitude), math.Round(wp.Heading)}
	}

	payload, err := msgpack.Marshal(tuples)
	if err != nil {
		return nil, err
	}
	if len(payload) > maxEnvelopeSize {
		return nil, fmt.Errorf("%d bytes: %w", len(payload), ErrEnvelopeTooLarge)
	}

	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	return buf, nil
}

// DecodeWaypoints reads one envelope written by EncodeWaypoints.
func DecodeWaypoints(r io.Reader) ([]plan.Waypoint, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxEnvelopeSize {
		return nil, fmt.Errorf("%d bytes: %w", n, ErrEnvelopeTooLarge)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	var tuples [][4]int
	if err := msgpack.Unmarshal(payload, &tuples); err != nil {
		return nil, err
	}

	wps := make([]plan.Waypoint, len(tuples))
	for i, t := range tuples {
		wps[i] = plan.Waypoint{North: float64(t[0]), East: float64(t[1]), Altitude: float64(t[2]), Heading: float64(t[3])}
	}
	return wps, nil
}
