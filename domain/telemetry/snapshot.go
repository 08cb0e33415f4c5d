// Package telemetry is the ground-station side of the companion link: it
// parses housekeeping lines into snapshots and keeps the latest one.
package telemetry

import (
	"strconv"
	"strings"
	"time"

	errs "github.com/soocke/sputnik-relay/platform/errors"
)

// Snapshot is the merged view of the most recent telemetry. Timestamp is
// attached by the receiver.
type Snapshot struct {
	Timestamp      time.Time `json:"timestamp"`
	SatelliteID    int       `json:"satellite_id"`
	Temperature    float64   `json:"temperature"`
	Battery        float64   `json:"battery"`
	SignalStrength float64   `json:"signal_strength"`
	Altitude       float64   `json:"altitude"`
	Speed          float64   `json:"speed"`
	Status         string    `json:"status"`
	Simulated      bool      `json:"simulated"`
}

// Field marks which values a Reading carries.
type Field uint8

const (
	FieldID Field = 1 << iota
	FieldTemperature
	FieldBattery
	FieldSignal
	FieldAltitude
	FieldSpeed
	FieldStatus

	AllFields = FieldID | FieldTemperature | FieldBattery | FieldSignal | FieldAltitude | FieldSpeed | FieldStatus
)

// Has reports whether every bit of f2 is set.
func (f Field) Has(f2 Field) bool { return f&f2 == f2 }

// Reading is one parsed line. Only the fields flagged in Fields are
// meaningful.
type Reading struct {
	Values Snapshot
	Fields Field
}

// Parse decodes a line of comma-separated KEY:VALUE pairs, e.g.
//
//	ID:1,T:25.5,B:3.7,S:-45,A:520,V:7.6,STATUS:Active
//
// Unknown keys and parts without a colon are skipped. A numeric field that
// does not parse rejects the whole line.
func Parse(line string, at time.Time) (Reading, error) {
	r := Reading{Values: Snapshot{Timestamp: at}}
	for _, part := range strings.Split(line, ",") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		var err error
		switch key {
		case "ID":
			r.Values.SatelliteID, err = strconv.Atoi(strings.TrimSpace(value))
			r.Fields |= FieldID
		case "T":
			r.Values.Temperature, err = parseFloat(value)
			r.Fields |= FieldTemperature
		case "B":
			r.Values.Battery, err = parseFloat(value)
			r.Fields |= FieldBattery
		case "S":
			r.Values.SignalStrength, err = parseFloat(value)
			r.Fields |= FieldSignal
		case "A":
			r.Values.Altitude, err = parseFloat(value)
			r.Fields |= FieldAltitude
		case "V":
			r.Values.Speed, err = parseFloat(value)
			r.Fields |= FieldSpeed
		case "STATUS":
			r.Values.Status = value
			r.Fields |= FieldStatus
		}
		if err != nil {
			return Reading{}, errs.Wrap(errs.KindTelemetry, "parse", "field "+key, err)
		}
	}
	return r, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Apply merges the fields carried by r into s and stamps the reading time.
func (s Snapshot) Apply(r Reading) Snapshot {
	v := r.Values
	if r.Fields.Has(FieldID) {
		s.SatelliteID = v.SatelliteID
	}
	if r.Fields.Has(FieldTemperature) {
		s.Temperature = v.Temperature
	}
	if r.Fields.Has(FieldBattery) {
		s.Battery = v.Battery
	}
	if r.Fields.Has(FieldSignal) {
		s.SignalStrength = v.SignalStrength
	}
	if r.Fields.Has(FieldAltitude) {
		s.Altitude = v.Altitude
	}
	if r.Fields.Has(FieldSpeed) {
		s.Speed = v.Speed
	}
	if r.Fields.Has(FieldStatus) {
		s.Status = v.Status
	}
	s.Timestamp = v.Timestamp
	s.Simulated = v.Simulated
	return s
}
