// Package trace reads recorded sensor traces and replays them through the
// platform collaborator interfaces on a fake clock.
//
// A trace is JSON lines, one record per line:
//
//	{"type":"sample","ts":1767254400000,"m":0.42}
//	{"type":"fix","ts":1767254401000,"lat":60.17,"lon":24.94,"speed":3.1,"acc":8,"sats":9}
//	{"type":"trigger","ts":1767254402000}
//	{"type":"vehicle","ts":1767254403000,"on":true}
//
// ts is Unix milliseconds. Blank lines and lines starting with # are ignored.
package trace

import (
	"bufio"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/antonholmquist/jason"

	"github.com/tphakala/drivesense/internal/errors"
	"github.com/tphakala/drivesense/internal/motion"
)

const componentTrace = "trace"

// Kind is the record type.
type Kind string

const (
	KindSample  Kind = "sample"
	KindFix     Kind = "fix"
	KindTrigger Kind = "trigger"
	KindVehicle Kind = "vehicle"
)

// Record is one trace event. Only the field matching Kind is meaningful.
type Record struct {
	Kind      Kind
	Time      time.Time
	Line      int
	Sample    motion.Sample
	Fix       motion.Fix
	VehicleOn bool
}

// Trace is an ordered list of records.
type Trace struct {
	Records []Record
}

// Read parses a JSON-lines trace. Records are ordered by time; records with
// equal timestamps keep their file order.
func Read(r io.Reader) (*Trace, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	tr := &Trace{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := parseRecord([]byte(line))
		if err != nil {
			return nil, errors.New(err).
				Component(componentTrace).
				Category(errors.CategoryFileParsing).
				Context("line", lineNo).
				Build()
		}
		rec.Line = lineNo
		tr.Records = append(tr.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Component(componentTrace).
			Category(errors.CategoryFileIO).
			Build()
	}

	slices.SortStableFunc(tr.Records, func(a, b Record) int {
		return a.Time.Compare(b.Time)
	})
	return tr, nil
}

func parseRecord(data []byte) (Record, error) {
	obj, err := jason.NewObjectFromBytes(data)
	if err != nil {
		return Record{}, err
	}

	kind, err := obj.GetString("type")
	if err != nil {
		return Record{}, errors.Newf("record has no type").Component(componentTrace).Category(errors.CategoryFileParsing).Build()
	}
	ts, err := obj.GetInt64("ts")
	if err != nil {
		return Record{}, errors.Newf("record has no ts").Component(componentTrace).Category(errors.CategoryFileParsing).Build()
	}
	rec := Record{Kind: Kind(strings.ToLower(kind)), Time: time.UnixMilli(ts).UTC()}

	switch rec.Kind {
	case KindSample:
		m, err := obj.GetFloat64("m")
		if err != nil {
			return Record{}, errors.Newf("sample has no magnitude").Component(componentTrace).Category(errors.CategoryFileParsing).Build()
		}
		rec.Sample = motion.Sample{Magnitude: m, Timestamp: rec.Time}
	case KindFix:
		fix, err := parseFix(obj)
		if err != nil {
			return Record{}, err
		}
		fix.Timestamp = rec.Time
		rec.Fix = fix
	case KindTrigger:
	case KindVehicle:
		on, err := obj.GetBoolean("on")
		if err != nil {
			return Record{}, errors.Newf("vehicle record has no on flag").Component(componentTrace).Category(errors.CategoryFileParsing).Build()
		}
		rec.VehicleOn = on
	default:
		return Record{}, errors.Newf("unknown record type %q", kind).Component(componentTrace).Category(errors.CategoryFileParsing).Build()
	}
	return rec, nil
}

func parseFix(obj *jason.Object) (motion.Fix, error) {
	lat, latErr := obj.GetFloat64("lat")
	lon, lonErr := obj.GetFloat64("lon")
	if latErr != nil || lonErr != nil {
		return motion.Fix{}, errors.Newf("fix needs lat and lon").Component(componentTrace).Category(errors.CategoryFileParsing).Build()
	}

	fix := motion.Fix{Latitude: lat, Longitude: lon}
	if v, err := obj.GetFloat64("alt"); err == nil {
		fix.Altitude = v
	}
	if v, err := obj.GetFloat64("speed"); err == nil {
		fix.Speed = motion.Float(v)
	}
	if v, err := obj.GetFloat64("speed_acc"); err == nil {
		fix.SpeedAccuracy = motion.Float(v)
	}
	if v, err := obj.GetFloat64("acc"); err == nil {
		fix.HorizontalAccuracy = motion.Float(v)
	}
	if v, err := obj.GetInt64("sats"); err == nil {
		fix.Satellites = motion.Int(int(v))
	}
	if v, err := obj.GetInt64("age_ms"); err == nil {
		fix.Age = time.Duration(v) * time.Millisecond
	}
	return fix, nil
}

// Start returns the time of the first record.
func (t *Trace) Start() time.Time {
	if len(t.Records) == 0 {
		return time.Time{}
	}
	return t.Records[0].Time
}

// Duration is the span between the first and the last record.
func (t *Trace) Duration() time.Duration {
	if len(t.Records) == 0 {
		return 0
	}
	return t.Records[len(t.Records)-1].Time.Sub(t.Records[0].Time)
}

// Count returns the number of records of a kind.
func (t *Trace) Count(kind Kind) int {
	n := 0
	for i := range t.Records {
		if t.Records[i].Kind == kind {
			n++
		}
	}
	return n
}

// Samples returns the magnitude samples in order.
func (t *Trace) Samples() []motion.Sample {
	out := make([]motion.Sample, 0, t.Count(KindSample))
	for i := range t.Records {
		if t.Records[i].Kind == KindSample {
			out = append(out, t.Records[i].Sample)
		}
	}
	return out
}
