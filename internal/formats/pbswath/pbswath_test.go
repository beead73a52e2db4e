package pbswath

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/xtxerr/swath/internal/driver"
	"github.com/xtxerr/swath/internal/errors"
	"github.com/xtxerr/swath/internal/swath"
	fixtures "github.com/xtxerr/swath/internal/testing"
	"google.golang.org/protobuf/encoding/protowire"
)

func newStore() *Store {
	return New(driver.DefaultOptions())
}

func encode(t *testing.T, s *Store) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := s.WriteRecord(&buf); err != nil {
		t.Fatalf("WriteRecord() error = %v", err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, data []byte) *Store {
	t.Helper()
	s := newStore()
	if err := s.ReadRecord(bytes.NewReader(data)); err != nil {
		t.Fatalf("ReadRecord() error = %v", err)
	}
	return s
}

func TestRoundTripExact(t *testing.T) {
	for _, in := range fixtures.Stream(6, 24) {
		w := newStore()
		if err := w.Insert(in); err != nil {
			t.Fatalf("Insert(%s) error = %v", in.Kind, err)
		}
		r := decode(t, encode(t, w))

		var out swath.Ping
		if err := r.Extract(&out); err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if diff := cmp.Diff(in, &out); diff != "" {
			t.Errorf("%s record mismatch (-want +got):\n%s", in.Kind, diff)
		}
	}
}

func TestZeroBeamWidthRoundTrip(t *testing.T) {
	tests := []struct {
		name          string
		along, across float64
	}{
		{"both zero", 0, 0},
		{"along zero", 0, 1.5},
		{"across zero", 0.75, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := fixtures.SurveyPing(0, 4, 0, 0)
			in.BeamWidthAlong, in.BeamWidthAcross = tt.along, tt.across

			w := newStore()
			if err := w.Insert(in); err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
			var out swath.Ping
			if err := decode(t, encode(t, w)).Extract(&out); err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if out.BeamWidthAlong != tt.along || out.BeamWidthAcross != tt.across {
				t.Errorf("beam widths = %v/%v, want %v/%v",
					out.BeamWidthAlong, out.BeamWidthAcross, tt.along, tt.across)
			}
		})
	}
}

func TestExtendedDataRoundTrip(t *testing.T) {
	w := newStore()
	if err := w.Insert(fixtures.SurveyPing(1, 4, 0, 0)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	tt := swath.TravelTimes{
		Kind: swath.KindSurvey,
		Beams: []swath.TravelTime{
			{TTime: 0.061, Angle: -45, AngleForward: 90},
			{TTime: 0.058, Angle: -15, AngleForward: 90, HeaveOffset: 0.1},
			{TTime: 0.057, Angle: 15, AngleForward: 90, AlongtrackOffset: -0.2},
			{TTime: 0.060, Angle: 45, AngleForward: 90, AngleNull: 2},
		},
		DraftOffset: 0.4,
		SSV:         1498.5,
	}
	detects := []swath.Detect{swath.DetectAmplitude, swath.DetectPhase, swath.DetectPhase, swath.DetectUnknown}
	svp := swath.SVP{
		Time:   fixtures.Epoch,
		Points: []swath.SVPPoint{{Depth: 0, Velocity: 1500}, {Depth: 50, Velocity: 1490.25}},
	}
	raw := swath.RawSidescan{
		SampleInterval: 1e-4,
		Port:           []float64{1, 2, 3},
		Starboard:      []float64{4, 5},
	}

	if err := w.SetTravelTimes(tt); err != nil {
		t.Fatalf("SetTravelTimes() error = %v", err)
	}
	if err := w.SetDetects(detects); err != nil {
		t.Fatalf("SetDetects() error = %v", err)
	}
	if err := w.InsertSVP(svp); err != nil {
		t.Fatalf("InsertSVP() error = %v", err)
	}
	if err := w.InsertRawSidescan(raw); err != nil {
		t.Fatalf("InsertRawSidescan() error = %v", err)
	}

	r := decode(t, encode(t, w))

	if diff := cmp.Diff(tt, r.TravelTimes()); diff != "" {
		t.Errorf("TravelTimes() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(detects, r.Detects()); diff != "" {
		t.Errorf("Detects() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(svp, r.ExtractSVP()); diff != "" {
		t.Errorf("ExtractSVP() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(raw, r.ExtractRawSidescan()); diff != "" {
		t.Errorf("ExtractRawSidescan() mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertResetsExtendedData(t *testing.T) {
	s := newStore()
	s.Insert(fixtures.SurveyPing(0, 3, 0, 0))
	s.SetDetects([]swath.Detect{swath.DetectPhase, swath.DetectPhase, swath.DetectPhase})
	s.InsertSVP(swath.SVP{Points: []swath.SVPPoint{{Depth: 1, Velocity: 1500}}})

	s.Insert(fixtures.SurveyPing(1, 5, 0, 0))

	if diff := cmp.Diff(make([]swath.Detect, 5), s.Detects()); diff != "" {
		t.Errorf("Detects() after Insert mismatch (-want +got):\n%s", diff)
	}
	if svp := s.ExtractSVP(); len(svp.Points) != 0 {
		t.Errorf("SVP survived Insert: %+v", svp)
	}
}

func TestSetTravelTimesValidation(t *testing.T) {
	s := newStore()
	s.Insert(fixtures.SurveyPing(0, 3, 0, 0))
	if err := s.SetTravelTimes(swath.TravelTimes{Beams: make([]swath.TravelTime, 2)}); !errors.Is(err, errors.ErrBadRecord) {
		t.Errorf("SetTravelTimes(2 of 3) error = %v, want ErrBadRecord", err)
	}

	s.Insert(fixtures.CommentPing("x"))
	if err := s.SetDetects(nil); !errors.Is(err, errors.ErrKindMismatch) {
		t.Errorf("SetDetects() on comment error = %v, want ErrKindMismatch", err)
	}
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := newStore().WriteHeader(&buf); err != nil {
		t.Fatalf("WriteHeader() error = %v", err)
	}
	good := buf.Bytes()

	badMagic := append([]byte(nil), good...)
	badMagic[0] ^= 0xff

	badVersion := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(badVersion[8:], 99)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"valid", good, nil},
		{"bad magic", badMagic, errors.ErrBadMagic},
		{"bad version", badVersion, errors.ErrBadVersion},
		{"truncated", good[:5], errors.ErrShortRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newStore().ReadHeader(bytes.NewReader(tt.data))
			if tt.want == nil {
				if err != nil {
					t.Errorf("ReadHeader() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadHeader() error = %v, want %v", err, tt.want)
			}
		})
	}
}

// reframe wraps payload in a record header with a valid checksum.
func reframe(payload []byte) []byte {
	out := binary.LittleEndian.AppendUint32(nil, uint32(len(payload)))
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(payload))
	return append(out, payload...)
}

func TestReadRecordErrors(t *testing.T) {
	w := newStore()
	w.Insert(fixtures.SurveyPing(0, 8, 8, 8))
	record := encode(t, w)

	corrupt := append([]byte(nil), record...)
	corrupt[len(corrupt)-1] ^= 0x01

	huge := binary.LittleEndian.AppendUint32(nil, 1<<31)
	huge = binary.LittleEndian.AppendUint32(huge, 0)

	noKind := reframe(protowire.AppendFixed64(protowire.AppendTag(nil, fLon, protowire.Fixed64Type), 1))

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, io.EOF},
		{"truncated header", record[:3], errors.ErrShortRead},
		{"truncated payload", record[:len(record)-2], errors.ErrShortRead},
		{"checksum", corrupt, errors.ErrChecksum},
		{"oversized", huge, errors.ErrAlloc},
		{"garbage payload", reframe([]byte{0xff, 0xff, 0xff}), errors.ErrBadRecord},
		{"missing kind", noKind, errors.ErrBadRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newStore().ReadRecord(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadRecord() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUnknownFieldsSkipped(t *testing.T) {
	w := newStore()
	w.Insert(fixtures.NavPing(2))
	record := encode(t, w)

	payload := append([]byte(nil), record[recordHeaderSize:]...)
	payload = protowire.AppendTag(payload, 99, protowire.BytesType)
	payload = protowire.AppendString(payload, "future field")

	r := decode(t, reframe(payload))
	if diff := cmp.Diff(fixtures.NavPing(2).Nav(), r.ExtractNav()); diff != "" {
		t.Errorf("ExtractNav() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadLimitKeepsCurrentRecord(t *testing.T) {
	w := newStore()
	w.Insert(fixtures.SurveyPing(0, 4, 0, 0))
	small := encode(t, w)
	w.Insert(fixtures.SurveyPing(0, 40, 0, 0))
	large := encode(t, w)

	r := New(driver.Options{MaxBeams: 10})
	if err := r.ReadRecord(bytes.NewReader(small)); err != nil {
		t.Fatalf("ReadRecord(small) error = %v", err)
	}
	if err := r.ReadRecord(bytes.NewReader(large)); !errors.Is(err, errors.ErrAlloc) {
		t.Fatalf("ReadRecord(large) error = %v, want ErrAlloc", err)
	}
	if d := r.Dimensions(); d.Beams != 4 {
		t.Errorf("Dimensions() = %+v, want the previous 4-beam record", d)
	}
}

func TestNullBeamsZeroed(t *testing.T) {
	p := fixtures.SurveyPing(0, 8, 0, 0)
	p.Beams[2] = swath.Beam{Flag: swath.FlagNull, Depth: 99, AcrossTrack: 3}

	s := newStore()
	s.Insert(p)
	var out swath.Ping
	s.Extract(&out)
	if out.Beams[2] != (swath.Beam{Flag: swath.FlagNull}) {
		t.Errorf("null beam = %+v, want zero values", out.Beams[2])
	}
}

func TestSessionRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := driver.NewWriter(&buf, Name, driver.DefaultOptions())
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	in := fixtures.Stream(5, 16)
	svp := swath.SVP{Time: fixtures.Epoch.Add(time.Minute), Points: []swath.SVPPoint{{Depth: 10, Velocity: 1495}}}
	for i, p := range in {
		if err := w.Insert(p); err != nil {
			t.Fatalf("Insert(%d) error = %v", i, err)
		}
		if i == 1 {
			if err := w.SetSVP(svp); err != nil {
				t.Fatalf("SetSVP() error = %v", err)
			}
		}
		if err := w.Write(); err != nil {
			t.Fatalf("Write(%d) error = %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r, err := driver.NewReader(&buf, Name, driver.DefaultOptions())
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()

	var out swath.Ping
	for i := 0; ; i++ {
		err := r.Next()
		if err == io.EOF {
			if i != len(in) {
				t.Errorf("read %d records, want %d", i, len(in))
			}
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		r.Extract(&out)
		// out is reused, so slices emptied by a shorter record keep
		// their backing arrays.
		if diff := cmp.Diff(in[i], &out, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("record %d mismatch (-want +got):\n%s", i, diff)
		}
		got, _ := r.SVP()
		if i == 1 {
			if diff := cmp.Diff(svp, got); diff != "" {
				t.Errorf("SVP mismatch (-want +got):\n%s", diff)
			}
		} else if len(got.Points) != 0 {
			t.Errorf("record %d has SVP %+v", i, got)
		}
	}
}

func TestCopyFromPreservesTravelTimes(t *testing.T) {
	src, dst := newStore(), newStore()
	src.Insert(fixtures.SurveyPing(0, 2, 0, 0))
	src.SetTravelTimes(swath.TravelTimes{Beams: []swath.TravelTime{{TTime: 1}, {TTime: 2}}, SSV: 1500})

	if err := dst.CopyFrom(src); err != nil {
		t.Fatalf("CopyFrom() error = %v", err)
	}
	if diff := cmp.Diff(src.TravelTimes(), dst.TravelTimes()); diff != "" {
		t.Errorf("TravelTimes() mismatch (-src +dst):\n%s", diff)
	}

	// The copy must not share memory with the source.
	src.SetTravelTimes(swath.TravelTimes{Beams: make([]swath.TravelTime, 2)})
	if dst.TravelTimes().Beams[0].TTime != 1 {
		t.Error("destination aliases source travel times")
	}
}
