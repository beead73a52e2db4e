package pbswath

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/xtxerr/swath/internal/errors"
)

const (
	fileMagic   = 0x5357544850420001 // "SWTHPB" + version 1
	fileVersion = 1

	fileHeaderSize   = 12 // 8 bytes magic + 4 bytes version
	recordHeaderSize = 8  // 4 bytes length + 4 bytes crc
)

// ReadHeader implements driver.HeaderReader.
func (s *Store) ReadHeader(r io.Reader) error {
	var header [fileHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("read header: %w: %w", errors.ErrShortRead, err)
	}

	magic := binary.LittleEndian.Uint64(header[0:8])
	if magic != fileMagic {
		return fmt.Errorf("expected %x, got %x: %w", uint64(fileMagic), magic, errors.ErrBadMagic)
	}

	version := binary.LittleEndian.Uint32(header[8:12])
	if version != fileVersion {
		return fmt.Errorf("version %d: %w", version, errors.ErrBadVersion)
	}
	return nil
}

// WriteHeader implements driver.HeaderWriter.
func (s *Store) WriteHeader(w io.Writer) error {
	var header [fileHeaderSize]byte
	binary.LittleEndian.PutUint64(header[0:8], fileMagic)
	binary.LittleEndian.PutUint32(header[8:12], fileVersion)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write header: %w: %w", errors.ErrShortWrite, err)
	}
	return nil
}

// ReadRecord implements driver.Driver.
func (s *Store) ReadRecord(r io.Reader) error {
	var header [recordHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("read record header: %w: %w", errors.ErrShortRead, err)
	}

	length := int64(binary.LittleEndian.Uint32(header[0:4]))
	expectedCRC := binary.LittleEndian.Uint32(header[4:8])

	if length > int64(s.opts.MaxRecordSize) {
		return errors.NewAlloc("record bytes", int(length), s.opts.MaxRecordSize)
	}

	s.payload.Resize(int(length))
	payload := s.payload.Slice()
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("read payload: %w: %w", errors.ErrShortRead, err)
	}

	if actualCRC := crc32.ChecksumIEEE(payload); actualCRC != expectedCRC {
		return fmt.Errorf("expected %x, got %x: %w", expectedCRC, actualCRC, errors.ErrChecksum)
	}

	rec := s.next
	rec.reset(0)
	if err := decodeRecord(payload, rec, s.limits()); err != nil {
		if errors.Is(err, errors.ErrAlloc) || errors.IsBadRecord(err) {
			return err
		}
		return fmt.Errorf("decode payload: %w: %w", errors.ErrBadRecord, err)
	}

	s.cur, s.next = s.next, s.cur
	return nil
}

// WriteRecord implements driver.Inserter.
func (s *Store) WriteRecord(w io.Writer) error {
	if s.cur.ping.Kind == 0 {
		return fmt.Errorf("write record: %w", errors.ErrNoRecord)
	}

	buf := append(s.out[:0], make([]byte, recordHeaderSize)...)
	buf = s.enc.appendRecord(buf, s.cur)
	payload := buf[recordHeaderSize:]
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[4:8], crc32.ChecksumIEEE(payload))
	s.out = buf

	n, err := w.Write(buf)
	if err != nil {
		return fmt.Errorf("write record: %w: %w", errors.ErrShortWrite, err)
	}
	if n < len(buf) {
		return fmt.Errorf("write record: %d of %d bytes: %w", n, len(buf), errors.ErrShortWrite)
	}
	return nil
}
