package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// HeaderBytes is the size of one on-disk header block. The encoded fields
// occupy the first encodedHeaderBytes; the remainder is zero padding so that
// payload data always starts at the same offset regardless of tooling version.
const HeaderBytes = 1380

const encodedHeaderBytes = 7*8 + 2*4 + 14*8

// Payload sample sizes, in bytes.
const (
	ComplexSampleBytes = 16
	RealSampleBytes    = 8
)

var (
	// ErrBadHeader indicates a header block that does not describe a grid
	// this tooling can read.
	ErrBadHeader = errors.New("model: invalid snapshot header")
)

// Header is the canonical metadata record shared by the in-memory propagator
// state and every snapshot file. All integers are little-endian int64 on disk,
// flags are int32, physical quantities are float64.
type Header struct {
	Nself        int64 // total header block size in bytes (HeaderBytes)
	NDatatyp     int64 // bytes per payload sample
	NselfAndData int64 // header plus payload size in bytes

	NDims int64
	NDimX int64
	NDimY int64
	NDimZ int64

	BAtom    int32 // reserved flag carried for format compatibility
	BComplex int32 // 1 when the payload is complex, 0 for real arrays

	T    float64 // current simulation time
	XMin float64
	XMax float64
	YMin float64
	YMax float64
	ZMin float64
	ZMax float64
	Dx   float64
	Dy   float64
	Dz   float64
	Dkx  float64
	Dky  float64
	Dkz  float64
	Dt   float64 // current time step
}

// GridSize returns the total number of grid points described by the header.
func (h *Header) GridSize() int {
	n := int64(1)
	if h.NDims >= 1 {
		n *= h.NDimX
	}
	if h.NDims >= 2 {
		n *= h.NDimY
	}
	if h.NDims >= 3 {
		n *= h.NDimZ
	}
	return int(n)
}

// PayloadBytes returns the byte size of the payload the header announces.
func (h *Header) PayloadBytes() int64 {
	return int64(h.GridSize()) * h.NDatatyp
}

// Validate checks the structural fields a reader relies on.
func (h *Header) Validate() error {
	if h.Nself != HeaderBytes {
		return fmt.Errorf("%w: header size %d, want %d", ErrBadHeader, h.Nself, HeaderBytes)
	}
	if h.NDims < 1 || h.NDims > 3 {
		return fmt.Errorf("%w: %d dimensions", ErrBadHeader, h.NDims)
	}
	if h.NDimX < 1 || (h.NDims >= 2 && h.NDimY < 1) || (h.NDims >= 3 && h.NDimZ < 1) {
		return fmt.Errorf("%w: non-positive grid extent", ErrBadHeader)
	}
	return nil
}

// WriteTo encodes the header and its zero padding. It always writes exactly
// HeaderBytes bytes on success.
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}
	pad := make([]byte, HeaderBytes-encodedHeaderBytes)
	if _, err := w.Write(pad); err != nil {
		return encodedHeaderBytes, fmt.Errorf("write header padding: %w", err)
	}
	return HeaderBytes, nil
}

// ReadHeader decodes one header block, consuming exactly HeaderBytes bytes so
// the reader is positioned at the start of the payload.
func ReadHeader(r io.Reader) (*Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if _, err := io.CopyN(io.Discard, r, HeaderBytes-encodedHeaderBytes); err != nil {
		return nil, fmt.Errorf("read header padding: %w", err)
	}
	return &h, nil
}

// ReadHeaderFile reads just the header block of a snapshot file.
func ReadHeaderFile(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadHeader(f)
}
