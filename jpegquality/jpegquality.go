// Package jpegquality estimates the libjpeg quality setting used to encode a
// JPEG stream by comparing its quantization tables against the reference
// tables from Annex K of the JPEG specification.
package jpegquality

import (
	"bytes"
	"errors"
	"io"
)

var (
	ErrInvalidJPEG  = errors.New("invalid JPEG header")
	ErrWrongTable   = errors.New("wrong size for quantization table")
	ErrShortSegment = errors.New("short segment length")
	ErrShortDQT     = errors.New("section DQT is too short")
)

const (
	markerSOI = 0xffd8
	markerEOI = 0xffd9
	markerSOS = 0xffda
	markerDQT = 0xffdb
)

// Annex K reference tables. Scanning order is irrelevant, only the mean scale
// factor over all 64 coefficients is used.
var deftabs = [2][64]int{
	{
		16, 11, 10, 16, 24, 40, 51, 61,
		12, 12, 14, 19, 26, 58, 60, 55,
		14, 13, 16, 24, 40, 57, 69, 56,
		14, 17, 22, 29, 51, 87, 80, 62,
		18, 22, 37, 56, 68, 109, 103, 77,
		24, 35, 55, 64, 81, 104, 113, 92,
		49, 64, 78, 87, 103, 121, 120, 101,
		72, 92, 95, 98, 112, 100, 103, 99,
	},
	{
		17, 18, 24, 47, 99, 99, 99, 99,
		18, 21, 26, 66, 99, 99, 99, 99,
		24, 26, 56, 99, 99, 99, 99, 99,
		47, 66, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
	},
}

type jpegReader struct {
	rs      io.ReadSeeker
	quality int
}

// New reads a JPEG stream from rs and estimates its encoding quality. The
// reader is rewound first, so the same source can be inspected repeatedly.
func New(rs io.ReadSeeker) (*jpegReader, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	sign := make([]byte, 2)
	if _, err := io.ReadFull(rs, sign); err != nil {
		return nil, err
	}
	if sign[0] != 0xff || sign[1] != 0xd8 {
		return nil, ErrInvalidJPEG
	}
	jr := &jpegReader{rs: rs}
	q, err := jr.readQuality()
	if err != nil {
		return nil, err
	}
	jr.quality = q
	return jr, nil
}

// NewWithBytes estimates encoding quality of an in-memory JPEG image.
func NewWithBytes(data []byte) (*jpegReader, error) {
	return New(bytes.NewReader(data))
}

// Quality returns the estimated encoding quality on the usual 1 to 100 scale.
func (jr *jpegReader) Quality() int {
	return jr.quality
}

// readMarker returns the next segment marker or 0 when the stream ends before
// one is found. Bytes between markers are skipped pairwise.
func (jr *jpegReader) readMarker() int {
	buf := make([]byte, 2)
	for {
		if _, err := io.ReadFull(jr.rs, buf); err != nil {
			return 0
		}
		if buf[0] == 0xff && buf[1] != 0xff && buf[1] != 0x00 {
			return int(buf[0])<<8 | int(buf[1])
		}
	}
}

func (jr *jpegReader) readLength() int {
	buf := make([]byte, 2)
	if _, err := io.ReadFull(jr.rs, buf); err != nil {
		return 0
	}
	return int(buf[0])<<8 | int(buf[1])
}

func (jr *jpegReader) readQuality() (int, error) {
	for {
		mark := jr.readMarker()
		if mark == 0 {
			return 0, ErrInvalidJPEG
		}
		if mark == markerSOS || mark == markerEOI {
			// mandatory tables never showed up
			return 0, ErrInvalidJPEG
		}
		length := jr.readLength() - 2
		if length < 0 {
			return 0, ErrShortSegment
		}
		if mark != markerDQT {
			if _, err := jr.rs.Seek(int64(length), io.SeekCurrent); err != nil {
				return 0, ErrShortSegment
			}
			continue
		}
		return jr.readDQT(length)
	}
}

// readDQT recovers quality from the first quantization table that has a
// reference counterpart. The scale factor recovered from the table mean is
// mapped back onto the quality scale the same way libjpeg derives it.
func (jr *jpegReader) readDQT(length int) (int, error) {
	if length < 65 {
		return 0, ErrShortDQT
	}
	tab := make([]byte, length)
	if _, err := io.ReadFull(jr.rs, tab); err != nil {
		return 0, ErrShortDQT
	}

	for a := 0; a < len(tab); {
		precision := int(tab[a] >> 4)
		index := int(tab[a] & 0x0f)
		a++

		coefBytes := 64
		if precision != 0 {
			coefBytes *= 2
		}
		if a+coefBytes > len(tab) {
			return 0, ErrWrongTable
		}
		if index >= len(deftabs) {
			a += coefBytes
			continue
		}

		var cumsf float64
		allones := true
		for i := range 64 {
			var val int
			if precision != 0 {
				val = int(tab[a])<<8 | int(tab[a+1])
				a += 2
			} else {
				val = int(tab[a])
				a++
			}
			if val != 1 {
				allones = false
			}
			cumsf += 100.0 * float64(val) / float64(deftabs[index][i])
		}
		cumsf /= 64.0

		switch {
		case allones:
			return 100, nil
		case cumsf <= 100.0:
			return int((200.0-cumsf)/2.0 + 0.5), nil
		default:
			return int(5000.0/cumsf + 0.5), nil
		}
	}
	return 0, ErrShortDQT
}
