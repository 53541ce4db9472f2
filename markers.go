package jpegdoc

import (
	"fmt"
)

const (
	TEM  = 0x01
	SOF0 = 0xC0 // SOFn = SOF0+n, n = 0-15 excluding 4, 8 and 12
	DHT  = 0xC4
	JPG  = 0xC8
	DAC  = 0xCC
	RST0 = 0xD0 // RSTn = RST0+n, n = 0-7
	SOI  = 0xD8
	EOI  = 0xD9
	SOS  = 0xDA
	DQT  = 0xDB
	DNL  = 0xDC
	DRI  = 0xDD
	DHP  = 0xDE
	EXP  = 0xDF
	APP0 = 0xE0 // APPn = APP0+n, n = 0-15
	JPG0 = 0xF0 // JPGn = JPG0+n  n = 0-13
	COM  = 0xFE
)

// Marker represents the second byte of a JPEG marker, which usually
// indicates the start of a segment.
type Marker uint8

var markerNames [256]string

// Initialize markerNames
func init() {
	markerNames[0] = "NUL"
	markerNames[TEM] = "TEM"
	markerNames[DHT] = "DHT"
	markerNames[JPG] = "JPG"
	markerNames[DAC] = "DAC"
	markerNames[SOI] = "SOI"
	markerNames[EOI] = "EOI"
	markerNames[SOS] = "SOS"
	markerNames[DQT] = "DQT"
	markerNames[DNL] = "DNL"
	markerNames[DRI] = "DRI"
	markerNames[DHP] = "DHP"
	markerNames[EXP] = "EXP"
	markerNames[COM] = "COM"
	markerNames[0xFF] = "FILL"

	var i Marker
	for i = 0x02; i <= 0xBF; i++ {
		markerNames[i] = fmt.Sprintf("RES%.2X", i) // Reserved
	}
	for i = SOF0; i <= SOF0+0xF; i++ {
		if i == SOF0+4 || i == SOF0+8 || i == SOF0+12 {
			continue
		}
		markerNames[i] = fmt.Sprintf("SOF%d", i-SOF0)
	}
	for i = RST0; i <= RST0+7; i++ {
		markerNames[i] = fmt.Sprintf("RST%d", i-RST0)
	}
	for i = APP0; i <= APP0+0xF; i++ {
		markerNames[i] = fmt.Sprintf("APP%d", i-APP0)
	}
	for i = JPG0; i <= JPG0+0xD; i++ {
		markerNames[i] = fmt.Sprintf("JPG%d", i-JPG0)
	}
}

// Name returns the name of a marker value.
func (m Marker) Name() string {
	return markerNames[m]
}

func (m Marker) String() string {
	return m.Name()
}

// IsSOF reports whether m starts a frame header.
func (m Marker) IsSOF() bool {
	return m >= SOF0 && m <= SOF0+0xF && m != DHT && m != JPG && m != DAC
}

// IsRST reports whether m is one of the eight restart markers.
func (m Marker) IsRST() bool {
	return m >= RST0 && m <= RST0+7
}

// IsAPP reports whether m is an application segment marker.
func (m Marker) IsAPP() bool {
	return m >= APP0 && m <= APP0+0xF
}

// IsJPGn reports whether m is one of the JPEG extension markers JPG0-JPG13.
func (m Marker) IsJPGn() bool {
	return m >= JPG0 && m <= JPG0+0xD
}

// IsTableOrMisc reports whether m introduces one of the segments that may
// appear before a frame or scan header: tables, restart interval,
// comments and application data.
func (m Marker) IsTableOrMisc() bool {
	switch m {
	case DQT, DHT, DAC, DRI, COM:
		return true
	}
	return m.IsAPP()
}

// HasLength reports whether m is followed by a length field. SOI, EOI,
// RSTn and TEM stand alone.
func (m Marker) HasLength() bool {
	return !(m == SOI || m == EOI || m == TEM || m.IsRST())
}

// IsJPEGHeader reports whether buf starts with an SOI marker, possibly
// after fill bytes.
func IsJPEGHeader(buf []byte) bool {
	i := 0
	for i+2 < len(buf) && buf[i] == 0xFF && buf[i+1] == 0xFF {
		i++
	}
	return i+1 < len(buf) && buf[i] == 0xFF && buf[i+1] == SOI
}
