package audio

import "time"

const (
	// DefaultSampleRate matches the realtime transport's pcm16 audio.
	DefaultSampleRate = 24000
	DefaultFormat     = "linear16"
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: EncodingLinear16}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	}
	return 0
}

// BytesFor returns the size of mono audio of duration d, or 0 for unknown
// formats.
func (e EncodingInfo) BytesFor(d time.Duration) int {
	size := e.Format.ByteSize()
	if size <= 0 || e.SampleRate <= 0 {
		return 0
	}
	return int(int64(d)*int64(e.SampleRate)/int64(time.Second)) * size
}

// Silence returns a mono buffer of silence lasting d.
func (e EncodingInfo) Silence(d time.Duration) []byte {
	buf := make([]byte, e.BytesFor(d))
	if value := e.SilenceValue(); value != 0 {
		for i := range buf {
			buf[i] = value
		}
	}
	return buf
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

// WireName is the name realtime speech services use for the format.
func (e encodingFormat) WireName() string {
	switch e {
	case EncodingLinear16:
		return "pcm16"
	case EncodingMulaw:
		return "g711_ulaw"
	case EncodingALaw:
		return "g711_alaw"
	}
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)

// ParseFormat maps a format name to a known encoding. Unknown names keep
// their value so IsZero and ByteSize report them as unusable.
func ParseFormat(name string) encodingFormat {
	switch name {
	case "pcm16", "linear16", "":
		return EncodingLinear16
	case "mulaw", "g711_ulaw":
		return EncodingMulaw
	case "alaw", "g711_alaw":
		return EncodingALaw
	}
	return encodingFormat(name)
}
