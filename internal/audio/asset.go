package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Asset is a named sound source loaded at decode time.
type Asset struct {
	// Name carries the file extension used to pick a player
	Name string
	Load func() ([]byte, error)
}

// FileAsset reads the sound from path.
func FileAsset(path string) Asset {
	return Asset{
		Name: filepath.Base(path),
		Load: func() ([]byte, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading sound file: %w", err)
			}
			return data, nil
		},
	}
}

// ChimeAsset is the built-in two-note chime.
func ChimeAsset() Asset {
	return Asset{
		Name: "chime.wav",
		Load: func() ([]byte, error) { return Chime(), nil },
	}
}

// Chime sample format.
const (
	ChimeSampleRate = 22050
	chimeNote       = 180 // milliseconds per note
)

// chimeNotes are E5 and A5.
var chimeNotes = []float64{659.25, 880.0}

// Chime renders the default chime as 16-bit mono PCM WAV.
func Chime() []byte {
	perNote := ChimeSampleRate * chimeNote / 1000
	samples := make([]int16, 0, perNote*len(chimeNotes))
	for _, freq := range chimeNotes {
		for i := 0; i < perNote; i++ {
			t := float64(i) / ChimeSampleRate
			// Linear decay keeps each note from clicking at the boundary
			env := 1 - float64(i)/float64(perNote)
			v := math.Sin(2*math.Pi*freq*t) * env * 0.6
			samples = append(samples, int16(v*math.MaxInt16))
		}
	}
	return encodeWAV(samples, ChimeSampleRate)
}

func encodeWAV(samples []int16, rate int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	dataLen := len(samples) * 2
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+dataLen))
	b.WriteString("WAVE")
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, uint16(channels))
	binary.Write(&b, binary.LittleEndian, uint32(rate))
	binary.Write(&b, binary.LittleEndian, uint32(rate*channels*bitsPerSample/8))
	binary.Write(&b, binary.LittleEndian, uint16(channels*bitsPerSample/8))
	binary.Write(&b, binary.LittleEndian, uint16(bitsPerSample))
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(dataLen))
	binary.Write(&b, binary.LittleEndian, samples)
	return b.Bytes()
}

// wavInfo is the part of a WAV header needed to time playback.
type wavInfo struct {
	SampleRate  uint32
	ByteRate    uint32
	DataLen     uint32
	Channels    uint16
	BitsPerSamp uint16
}

// parseWAV reads the RIFF chunks of a WAV file.
func parseWAV(data []byte) (wavInfo, error) {
	var info wavInfo
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return info, fmt.Errorf("not a RIFF/WAVE file")
	}

	var haveFmt, haveData bool
	for off := 12; off+8 <= len(data); {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) && id != "data" {
			return info, fmt.Errorf("truncated %q chunk", id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return info, fmt.Errorf("short fmt chunk")
			}
			info.Channels = binary.LittleEndian.Uint16(data[body+2:])
			info.SampleRate = binary.LittleEndian.Uint32(data[body+4:])
			info.ByteRate = binary.LittleEndian.Uint32(data[body+8:])
			info.BitsPerSamp = binary.LittleEndian.Uint16(data[body+14:])
			haveFmt = true
		case "data":
			info.DataLen = uint32(min(size, len(data)-body))
			haveData = true
		}
		off = body + size + size%2
	}

	if !haveFmt || !haveData {
		return info, fmt.Errorf("missing fmt or data chunk")
	}
	if info.ByteRate == 0 {
		return info, fmt.Errorf("zero byte rate")
	}
	return info, nil
}
