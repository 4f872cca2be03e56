package snapshot

import (
	"fmt"
	"io"
	"math"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-yaml"
	"github.com/vmihailenco/msgpack/v5"
)

// Format selects an export encoding.
type Format uint8

const (
	FormatCBOR Format = iota
	FormatMsgpack
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatCBOR:
		return "cbor"
	case FormatMsgpack:
		return "msgpack"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", f)
	}
}

func ParseFormat(s string) (Format, error) {
	switch s {
	case "cbor":
		return FormatCBOR, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("unknown snapshot format %q (want cbor, msgpack or yaml)", s)
}

// cborEncMode uses deterministic encoding so equal snapshots produce
// equal bytes.
var cborEncMode = func() cbor.EncMode {
	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return encMode
}()

var cborDecMode = func() cbor.DecMode {
	decMode, err := cbor.DecOptions{
		IndefLength:      cbor.IndefLengthForbidden,
		MaxArrayElements: 1 << 24,
		MaxMapPairs:      1 << 24,
		MaxNestedLevels:  math.MaxInt16,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return decMode
}()

// Encode writes s to w.
func Encode(w io.Writer, s *Snapshot, format Format) error {
	switch format {
	case FormatCBOR:
		return cborEncMode.NewEncoder(w).Encode(s)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(s)
	case FormatYAML:
		data, err := yaml.Marshal(s)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("encode snapshot: unsupported format %s", format)
}

// Decode reads a snapshot written by Encode with the same format.
func Decode(r io.Reader, format Format) (*Snapshot, error) {
	var s Snapshot
	var err error
	switch format {
	case FormatCBOR:
		err = cborDecMode.NewDecoder(r).Decode(&s)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&s)
	case FormatYAML:
		var data []byte
		data, err = io.ReadAll(r)
		if err == nil {
			err = yaml.Unmarshal(data, &s)
		}
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Schema != SchemaVersion {
		return nil, fmt.Errorf("decode snapshot: schema %d, want %d", s.Schema, SchemaVersion)
	}
	return &s, nil
}
