package codec

import (
	"github.com/klauspost/compress/zstd"
)

// Zstd is a zstd-compressed JSON codec.
//
// Workspaces with many snapshots store each file's full content per
// snapshot; contents across snapshots are highly redundant, so zstd
// typically shrinks the persisted list by an order of magnitude.
type Zstd struct{}

// Marshal encodes the value to JSON and compresses it.
func (Zstd) Marshal(v any) ([]byte, error) {
	raw, err := (JSON{}).Marshal(v)
	if err != nil {
		return nil, err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	return enc.EncodeAll(raw, nil), nil
}

// Unmarshal decompresses the data and decodes the JSON into v.
func (Zstd) Unmarshal(data []byte, v any) error {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return err
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return err
	}

	return (JSON{}).Unmarshal(raw, v)
}

// Name returns the unique name of the codec ("zstd").
func (Zstd) Name() string { return "zstd" }
