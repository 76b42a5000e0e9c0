package tokenizer

import (
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

// PieceType mirrors sentencepiece.ModelProto.SentencePiece.Type.
type PieceType int32

// Piece types.
const (
	Normal      PieceType = 1
	Unknown     PieceType = 2
	Control     PieceType = 3
	UserDefined PieceType = 4
	Unused      PieceType = 5
	Byte        PieceType = 6
)

// ModelType mirrors sentencepiece.TrainerSpec.ModelType.
type ModelType int32

// Model types.
const (
	Unigram ModelType = 1
	BPE     ModelType = 2
	Word    ModelType = 3
	Char    ModelType = 4
)

// Piece is a vocabulary entry.
type Piece struct {
	Piece string
	Score float32
	Type  PieceType
}

// Model holds the parts of a SentencePiece model the tokenizer uses.
type Model struct {
	Pieces         []Piece
	ModelType      ModelType
	NormalizerName string
	AddDummyPrefix bool
}

// ModelProto field numbers.
const (
	fieldPieces         protowire.Number = 1
	fieldTrainerSpec    protowire.Number = 2
	fieldNormalizerSpec protowire.Number = 3

	fieldPiece      protowire.Number = 1
	fieldPieceScore protowire.Number = 2
	fieldPieceType  protowire.Number = 3

	fieldModelType protowire.Number = 3

	fieldNormalizerName protowire.Number = 1
	fieldDummyPrefix    protowire.Number = 3
)

// LoadModel reads a SentencePiece .model file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	m, err := ParseModel(data)
	if err != nil {
		return nil, fmt.Errorf("parsing protobuf: %w", err)
	}
	return m, nil
}

// ParseModel decodes a serialized ModelProto. Unknown fields are skipped.
func ParseModel(data []byte) (*Model, error) {
	m := &Model{ModelType: Unigram, AddDummyPrefix: true}
	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldPieces && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			p, err := parsePiece(v)
			if err != nil {
				return 0, fmt.Errorf("piece %d: %w", len(m.Pieces), err)
			}
			m.Pieces = append(m.Pieces, p)
			return n, nil
		case num == fieldTrainerSpec && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			return n, walk(v, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				if num == fieldModelType && typ == protowire.VarintType {
					x, n := protowire.ConsumeVarint(b)
					m.ModelType = ModelType(x)
					return n, nil
				}
				return protowire.ConsumeFieldValue(num, typ, b), nil
			})
		case num == fieldNormalizerSpec && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			return n, walk(v, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
				switch {
				case num == fieldNormalizerName && typ == protowire.BytesType:
					s, n := protowire.ConsumeString(b)
					m.NormalizerName = s
					return n, nil
				case num == fieldDummyPrefix && typ == protowire.VarintType:
					x, n := protowire.ConsumeVarint(b)
					m.AddDummyPrefix = protowire.DecodeBool(x)
					return n, nil
				}
				return protowire.ConsumeFieldValue(num, typ, b), nil
			})
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, err
	}
	if len(m.Pieces) == 0 {
		return nil, fmt.Errorf("model has no pieces")
	}
	return m, nil
}

func parsePiece(data []byte) (Piece, error) {
	p := Piece{Type: Normal}
	err := walk(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldPiece && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			p.Piece = s
			return n, nil
		case num == fieldPieceScore && typ == protowire.Fixed32Type:
			x, n := protowire.ConsumeFixed32(b)
			p.Score = math.Float32frombits(x)
			return n, nil
		case num == fieldPieceType && typ == protowire.VarintType:
			x, n := protowire.ConsumeVarint(b)
			p.Type = PieceType(x)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return p, err
}

// walk calls field for every field in a message. field returns the number
// of bytes it consumed, negative on a wire error.
func walk(data []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]

		m, err := field(num, typ, data)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		data = data[m:]
	}
	return nil
}
