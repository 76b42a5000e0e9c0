package tokenizer

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

type testPiece struct {
	text  string
	score float32
	typ   PieceType
}

// buildModel serializes a minimal unigram ModelProto.
func buildModel(pieces []testPiece) []byte {
	var out []byte
	for _, p := range pieces {
		var msg []byte
		msg = protowire.AppendTag(msg, fieldPiece, protowire.BytesType)
		msg = protowire.AppendString(msg, p.text)
		msg = protowire.AppendTag(msg, fieldPieceScore, protowire.Fixed32Type)
		msg = protowire.AppendFixed32(msg, math.Float32bits(p.score))
		msg = protowire.AppendTag(msg, fieldPieceType, protowire.VarintType)
		msg = protowire.AppendVarint(msg, uint64(p.typ))

		out = protowire.AppendTag(out, fieldPieces, protowire.BytesType)
		out = protowire.AppendBytes(out, msg)
	}

	var trainer []byte
	trainer = protowire.AppendTag(trainer, fieldModelType, protowire.VarintType)
	trainer = protowire.AppendVarint(trainer, uint64(Unigram))
	out = protowire.AppendTag(out, fieldTrainerSpec, protowire.BytesType)
	out = protowire.AppendBytes(out, trainer)

	var norm []byte
	norm = protowire.AppendTag(norm, fieldNormalizerName, protowire.BytesType)
	norm = protowire.AppendString(norm, "nmt_nfkc")
	out = protowire.AppendTag(out, fieldNormalizerSpec, protowire.BytesType)
	out = protowire.AppendBytes(out, norm)

	return out
}

func testPieces() []testPiece {
	return []testPiece{
		{"<unk>", 0, Unknown},
		{"<s>", 0, Control},
		{"</s>", 0, Control},
		{"▁", -3, Normal},
		{"▁play", -2, Normal},
		{"▁jazz", -2, Normal},
		{"▁ja", -4, Normal},
		{"zz", -4, Normal},
		{".", -1, Normal},
		{"p", -6, Normal},
		{"l", -6, Normal},
		{"a", -6, Normal},
		{"y", -6, Normal},
	}
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel(buildModel(testPieces()))
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}

	if len(m.Pieces) != 13 {
		t.Errorf("expected 13 pieces, got %d", len(m.Pieces))
	}
	if m.Pieces[0].Piece != "<unk>" || m.Pieces[0].Type != Unknown {
		t.Errorf("unexpected piece[0]: %+v", m.Pieces[0])
	}
	if m.Pieces[4].Score != -2 {
		t.Errorf("expected piece[4] score -2, got %v", m.Pieces[4].Score)
	}
	if m.ModelType != Unigram {
		t.Errorf("expected UNIGRAM model type, got %v", m.ModelType)
	}
	if m.NormalizerName != "nmt_nfkc" {
		t.Errorf("expected normalizer nmt_nfkc, got %q", m.NormalizerName)
	}
	if !m.AddDummyPrefix {
		t.Error("expected add_dummy_prefix to default to true")
	}
}

func TestParseModel_Invalid(t *testing.T) {
	if _, err := ParseModel([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Error("expected error for invalid protobuf data")
	}
	if _, err := ParseModel(nil); err == nil {
		t.Error("expected error for model without pieces")
	}
}

func TestLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.model")
	if err := os.WriteFile(path, buildModel(testPieces()), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := LoadModel(path)
	if err != nil {
		t.Fatalf("LoadModel failed: %v", err)
	}
	if len(m.Pieces) != 13 {
		t.Errorf("expected 13 pieces, got %d", len(m.Pieces))
	}

	if _, err := LoadModel(filepath.Join(t.TempDir(), "missing.model")); err == nil {
		t.Error("expected error for non-existent file")
	}
}
