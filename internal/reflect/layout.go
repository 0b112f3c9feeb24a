package reflect

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/elhewaty/circt/internal/types"
)

// ComputeLayout assigns bit positions to every ground leaf of t, the
// way hardware lowering packs an aggregate into a single word: within a
// bundle the first field occupies the highest bits, within a vector
// element zero occupies the lowest. Orientation is ignored, so flipped
// fields pack like any other. Enums stay opaque because their variant
// payloads overlay each other.
func ComputeLayout(t types.BaseType) (*Layout, error) {
	total, known := types.BitWidth(t, true)
	if !known {
		return nil, errors.Errorf("cannot compute a layout for %s: width not inferred", t)
	}

	layout := &Layout{Bits: total}
	placeBits(layout, t, "", 0, 0)

	// Rows come out in packing order; present them in preorder.
	slices.SortFunc(layout.Fields, func(a, b FieldBits) int {
		switch {
		case a.FieldID < b.FieldID:
			return -1
		case a.FieldID > b.FieldID:
			return 1
		}
		return 0
	})
	return layout, nil
}

// placeBits records the rows for t at the given offset and returns the
// number of bits consumed.
func placeBits(layout *Layout, t types.BaseType, path string, fieldID uint64, offset int64) int64 {
	switch u := types.Under(t).(type) {
	case *types.Bundle:
		// The first field packs into the highest bits, so the running
		// offset climbs from the last field back to the first.
		consumed := int64(0)
		for i := u.NumElements() - 1; i >= 0; i-- {
			elt := u.Element(i)
			consumed += placeBits(layout, elt.Type, layoutPath(path, elt.Name), fieldID+u.FieldID(i), offset+consumed)
		}
		return consumed

	case *types.Vector:
		consumed := int64(0)
		for i := 0; i < u.Len(); i++ {
			elemPath := fmt.Sprintf("%s[%d]", path, i)
			consumed += placeBits(layout, u.ElementType(), elemPath, fieldID+u.FieldID(i), offset+consumed)
		}
		return consumed

	default:
		bits, _ := types.BitWidth(t, true)
		layout.Fields = append(layout.Fields, FieldBits{
			Path:    path,
			FieldID: fieldID,
			Offset:  offset,
			Bits:    bits,
			Type:    t.String(),
		})
		return bits
	}
}

func layoutPath(base, name string) string {
	if !types.IsValidIdentifier(name) {
		name = strconv.Quote(name)
	}
	if base == "" {
		return name
	}
	return base + "." + name
}
