package x86levels

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	gnuPropertySection = ".note.gnu.property"
	gnuNoteName        = "GNU\x00"

	ntGNUPropertyType0 = 5

	// GNU_PROPERTY_X86_ISA_1_NEEDED
	gnuPropertyX86ISA1Needed = 0xc0008002

	// GNU_PROPERTY_X86_ISA_1_{BASELINE,V2,V3,V4}
	isaLevelMask = 0xf
)

// FromELF returns the levels an x86-64 ELF binary declares as needed through
// its GNU_PROPERTY_X86_ISA_1_NEEDED property.
//
// Contract:
//   - output is in canonical level order
//   - a binary without a property note needs no level (empty result)
//   - non-x86-64 objects and unknown ISA bits fail closed with an error
//
// Returned levels are directly consumable by [Check].
func FromELF(path string) ([]Level, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("from ELF: empty path")
	}

	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("from ELF %q: %w", path, err)
	}
	defer f.Close()

	if f.Machine != elf.EM_X86_64 {
		return nil, fmt.Errorf("from ELF %q: machine %s is not x86-64", path, f.Machine)
	}

	sec := f.Section(gnuPropertySection)
	if sec == nil {
		return nil, nil
	}
	data, err := sec.Data()
	if err != nil {
		return nil, fmt.Errorf("from ELF %q: read %s: %w", path, gnuPropertySection, err)
	}

	levels, err := levelsFromPropertyNotes(data, f.ByteOrder, f.Class)
	if err != nil {
		return nil, fmt.Errorf("from ELF %q: %w", path, err)
	}
	return levels, nil
}

// levelsFromPropertyNotes decodes the contents of a .note.gnu.property
// section and returns the levels named by the ISA_1_NEEDED bits.
func levelsFromPropertyNotes(data []byte, order binary.ByteOrder, class elf.Class) ([]Level, error) {
	align := 4
	if class == elf.ELFCLASS64 {
		align = 8
	}

	var needed uint32
	for off := 0; off < len(data); {
		if len(data)-off < 12 {
			return nil, fmt.Errorf("truncated note header at offset %d", off)
		}
		namesz := int(order.Uint32(data[off:]))
		descsz := int(order.Uint32(data[off+4:]))
		typ := order.Uint32(data[off+8:])

		nameOff := off + 12
		descOff := alignUp(nameOff+namesz, align)
		descEnd := descOff + descsz
		if namesz < 0 || descsz < 0 || descEnd > len(data) {
			return nil, fmt.Errorf("truncated note at offset %d", off)
		}

		if typ == ntGNUPropertyType0 && string(data[nameOff:nameOff+namesz]) == gnuNoteName {
			bits, err := isaNeededFromProperties(data[descOff:descEnd], order, align)
			if err != nil {
				return nil, err
			}
			needed |= bits
		}

		off = alignUp(descEnd, align)
	}

	if unknown := needed &^ isaLevelMask; unknown != 0 {
		return nil, fmt.Errorf("unknown x86 ISA level bits %#x", unknown)
	}

	var levels []Level
	for i, l := range LevelValues() {
		if needed&(1<<i) != 0 {
			levels = append(levels, l)
		}
	}
	return levels, nil
}

func isaNeededFromProperties(desc []byte, order binary.ByteOrder, align int) (uint32, error) {
	var needed uint32
	for p := 0; p < len(desc); {
		if len(desc)-p < 8 {
			return 0, fmt.Errorf("truncated property header at offset %d", p)
		}
		prType := order.Uint32(desc[p:])
		prDatasz := int(order.Uint32(desc[p+4:]))
		dataOff := p + 8
		if prDatasz < 0 || dataOff+prDatasz > len(desc) {
			return 0, fmt.Errorf("truncated property %#x", prType)
		}

		if prType == gnuPropertyX86ISA1Needed {
			if prDatasz != 4 {
				return 0, fmt.Errorf("property %#x: unexpected size %d", prType, prDatasz)
			}
			needed |= order.Uint32(desc[dataOff:])
		}

		p = alignUp(dataOff+prDatasz, align)
	}
	return needed, nil
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
