package tray

import (
	"bytes"
	"encoding/binary"
	"math"
)

const iconSize = 16

// ringIcon renders a 16x16 32-bit ICO showing a ring
func ringIcon() []byte {
	const (
		pixelBytes = iconSize * iconSize * 4
		maskBytes  = iconSize * 4 // 1bpp rows padded to 32 bits
		dibHeader  = 40
		offset     = 6 + 16
	)

	var buf bytes.Buffer
	le := binary.LittleEndian

	// ICONDIR
	binary.Write(&buf, le, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.Write([]byte{iconSize, iconSize, 0, 0})
	binary.Write(&buf, le, [2]uint16{1, 32})
	binary.Write(&buf, le, [2]uint32{dibHeader + pixelBytes + maskBytes, offset})

	// BITMAPINFOHEADER, height doubled for the AND mask
	binary.Write(&buf, le, struct {
		Size, Width, Height    uint32
		Planes, BitCount       uint16
		Compression, ImageSize uint32
		XPPM, YPPM             uint32
		ClrUsed, ClrImportant  uint32
	}{
		Size: dibHeader, Width: iconSize, Height: iconSize * 2,
		Planes: 1, BitCount: 32, ImageSize: pixelBytes,
	})

	// BGRA pixels, bottom-up
	for y := iconSize - 1; y >= 0; y-- {
		for x := 0; x < iconSize; x++ {
			if onRing(x, y) {
				buf.Write([]byte{0xF0, 0x90, 0x20, 0xFF})
			} else {
				buf.Write([]byte{0, 0, 0, 0})
			}
		}
	}

	// AND mask all zero, alpha carries transparency
	buf.Write(make([]byte, maskBytes))
	return buf.Bytes()
}

func onRing(x, y int) bool {
	const c = float64(iconSize-1) / 2
	d := math.Hypot(float64(x)-c, float64(y)-c)
	return d >= 4.5 && d <= 7
}
