// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tiling converts pixel data between linear (row-major, fixed
// pitch) buffers and the Y-tiled layout used by decode surfaces.
//
// A Y tile is a 4096-byte block covering 128 bytes by 32 rows, stored as
// 8 column-major strips of 16 bytes by 32 rows. Some memory-interleave
// configurations additionally scramble physical addresses; Swizzle
// replicates that scrambling so a software copy lands on the same bytes
// the hardware reads.
package tiling

// Y tile geometry. Fixed by the hardware layout, not configurable.
const (
	TileWidth  = 128 // bytes per tile row
	TileHeight = 32  // rows per tile
	TileSize   = TileWidth * TileHeight

	stripWidth = 16
	stripSize  = stripWidth * TileHeight
)

// Swizzle selects the address-bit scrambling applied inside each tile.
type Swizzle int

const (
	// SwizzleNone leaves intra-tile offsets unchanged.
	SwizzleNone Swizzle = iota
	// SwizzleBit9 XORs bit 6 of the intra-tile offset with bit 9.
	SwizzleBit9
	// SwizzleBit9Bit10 XORs bit 6 with the XOR of bits 9 and 10.
	SwizzleBit9Bit10
)

var swizzleNames = [...]string{"none", "bit9", "bit9^10"}

func (s Swizzle) String() string {
	if s < 0 || int(s) >= len(swizzleNames) {
		return "unknown"
	}
	return swizzleNames[s]
}

// Apply scrambles one intra-tile offset. It is its own inverse: applying
// the same swizzle twice yields the original offset.
func (s Swizzle) Apply(off int) int {
	switch s {
	case SwizzleBit9:
		return off ^ ((off >> 3) & 0x40)
	case SwizzleBit9Bit10:
		return off ^ ((off >> 3) & 0x40) ^ ((off >> 4) & 0x40)
	default:
		return off
	}
}

// TilesPerRow returns the number of tiles covering a row of widthBytes.
func TilesPerRow(widthBytes int) int {
	return (widthBytes + TileWidth - 1) / TileWidth
}

// TiledSize returns the byte size of a tiled buffer holding height rows
// at tilesPerRow tiles each.
func TiledSize(height, tilesPerRow int) int {
	tileRows := (height + TileHeight - 1) / TileHeight
	return tileRows * tilesPerRow * TileSize
}

// tiledOffset maps a destination coordinate (x in bytes, y in rows) to
// its byte offset in the tiled buffer.
func tiledOffset(x, y, tilesPerRow int, sw Swizzle) int {
	tileRow := y / TileHeight
	tileCol := x / TileWidth
	strip := (x % TileWidth) / stripWidth
	intraRow := y % TileHeight
	byteInStrip := x % stripWidth

	tileBase := tileRow*(tilesPerRow*TileSize) + tileCol*TileSize
	intra := strip*stripSize + intraRow*stripWidth + byteInStrip
	return tileBase + sw.Apply(intra)
}

// LinearToTiled copies a widthBytes x height rectangle from a linear
// buffer with row pitch srcPitch into a Y-tiled buffer laid out as
// tilesPerRow tiles per tile row. dst must hold at least
// TiledSize(height, tilesPerRow) bytes.
func LinearToTiled(dst, src []byte, widthBytes, height, srcPitch, tilesPerRow int, sw Swizzle) {
	if sw == SwizzleNone {
		linearToTiledFast(dst, src, widthBytes, height, srcPitch, tilesPerRow)
		return
	}
	for y := 0; y < height; y++ {
		row := src[y*srcPitch:]
		for x := 0; x < widthBytes; x++ {
			dst[tiledOffset(x, y, tilesPerRow, sw)] = row[x]
		}
	}
}

// TiledToLinear is the inverse of LinearToTiled: it copies from a
// Y-tiled buffer into a linear buffer with row pitch dstPitch.
func TiledToLinear(dst, src []byte, widthBytes, height, dstPitch, tilesPerRow int, sw Swizzle) {
	if sw == SwizzleNone {
		tiledToLinearFast(dst, src, widthBytes, height, dstPitch, tilesPerRow)
		return
	}
	for y := 0; y < height; y++ {
		row := dst[y*dstPitch:]
		for x := 0; x < widthBytes; x++ {
			row[x] = src[tiledOffset(x, y, tilesPerRow, sw)]
		}
	}
}

// linearToTiledFast copies 16-byte strips at a time. Without a swizzle
// the bytes of one strip row are contiguous in the tile, so the inner
// loop collapses to a copy.
func linearToTiledFast(dst, src []byte, widthBytes, height, srcPitch, tilesPerRow int) {
	for y := 0; y < height; y++ {
		row := src[y*srcPitch : y*srcPitch+widthBytes]
		for x := 0; x < widthBytes; x += stripWidth {
			n := stripWidth
			if widthBytes-x < n {
				n = widthBytes - x
			}
			off := tiledOffset(x, y, tilesPerRow, SwizzleNone)
			copy(dst[off:off+n], row[x:x+n])
		}
	}
}

func tiledToLinearFast(dst, src []byte, widthBytes, height, dstPitch, tilesPerRow int) {
	for y := 0; y < height; y++ {
		row := dst[y*dstPitch:]
		for x := 0; x < widthBytes; x += stripWidth {
			n := stripWidth
			if widthBytes-x < n {
				n = widthBytes - x
			}
			off := tiledOffset(x, y, tilesPerRow, SwizzleNone)
			copy(row[x:x+n], src[off:off+n])
		}
	}
}

// CopyPlane copies a widthBytes x height rectangle between two linear
// buffers with independent row pitches. Used when source and destination
// share the same layout and only the pitch differs.
func CopyPlane(dst, src []byte, widthBytes, height, dstPitch, srcPitch int) {
	for y := 0; y < height; y++ {
		copy(dst[y*dstPitch:y*dstPitch+widthBytes], src[y*srcPitch:y*srcPitch+widthBytes])
	}
}
