package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/wricardo/tileview/game/atlas"
	"github.com/wricardo/tileview/game/engine"
)

// Atlas layout of the demo sheet.
const (
	atlasColumns = 4
	atlasRows    = 2
)

// Tile indices, as (col,row) = index%atlasColumns, index/atlasColumns.
const (
	tGrass = iota
	tToken
	tWater
	tSand
	tBrick
	tDirt
	tFlowers
	tRock
)

var (
	grassLight = color.NRGBA{0x6a, 0xbe, 0x30, 0xff}
	grassDark  = color.NRGBA{0x4b, 0x8f, 0x22, 0xff}
	water      = color.NRGBA{0x2f, 0x6f, 0xd0, 0xff}
	foam       = color.NRGBA{0x8f, 0xc4, 0xf5, 0xff}
	sand       = color.NRGBA{0xe8, 0xd2, 0x8c, 0xff}
	brick      = color.NRGBA{0xa0, 0x40, 0x30, 0xff}
	mortar     = color.NRGBA{0xc8, 0xc0, 0xb0, 0xff}
	dirt       = color.NRGBA{0x7a, 0x55, 0x30, 0xff}
	petal      = color.NRGBA{0xf0, 0xe0, 0x40, 0xff}
	rock       = color.NRGBA{0x80, 0x80, 0x88, 0xff}
	tokenBody  = color.NRGBA{0xd0, 0x20, 0x20, 0xff}
	tokenEdge  = color.NRGBA{0x50, 0x08, 0x08, 0xff}
)

// generateAtlas draws the demo tile sheet. Tile (0,0) is grass, the default
// background; tile (1,0) is a round token on the default color key.
func generateAtlas(cellSize int) (*image.NRGBA, error) {
	if cellSize < 4 || cellSize > engine.MaxFrameSize/atlasColumns {
		return nil, fmt.Errorf("cell size %d out of range [4, %d]", cellSize, engine.MaxFrameSize/atlasColumns)
	}
	key, err := atlas.ParseColor(engine.DefaultColorKey)
	if err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, atlasColumns*cellSize, atlasRows*cellSize))
	for i := 0; i < atlasColumns*atlasRows; i++ {
		x, y := (i%atlasColumns)*cellSize, (i/atlasColumns)*cellSize
		cell := img.SubImage(image.Rect(x, y, x+cellSize, y+cellSize)).(*image.NRGBA)
		drawTile(cell, i, cellSize, key)
	}
	return img, nil
}

func drawTile(cell *image.NRGBA, tile, size int, key color.NRGBA) {
	b := cell.Bounds()
	unit := max(size/10, 1)

	fill := func(c color.Color) {
		draw.Draw(cell, b, &image.Uniform{c}, image.Point{}, draw.Src)
	}
	// each paints the pixels where pick returns a color
	each := func(pick func(dx, dy int) (color.Color, bool)) {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if c, ok := pick(x-b.Min.X, y-b.Min.Y); ok {
					cell.Set(x, y, c)
				}
			}
		}
	}

	switch tile {
	case tGrass:
		each(func(dx, dy int) (color.Color, bool) {
			if (dx/unit+dy/unit)%2 == 0 {
				return grassLight, true
			}
			return grassDark, true
		})
	case tToken:
		fill(key)
		r := float64(size)*0.4 - 0.5
		c := float64(size-1) / 2
		each(func(dx, dy int) (color.Color, bool) {
			d := (float64(dx)-c)*(float64(dx)-c) + (float64(dy)-c)*(float64(dy)-c)
			switch {
			case d <= (r-float64(unit))*(r-float64(unit)):
				return tokenBody, true
			case d <= r*r:
				return tokenEdge, true
			}
			return nil, false
		})
	case tWater:
		fill(water)
		each(func(dx, dy int) (color.Color, bool) {
			return foam, dy%(unit*3) == 0 && (dx/unit)%3 != 0
		})
	case tSand:
		fill(sand)
	case tBrick:
		fill(brick)
		each(func(dx, dy int) (color.Color, bool) {
			row := dy / (unit * 2)
			offset := (row % 2) * unit * 2
			return mortar, dy%(unit*2) == 0 || (dx+offset)%(unit*4) == 0
		})
	case tDirt:
		fill(dirt)
	case tFlowers:
		fill(grassLight)
		each(func(dx, dy int) (color.Color, bool) {
			return petal, (dx/unit)%3 == 1 && (dy/unit)%3 == 1
		})
	case tRock:
		fill(rock)
	}
}
