// Package certificate renders mission certificates as deterministic gradient PNGs.
package certificate

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	lru "github.com/hashicorp/golang-lru"
)

const (
	Width  = 1200
	Height = 800

	frameInset = 40
	frameWidth = 6
	stripes    = 6
)

// Seed derives the rendering seed for a user's certificate of a mission.
func Seed(address, missionID string) [32]byte {
	return sha256.Sum256([]byte(address + ":" + missionID))
}

// Palette returns the two gradient colors encoded in a seed.
func Palette(seed [32]byte) (color.RGBA, color.RGBA) {
	hue := float64(uint16(seed[0])<<8|uint16(seed[1])) / 65535 * 360
	// keep the second hue far enough away that the gradient is visible
	hue2 := math.Mod(hue+90+float64(seed[2])/255*180, 360)
	sat := 0.55 + float64(seed[3])/255*0.4
	light := 0.45 + float64(seed[4])/255*0.15
	return hsl(hue, sat, light), hsl(hue2, sat, light)
}

// Render draws the certificate for seed and encodes it as PNG. Same seed, same bytes.
func Render(seed [32]byte) ([]byte, error) {
	from, to := Palette(seed)
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))

	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			t := (float64(x)/Width + float64(y)/Height) / 2
			c := lerp(from, to, t)
			if onStripe(seed, x, y) {
				c = lighten(c, 0.12)
			}
			if onFrame(x, y) {
				c = lighten(c, 0.75)
			}
			i := img.PixOffset(x, y)
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = 0xff
		}
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode certificate png: %w", err)
	}
	return buf.Bytes(), nil
}

func onFrame(x, y int) bool {
	inner := func(v, size int) bool { return v >= frameInset && v < size-frameInset }
	edge := func(v, size int) bool {
		return (v >= frameInset && v < frameInset+frameWidth) || (v >= size-frameInset-frameWidth && v < size-frameInset)
	}
	return (edge(x, Width) && inner(y, Height)) || (edge(y, Height) && inner(x, Width))
}

// onStripe draws seed-spaced diagonal bands across the canvas.
func onStripe(seed [32]byte, x, y int) bool {
	d := x + y
	for i := 0; i < stripes; i++ {
		start := int(seed[8+i]) * (Width + Height) / 256
		width := 8 + int(seed[16+i]%24)
		if d >= start && d < start+width {
			return true
		}
	}
	return false
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(p, q uint8) uint8 { return uint8(math.Round(float64(p) + (float64(q)-float64(p))*t)) }
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}

func lighten(c color.RGBA, amount float64) color.RGBA {
	up := func(v uint8) uint8 { return uint8(math.Round(float64(v) + (255-float64(v))*amount)) }
	return color.RGBA{R: up(c.R), G: up(c.G), B: up(c.B), A: c.A}
}

func hsl(h, s, l float64) color.RGBA {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	to8 := func(v float64) uint8 { return uint8(math.Round((v + m) * 255)) }
	return color.RGBA{R: to8(r), G: to8(g), B: to8(b), A: 0xff}
}

// Renderer memoizes rendered PNGs by seed.
type Renderer struct {
	cache *lru.Cache
}

func NewRenderer(cacheSize int) (*Renderer, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Renderer{cache: cache}, nil
}

// PNG returns the certificate image for address and mission, rendering on cache miss.
func (r *Renderer) PNG(address, missionID string) ([]byte, error) {
	seed := Seed(address, missionID)
	key := hex.EncodeToString(seed[:])
	if v, ok := r.cache.Get(key); ok {
		return v.([]byte), nil
	}
	img, err := Render(seed)
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, img)
	return img, nil
}
