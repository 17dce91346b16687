// Package texture decodes the image formats terrain textures ship in and
// applies their transparency conventions.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

const tgaHeaderSize = 18

var errTGATruncated = errors.New("TGA data truncated")

// DecodeTGA decodes an uncompressed or RLE compressed true-color TGA image.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := data[2]
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	// Bit 5 of the descriptor marks top-to-bottom row order
	topToBottom := data[17]&0x20 != 0

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("unsupported TGA bit depth %d", bpp)
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, errTGATruncated
	}

	d := tgaDecoder{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		src:    data[offset:],
		bpp:    bpp / 8,
		width:  width,
		height: height,
		flip:   !topToBottom,
	}
	var err error
	if imageType == TGATypeUncompressed {
		err = d.raw(width * height)
	} else {
		err = d.rle()
	}
	if err != nil {
		return nil, err
	}
	return d.img, nil
}

type tgaDecoder struct {
	img           *image.RGBA
	src           []byte
	pos           int
	bpp           int
	width, height int
	flip          bool
	pixel         int
}

// read consumes one BGR(A) pixel.
func (d *tgaDecoder) read() (color.RGBA, error) {
	if d.pos+d.bpp > len(d.src) {
		return color.RGBA{}, errTGATruncated
	}
	p := d.src[d.pos:]
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bpp == 4 {
		c.A = p[3]
	}
	d.pos += d.bpp
	return c, nil
}

// put writes c at the next pixel in file order.
func (d *tgaDecoder) put(c color.RGBA) {
	x := d.pixel % d.width
	y := d.pixel / d.width
	if d.flip {
		y = d.height - 1 - y
	}
	d.img.SetRGBA(x, y, c)
	d.pixel++
}

func (d *tgaDecoder) raw(count int) error {
	for i := 0; i < count && d.pixel < d.width*d.height; i++ {
		c, err := d.read()
		if err != nil {
			return err
		}
		d.put(c)
	}
	return nil
}

// rle decodes packets until the image is full. A short stream leaves the
// remaining pixels transparent.
func (d *tgaDecoder) rle() error {
	total := d.width * d.height
	for d.pixel < total && d.pos < len(d.src) {
		packet := d.src[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 == 0 {
			if err := d.raw(count); err != nil {
				return err
			}
			continue
		}

		c, err := d.read()
		if err != nil {
			return err
		}
		for i := 0; i < count && d.pixel < total; i++ {
			d.put(c)
		}
	}
	return nil
}

// IsMagentaKey checks if an RGB color matches the magenta transparency key.
// Uses tolerance (R >= 250, G <= 10, B >= 250) to handle BMP decoding variations.
func IsMagentaKey(r, g, b uint8) bool {
	return r >= 250 && g <= 10 && b >= 250
}

// ApplyMagentaKey modifies an RGBA image in-place, making magenta pixels transparent.
// RGB is zeroed too so filtering does not bleed magenta. Returns the number
// of keyed pixels.
func ApplyMagentaKey(img *image.RGBA) int {
	keyed := 0
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := img.PixOffset(x, y)
			px := img.Pix[i : i+4 : i+4]
			if IsMagentaKey(px[0], px[1], px[2]) {
				px[0], px[1], px[2], px[3] = 0, 0, 0, 0
				keyed++
			}
		}
	}
	return keyed
}
