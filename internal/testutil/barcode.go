// Package testutil generates synthetic barcode rasters for tests. The
// generator emits real EAN-13 symbols so decoder tests exercise the actual
// reader instead of canned fixtures.
package testutil

import (
	"fmt"
	"image"
	"image/color"
)

// EAN-13 module patterns. Each digit spans seven modules; the right half
// always uses R codes, the left half mixes L and G codes selected by the
// leading digit.
var (
	eanLCodes = [10]string{
		"0001101", "0011001", "0010011", "0111101", "0100011",
		"0110001", "0101111", "0111011", "0110111", "0001011",
	}

	// Parity selection for the six left-half digits, indexed by the
	// leading digit. L means an L code, G means the mirrored G code.
	eanParity = [10]string{
		"LLLLLL", "LLGLGG", "LLGGLG", "LLGGGL", "LGLLGG",
		"LGGLLG", "LGGGLL", "LGLGLG", "LGLGGL", "LGGLGL",
	}
)

const (
	eanModules   = 95
	guardPattern = "101"
	centerGuard  = "01010"
)

// EAN13CheckDigit computes the check digit for the first twelve digits.
func EAN13CheckDigit(digits string) (byte, error) {
	if len(digits) < 12 {
		return 0, fmt.Errorf("need at least 12 digits, got %d", len(digits))
	}
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(digits[i] - '0')
		if d < 0 || d > 9 {
			return 0, fmt.Errorf("non-digit character %q at position %d", digits[i], i)
		}
		if i%2 == 0 {
			sum += d
		} else {
			sum += 3 * d
		}
	}
	return byte('0' + (10-sum%10)%10), nil
}

// EAN13Modules expands a 13-digit code into its 95-module bar pattern,
// returned as a string of '0' (space) and '1' (bar) characters.
func EAN13Modules(code string) (string, error) {
	if len(code) != 13 {
		return "", fmt.Errorf("EAN-13 code must have 13 digits, got %d", len(code))
	}
	check, err := EAN13CheckDigit(code)
	if err != nil {
		return "", err
	}
	if code[12] != check {
		return "", fmt.Errorf("check digit mismatch: code ends in %q, expected %q", code[12], check)
	}

	parity := eanParity[code[0]-'0']

	out := make([]byte, 0, eanModules)
	out = append(out, guardPattern...)
	for i := 1; i <= 6; i++ {
		d := code[i] - '0'
		if parity[i-1] == 'L' {
			out = append(out, eanLCodes[d]...)
		} else {
			out = append(out, gCode(d)...)
		}
	}
	out = append(out, centerGuard...)
	for i := 7; i <= 12; i++ {
		out = append(out, rCode(code[i]-'0')...)
	}
	out = append(out, guardPattern...)

	return string(out), nil
}

// gCode is the L code of the digit read back to front.
func gCode(d byte) []byte {
	l := eanLCodes[d]
	out := make([]byte, len(l))
	for i := range l {
		out[i] = l[len(l)-1-i]
	}
	return out
}

// rCode is the bitwise complement of the L code.
func rCode(d byte) []byte {
	l := eanLCodes[d]
	out := make([]byte, len(l))
	for i := range l {
		if l[i] == '0' {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return out
}

// EAN13Image renders the code as a clean black-on-white raster. moduleWidth
// controls horizontal scale; height is the bar height in pixels. A quiet
// zone of ten modules pads each side.
func EAN13Image(code string, moduleWidth, height int) (*image.NRGBA, error) {
	modules, err := EAN13Modules(code)
	if err != nil {
		return nil, err
	}
	if moduleWidth < 1 {
		moduleWidth = 1
	}
	if height < 1 {
		height = 1
	}

	quiet := 10 * moduleWidth
	width := len(modules)*moduleWidth + 2*quiet

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	white := color.NRGBA{255, 255, 255, 255}
	black := color.NRGBA{0, 0, 0, 255}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, white)
		}
	}
	for i := range modules {
		if modules[i] != '1' {
			continue
		}
		x0 := quiet + i*moduleWidth
		for y := 0; y < height; y++ {
			for x := x0; x < x0+moduleWidth; x++ {
				img.SetNRGBA(x, y, black)
			}
		}
	}

	return img, nil
}
