package cli

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register decoder
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register decoder
	"gopkg.in/yaml.v3"

	"github.com/gogpu/geotape/annotate"
)

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// writeImage encodes img in the format named by the file extension.
func writeImage(path string, img image.Image) (err error) {
	ext := strings.ToLower(filepath.Ext(path))
	var encode func(*os.File) error
	switch ext {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	case ".jpg", ".jpeg":
		encode = func(f *os.File) error { return jpeg.Encode(f, img, &jpeg.Options{Quality: 95}) }
	case ".bmp":
		encode = func(f *os.File) error { return bmp.Encode(f, img) }
	case ".tif", ".tiff":
		encode = func(f *os.File) error {
			return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
		}
	default:
		return fmt.Errorf("cannot encode %q images", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return encode(f)
}

// readAnnotations decodes a list of annotations. JSON input is read by the
// YAML decoder.
func readAnnotations(path string) ([]annotate.Annotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var anns []annotate.Annotation
	if err := yaml.Unmarshal(data, &anns); err != nil {
		return nil, fmt.Errorf("parse annotations: %w", err)
	}
	return anns, nil
}

func writeAnnotations(path string, anns []annotate.Annotation) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(anns, "", "  ")
		if err != nil {
			return err
		}
		data = append(data, '\n')
	} else if data, err = yaml.Marshal(anns); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// parseHexColor parses #RRGGBB or #RRGGBBAA.
func parseHexColor(s string) (color.Color, error) {
	hex := strings.TrimPrefix(s, "#")
	var r, g, b, a uint8 = 0, 0, 0, 255
	var err error
	switch len(hex) {
	case 6:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	case 8:
		_, err = fmt.Sscanf(hex, "%02x%02x%02x%02x", &r, &g, &b, &a)
	default:
		return nil, fmt.Errorf("invalid color %q: want #RRGGBB or #RRGGBBAA", s)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	// Hex colors carry straight alpha.
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
