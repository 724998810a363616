package render

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ChartView is a decoded raster image.
type ChartView struct {
	MIME  string
	Bytes []byte
}

// DecodeChart decodes base64 image bytes. Padded and unpadded standard
// encodings are accepted; whitespace is ignored.
func DecodeChart(encoded string) (*ChartView, error) {
	cleaned := strings.Join(strings.Fields(encoded), "")
	if cleaned == "" {
		return nil, errors.New("chart data is empty")
	}

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		var rawErr error
		data, rawErr = base64.RawStdEncoding.DecodeString(cleaned)
		if rawErr != nil {
			return nil, fmt.Errorf("chart data is not base64: %w", err)
		}
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/png"
	}
	return &ChartView{MIME: mime, Bytes: data}, nil
}

// DataURI returns the image as an inline data: URI.
func (c *ChartView) DataURI() string {
	return "data:" + c.MIME + ";base64," + base64.StdEncoding.EncodeToString(c.Bytes)
}

// Extension returns a file extension matching the image type.
func (c *ChartView) Extension() string {
	switch c.MIME {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".png"
	}
}
