package provider

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/edubyte/eubyte-backend/internal"
)

// Image is a decoded attachment.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURL renders the image inline, the shape OpenAI-style APIs accept as image_url.
func (i *Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// DecodeImage accepts a data URL or bare base64. The declared format is only a hint;
// the MIME type is sniffed from the bytes and must be an image.
func DecodeImage(in internal.ImageInput) (*Image, error) {
	payload := strings.TrimSpace(in.Data)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.Contains(payload[:comma], ";base64") {
			return nil, fmt.Errorf("%w: malformed data URL", ErrInvalidImage)
		}
		payload = payload[comma+1:]
	}
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some browsers send unpadded base64
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: content is %s (declared %q)", ErrInvalidImage, mt.String(), in.Format)
	}
	return &Image{MIMEType: mt.String(), Data: data}, nil
}
