// Package payload flattens a validated restaurant into the multipart wire
// format accepted by the remote restaurant API.
package payload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/Apurer/go-gin-restaurant-portal/internal/domains/restaurants/domain"
)

// ImageFileKey is the multipart field carrying the binary image.
const ImageFileKey = "imageFile"

// Field is a single text entry of the payload.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// File is the binary entry of the payload.
type File struct {
	Key         string `json:"key"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Payload is the flattened, transport-ready encoding of a restaurant.
// Field order is deterministic.
type Payload struct {
	Fields []Field `json:"fields"`
	File   *File   `json:"file,omitempty"`
}

// Encode flattens r. Scalars map to one entry each, cuisines to cuisines[i],
// menu items to menuItems[i][name] and menuItems[i][price]. The image file is
// attached only when present; a URL-only record carries no binary entry.
func Encode(r domain.Restaurant) Payload {
	p := Payload{Fields: make([]Field, 0, 5+len(r.Cuisines)+2*len(r.MenuItems))}
	p.add("restaurantName", r.RestaurantName)
	p.add("city", r.City)
	p.add("country", r.Country)
	p.add("deliveryPrice", strconv.FormatInt(r.DeliveryPrice, 10))
	p.add("estimatedDeliveryTime", strconv.FormatInt(r.EstimatedDeliveryTime, 10))
	for i, cuisine := range r.Cuisines {
		p.add(fmt.Sprintf("cuisines[%d]", i), cuisine)
	}
	for i, item := range r.MenuItems {
		p.add(fmt.Sprintf("menuItems[%d][name]", i), item.Name)
		p.add(fmt.Sprintf("menuItems[%d][price]", i), strconv.FormatInt(item.Price, 10))
	}
	if r.ImageFile != nil {
		p.File = &File{
			Key:         ImageFileKey,
			Filename:    r.ImageFile.Filename,
			ContentType: r.ImageFile.ContentType,
			Data:        append([]byte(nil), r.ImageFile.Data...),
		}
	}
	return p
}

func (p *Payload) add(key, value string) {
	p.Fields = append(p.Fields, Field{Key: key, Value: value})
}

// Keys lists every key in wire order, the file key last when present.
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p.Fields)+1)
	for _, f := range p.Fields {
		keys = append(keys, f.Key)
	}
	if p.File != nil {
		keys = append(keys, p.File.Key)
	}
	return keys
}

// Get returns the text value stored under key.
func (p Payload) Get(key string) (string, bool) {
	for _, f := range p.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// WriteMultipart writes the payload as multipart/form-data and returns the content
// type including the boundary.
func (p Payload) WriteMultipart(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)
	for _, f := range p.Fields {
		if err := mw.WriteField(f.Key, f.Value); err != nil {
			return "", fmt.Errorf("write field %s: %w", f.Key, err)
		}
	}
	if p.File != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(p.File.Key), escapeQuotes(p.File.Filename)))
		contentType := p.File.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		if err != nil {
			return "", fmt.Errorf("create file part: %w", err)
		}
		if _, err := part.Write(p.File.Data); err != nil {
			return "", fmt.Errorf("write file part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	return mw.FormDataContentType(), nil
}

// Body renders the payload into memory for an HTTP request.
func (p Payload) Body() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	contentType, err := p.WriteMultipart(&buf)
	if err != nil {
		return nil, "", err
	}
	return &buf, contentType, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
