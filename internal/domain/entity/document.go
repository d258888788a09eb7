package entity

import "strings"

// Document is an uploaded supporting document. It only lives while the
// workflow is at the upload stage and is never copied into a record.
type Document struct {
	Name     string
	MimeType string
	Content  []byte
}

// Size returns the content length in bytes
func (d *Document) Size() int64 {
	if d == nil {
		return 0
	}
	return int64(len(d.Content))
}

// IsPDF reports whether the declared MIME type is a PDF
func (d *Document) IsPDF() bool {
	return d != nil && strings.EqualFold(d.baseMimeType(), "application/pdf")
}

// IsImage reports whether the declared MIME type is an image
func (d *Document) IsImage() bool {
	return d != nil && strings.HasPrefix(strings.ToLower(d.baseMimeType()), "image/")
}

func (d *Document) baseMimeType() string {
	mt, _, _ := strings.Cut(d.MimeType, ";")
	return strings.TrimSpace(mt)
}

// DocumentSummary describes an attached document without its content
type DocumentSummary struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Summary returns the document metadata, or nil for an absent document
func (d *Document) Summary() *DocumentSummary {
	if d == nil {
		return nil
	}
	return &DocumentSummary{
		Name:     d.Name,
		MimeType: d.MimeType,
		Size:     d.Size(),
	}
}

// Documents holds the two optional upload slots
type Documents struct {
	Invoice    *Document
	Commitment *Document
}

// IsEmpty reports whether both slots are absent
func (d Documents) IsEmpty() bool {
	return d.Invoice == nil && d.Commitment == nil
}
