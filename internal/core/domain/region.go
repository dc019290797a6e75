package domain

// BoundingBox is a region rectangle in coordinates normalized to 0..1000.
type BoundingBox struct {
	YMin float64 `json:"ymin"`
	XMin float64 `json:"xmin"`
	YMax float64 `json:"ymax"`
	XMax float64 `json:"xmax"`
}

// FullPageBox covers the whole image.
var FullPageBox = BoundingBox{YMin: 0, XMin: 0, YMax: 1000, XMax: 1000}

// DetectedRegion is one block of text reported by the vision model.
type DetectedRegion struct {
	Description string
	Box         BoundingBox
}

// Region is a text region as exchanged with the client.
type Region struct {
	ID            string      `json:"id"`
	Box           BoundingBox `json:"box"`
	Order         int         `json:"order"`
	Description   string      `json:"description"`
	ExtractedText *string     `json:"extractedText,omitempty"`
	IsActive      bool        `json:"isActive"`
}

// Image is a decoded image payload.
type Image struct {
	Data     []byte
	MIMEType string
}
