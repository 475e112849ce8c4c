package processor

import (
	"regexp"
	"strconv"
	"strings"
)

// DocumentLayout holds the page geometry from the first section, in points.
type DocumentLayout struct {
	PageWidth    float64 `json:"page_width"`
	PageHeight   float64 `json:"page_height"`
	LeftMargin   float64 `json:"left_margin"`
	RightMargin  float64 `json:"right_margin"`
	TopMargin    float64 `json:"top_margin"`
	BottomMargin float64 `json:"bottom_margin"`
	Landscape    bool    `json:"landscape"`
}

// A4 portrait with one-inch margins.
func defaultLayout() DocumentLayout {
	return DocumentLayout{
		PageWidth:    595.3,
		PageHeight:   841.9,
		LeftMargin:   72,
		RightMargin:  72,
		TopMargin:    72,
		BottomMargin: 72,
	}
}

var attrPattern = regexp.MustCompile(`w:([A-Za-z]+)="([^"]*)"`)

// ParseLayout reads w:pgSz and w:pgMar from the first w:sectPr of body.
func ParseLayout(body string) DocumentLayout {
	layout := defaultLayout()

	sectStart := strings.Index(body, "<w:sectPr")
	if sectStart == -1 {
		return layout
	}
	sect := body[sectStart:]
	if sectEnd := strings.Index(sect, "</w:sectPr>"); sectEnd != -1 {
		sect = sect[:sectEnd]
	}

	explicit := false
	if attrs := tagAttributes(sect, "<w:pgSz"); attrs != nil {
		if v := twipsToPoints(attrs["w"]); v > 0 {
			layout.PageWidth = v
		}
		if v := twipsToPoints(attrs["h"]); v > 0 {
			layout.PageHeight = v
		}
		if orient, ok := attrs["orient"]; ok {
			explicit = true
			layout.Landscape = orient == "landscape"
		}
	}

	if attrs := tagAttributes(sect, "<w:pgMar"); attrs != nil {
		for name, ptr := range map[string]*float64{
			"left":   &layout.LeftMargin,
			"right":  &layout.RightMargin,
			"top":    &layout.TopMargin,
			"bottom": &layout.BottomMargin,
		} {
			if v := twipsToPoints(attrs[name]); v > 0 {
				*ptr = v
			}
		}
	}

	if !explicit {
		layout.Landscape = layout.PageWidth > layout.PageHeight
	}
	return layout
}

// DetectOrientation reports whether the document is laid out landscape.
func DetectOrientation(data []byte) (bool, error) {
	pkg, err := OpenPackage(data)
	if err != nil {
		return false, err
	}
	return ParseLayout(pkg.Body()).Landscape, nil
}

func tagAttributes(content, tag string) map[string]string {
	start := strings.Index(content, tag)
	if start == -1 {
		return nil
	}
	end := strings.Index(content[start:], ">")
	if end == -1 {
		return nil
	}

	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(content[start:start+end], -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}

func twipsToPoints(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v / 20
}
