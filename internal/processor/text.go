package processor

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PlainText returns the visible text of a package, one line per paragraph.
func PlainText(data []byte) (string, error) {
	pkg, err := OpenPackage(data)
	if err != nil {
		return "", err
	}
	return BodyText(pkg.Body())
}

// BodyText extracts paragraph text from raw document XML.
func BodyText(body string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(body))

	var b strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
