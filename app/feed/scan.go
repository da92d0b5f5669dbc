package feed

import (
	"bytes"
	"encoding/xml"
	"strings"
)

const (
	atomNS    = "http://www.w3.org/2005/Atom"
	atomOldNS = "http://purl.org/atom/ns#"
)

// scanResult holds the pieces of a feed document that gofeed's normalized
// model drops: link rel attributes (hub discovery needs rel="hub"), the
// feed-level id, and the shape of each entry's id.
type scanResult struct {
	feedID  string
	links   []Link
	entries []scanEntry
}

type scanEntry struct {
	idCount        int
	idForeignAttrs bool
	hasContent     bool
}

// multiValuedID reports whether the entry id cannot serve as a unique
// identifier: either several ids are present, or the id carries
// foreign-namespaced attributes the way GReader feeds attach alternate ids.
func (e scanEntry) multiValuedID() bool {
	return e.idCount > 1 || e.idForeignAttrs
}

// scanDocument walks the raw XML tokens of a feed document. It is lenient:
// any decoding error simply ends the scan with whatever was collected so
// far, so garbage input yields an empty result rather than a failure.
func scanDocument(data []byte) scanResult {
	var res scanResult

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	var cur *scanEntry
	depth := 0 // nesting level below the current entry
	capturingFeedID := false

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := strings.ToLower(t.Name.Local)

			if name == "entry" || name == "item" {
				res.entries = append(res.entries, scanEntry{})
				cur = &res.entries[len(res.entries)-1]
				depth = 0
				continue
			}

			if cur != nil {
				depth++
				if depth == 1 {
					// Only direct children count; an atom:source block
					// nests ids of its own.
					switch name {
					case "id", "guid":
						cur.idCount++
						for _, attr := range t.Attr {
							// isPermaLink and friends are unqualified; only
							// foreign-namespaced attributes mark a multi-id.
							if attr.Name.Space != "" && attr.Name.Space != "xml" {
								cur.idForeignAttrs = true
							}
						}
					case "content":
						if isAtomSpace(t.Name.Space) {
							cur.hasContent = true
						}
					case "encoded":
						cur.hasContent = true
					}
				}
				continue
			}

			switch name {
			case "link":
				if link, ok := relLink(t); ok {
					res.links = append(res.links, link)
				}
			case "id":
				capturingFeedID = res.feedID == ""
			}

		case xml.CharData:
			if capturingFeedID {
				res.feedID += string(t)
			}

		case xml.EndElement:
			name := strings.ToLower(t.Name.Local)
			switch {
			case name == "entry" || name == "item":
				cur = nil
				depth = 0
			case cur != nil:
				depth--
			case name == "id" && capturingFeedID:
				res.feedID = strings.TrimSpace(res.feedID)
				capturingFeedID = false
			}
		}
	}

	return res
}

// relLink extracts a rel-qualified link from an atom-style link element.
// Plain RSS <link>text</link> elements carry no href attribute and are
// skipped; gofeed supplies that link already.
func relLink(el xml.StartElement) (Link, bool) {
	link := Link{Rel: "alternate"}
	for _, attr := range el.Attr {
		switch strings.ToLower(attr.Name.Local) {
		case "rel":
			if attr.Value != "" {
				link.Rel = attr.Value
			}
		case "href":
			link.Href = attr.Value
		}
	}
	if link.Href == "" {
		return Link{}, false
	}
	return link, true
}

func isAtomSpace(space string) bool {
	return space == "" || space == atomNS || space == atomOldNS
}
