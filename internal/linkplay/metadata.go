package linkplay

import (
	"encoding/xml"
	"html"
	"regexp"
	"strings"

	"github.com/tessro/linkctl/internal/core"
)

// didlLite is the DIDL-Lite document carried in CurrentTrackMetaData.
type didlLite struct {
	XMLName xml.Name   `xml:"urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/ DIDL-Lite"`
	Items   []didlItem `xml:"urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/ item"`
}

type didlItem struct {
	Title   string `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creator string `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Album   string `xml:"urn:schemas-upnp-org:metadata-1-0/upnp/ album"`
	Artist  string `xml:"urn:schemas-upnp-org:metadata-1-0/upnp/ artist"`
}

var elementPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, name := range []string{"title", "creator", "artist", "album"} {
		elementPatterns[name] = regexp.MustCompile(`<(?:\w+:)?` + name + `[^>]*>([^<]*)</(?:\w+:)?` + name + `>`)
	}
}

// parseTrackMetadata parses DIDL-Lite track metadata. It returns false when
// the document carries no title.
func parseTrackMetadata(metadata string) (core.Track, bool) {
	if metadata == "" || metadata == "NOT_IMPLEMENTED" {
		return core.Track{}, false
	}
	metadata = html.UnescapeString(metadata)

	// Try namespace-aware parsing first
	var didl didlLite
	if err := xml.Unmarshal([]byte(metadata), &didl); err == nil && len(didl.Items) > 0 {
		item := didl.Items[0]
		if item.Title != "" {
			artist := item.Artist
			if artist == "" {
				artist = item.Creator
			}
			return core.Track{Title: item.Title, Artist: artist, Album: item.Album}, true
		}
	}

	// Firmware often emits undeclared prefixes; fall back to matching local names
	title := extractElement(metadata, "title")
	if title == "" {
		return core.Track{}, false
	}
	artist := extractElement(metadata, "artist")
	if artist == "" {
		artist = extractElement(metadata, "creator")
	}
	return core.Track{Title: title, Artist: artist, Album: extractElement(metadata, "album")}, true
}

func extractElement(doc, localName string) string {
	m := elementPatterns[localName].FindStringSubmatch(doc)
	if len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
