package webdav

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"
)

// propEntry is one standard property's rendered value, or the knowledge
// that it should be listed empty (a PropName response, or a PROPFIND Prop
// response for resourcetype-absent collections).
type propEntry struct {
	Name       PropertyName
	Text       string
	Collection bool // resourcetype only: render <collection/> child
	HasValue   bool // false for PropName responses, which always render empty
}

func standardProperties(r Resource) map[string]propEntry {
	out := make(map[string]propEntry)
	out["displayname"] = propEntry{Name: PropertyName{davNS, "displayname"}, Text: r.Name, HasValue: true}
	out["resourcetype"] = propEntry{Name: PropertyName{davNS, "resourcetype"}, Collection: r.IsCollection, HasValue: true}
	if !r.Created.IsZero() {
		out["creationdate"] = propEntry{Name: PropertyName{davNS, "creationdate"}, Text: r.Created.UTC().Format(time.RFC3339), HasValue: true}
	}
	if !r.Modified.IsZero() {
		out["getlastmodified"] = propEntry{Name: PropertyName{davNS, "getlastmodified"}, Text: r.Modified.UTC().Format(time.RFC1123), HasValue: true}
	}
	if r.ETag != "" {
		out["getetag"] = propEntry{Name: PropertyName{davNS, "getetag"}, Text: r.ETag, HasValue: true}
	}
	if !r.IsCollection {
		ct := r.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		out["getcontenttype"] = propEntry{Name: PropertyName{davNS, "getcontenttype"}, Text: ct, HasValue: true}
		if r.Size >= 0 {
			out["getcontentlength"] = propEntry{Name: PropertyName{davNS, "getcontentlength"}, Text: fmt.Sprintf("%d", r.Size), HasValue: true}
		}
	}
	return out
}

// matchProperties applies pf's matching rule against r's standard
// properties, returning the properties to render under 200 OK and those to
// render (empty) under 404 Not Found.
func matchProperties(r Resource, pf PropFind) (found, missing []propEntry) {
	props := standardProperties(r)
	switch pf.Kind {
	case PropFindPropName:
		for _, pe := range props {
			pe.HasValue = false
			found = append(found, pe)
		}
	case PropFindAllProp:
		have := make(map[string]bool)
		for key, pe := range props {
			found = append(found, pe)
			have[key] = true
		}
		for _, tag := range pf.Include {
			if tag.Namespace == davNS && have[tag.Name] {
				continue
			}
			missing = append(missing, propEntry{Name: tag})
		}
	case PropFindProp:
		for _, tag := range pf.Props {
			if tag.Namespace == davNS {
				if pe, ok := props[tag.Name]; ok {
					found = append(found, pe)
					continue
				}
			}
			missing = append(missing, propEntry{Name: tag})
		}
	}
	return found, missing
}

// RenderMultiStatus builds the 207 Multi-Status XML body for resources
// (the primary resource followed by, for Depth: 1, its children), each
// matched against pf. href is computed from each resource's Path.
func RenderMultiStatus(resources []Resource, pf PropFind) []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString("<multistatus xmlns=\"DAV:\">\n")
	for _, r := range resources {
		writeResponse(&buf, r, pf)
	}
	buf.WriteString("</multistatus>\n")
	return buf.Bytes()
}

func writeResponse(buf *bytes.Buffer, r Resource, pf PropFind) {
	found, missing := matchProperties(r, pf)
	indent := "    "
	buf.WriteString(indent + "<response>\n")
	buf.WriteString(indent + indent + "<href>")
	writeEscaped(buf, hrefFor(r))
	buf.WriteString("</href>\n")
	if len(found) > 0 {
		writePropStat(buf, indent+indent, found, "200 OK")
	}
	if len(missing) > 0 {
		writePropStat(buf, indent+indent, missing, "404 Not Found")
	}
	buf.WriteString(indent + "</response>\n")
}

func writePropStat(buf *bytes.Buffer, indent string, props []propEntry, status string) {
	buf.WriteString(indent + "<propstat>\n")
	buf.WriteString(indent + "    <prop>\n")
	for _, pe := range props {
		writeProp(buf, indent+"        ", pe)
	}
	buf.WriteString(indent + "    </prop>\n")
	buf.WriteString(indent + "    <status>HTTP/1.1 " + status + "</status>\n")
	buf.WriteString(indent + "</propstat>\n")
}

func writeProp(buf *bytes.Buffer, indent string, pe propEntry) {
	tag := pe.Name.Name
	switch {
	case !pe.HasValue:
		buf.WriteString(indent + "<" + tag + " />\n")
	case tag == "resourcetype":
		if pe.Collection {
			buf.WriteString(indent + "<resourcetype>\n")
			buf.WriteString(indent + "    <collection />\n")
			buf.WriteString(indent + "</resourcetype>\n")
		} else {
			buf.WriteString(indent + "<resourcetype />\n")
		}
	default:
		buf.WriteString(indent + "<" + tag + ">")
		writeEscaped(buf, pe.Text)
		buf.WriteString("</" + tag + ">\n")
	}
}

func writeEscaped(buf *bytes.Buffer, s string) {
	_ = xml.EscapeText(buf, []byte(s))
}

// hrefFor renders r's path as an absolute href, with a trailing slash for
// collections.
func hrefFor(r Resource) string {
	s := r.Path.String()
	if r.IsCollection && s != "/" && s[len(s)-1] != '/' {
		s += "/"
	}
	return s
}
