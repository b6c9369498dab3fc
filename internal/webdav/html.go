package webdav

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Breadcrumb is one link in an HTML listing's breadcrumb trail.
type Breadcrumb struct {
	Name string
	Href string
}

// Row is one line of an HTML directory listing.
type Row struct {
	Name        string
	Href        string
	IsParent    bool
	IsDir       bool
	Size        string
	Created     string
	Modified    string
	MetadataURL string
}

// ListingData is the data passed to the HTML listing template.
type ListingData struct {
	Title       string
	Breadcrumbs []Breadcrumb
	Rows        []Row
}

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<header>
{{range $i, $b := .Breadcrumbs}}{{if $i}} / {{end}}<a href="{{$b.Href}}">{{$b.Name}}</a>{{end}}
</header>
<table>
<thead><tr><th>Name</th><th>Size</th><th>Created</th><th>Modified</th><th></th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td><a href="{{.Href}}">{{.Name}}{{if .IsDir}}/{{end}}</a></td>
<td>{{.Size}}</td>
<td>{{.Created}}</td>
<td>{{.Modified}}</td>
<td>{{if .MetadataURL}}<a href="{{.MetadataURL}}">metadata</a>{{end}}</td>
</tr>
{{end}}
</tbody>
</table>
</body>
</html>
`))

// breadcrumbsFor builds the breadcrumb trail for a path, with title linking
// to the virtual root.
func breadcrumbsFor(title string, dp DavPath) []Breadcrumb {
	crumbs := []Breadcrumb{{Name: title, Href: "/"}}
	full := dp.String()
	if full == "/" {
		return crumbs
	}
	segments := strings.Split(strings.Trim(full, "/"), "/")
	href := ""
	for _, seg := range segments {
		href += "/" + seg
		crumbs = append(crumbs, Breadcrumb{Name: seg, Href: href + "/"})
	}
	return crumbs
}

// RenderHTML builds the HTML listing for a collection resource and its
// children.
func RenderHTML(title string, r Resource, children []Resource, parentHref string, hasParent bool) []byte {
	data := ListingData{Title: title, Breadcrumbs: breadcrumbsFor(title, r.Path)}
	if hasParent {
		data.Rows = append(data.Rows, Row{Name: "..", Href: parentHref, IsParent: true, IsDir: true})
	}
	for _, c := range children {
		row := Row{
			Name:     c.Name,
			Href:     hrefFor(c),
			IsDir:    c.IsCollection,
			Created:  formatTimeOrBlank(c.Created),
			Modified: formatTimeOrBlank(c.Modified),
		}
		if !c.IsCollection && c.Size >= 0 {
			row.Size = humanSize(c.Size)
		}
		if c.MetadataURL != nil {
			row.MetadataURL = c.MetadataURL.String()
		}
		data.Rows = append(data.Rows, row)
	}
	var buf bytes.Buffer
	// template.Must already validated the template at package init; an
	// execution error here would mean a data/template mismatch, a
	// programmer error rather than a runtime condition to recover from.
	if err := listingTemplate.Execute(&buf, data); err != nil {
		panic("webdav: listing template execution failed: " + err.Error())
	}
	return buf.Bytes()
}

func formatTimeOrBlank(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05 -07:00")
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	units := "KMGTPE"
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), units[exp])
}
