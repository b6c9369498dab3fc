package webdav

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dandidav/dandidav-go/internal/dandi"
)

func TestRenderMultiStatusOneResponsePerResource(t *testing.T) {
	resources := []Resource{
		{Path: DavPath{Kind: KindRoot}, Name: "root", IsCollection: true, Size: -1},
		{Path: DavPath{Kind: KindDandisetIndex}, Name: "dandisets", IsCollection: true, Size: -1},
	}
	body := RenderMultiStatus(resources, DefaultPropFind)
	s := string(body)
	assert.True(t, strings.HasPrefix(s, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Equal(t, 2, strings.Count(s, "<response>"))
	assert.Equal(t, 2, strings.Count(s, "</response>"))
}

func TestRenderMultiStatusAllPropCollectionHasOnePropstat(t *testing.T) {
	r := Resource{Path: DavPath{Kind: KindRoot}, Name: "root", IsCollection: true, Size: -1}
	body := RenderMultiStatus([]Resource{r}, DefaultPropFind)
	s := string(body)
	assert.Equal(t, 1, strings.Count(s, "<propstat>"))
	assert.Contains(t, s, "<resourcetype>")
	assert.Contains(t, s, "<collection />")
	assert.Contains(t, s, "200 OK")
}

func TestRenderMultiStatusPropWithUnknownPropertyYieldsTwoPropstats(t *testing.T) {
	r := Resource{Path: DavPath{Kind: KindRoot}, Name: "root", IsCollection: true, Size: -1}
	pf := PropFind{Kind: PropFindProp, Props: []PropertyName{
		{Namespace: davNS, Name: "displayname"},
		{Namespace: davNS, Name: "quota-used-bytes"},
	}}
	body := RenderMultiStatus([]Resource{r}, pf)
	s := string(body)
	require.Equal(t, 2, strings.Count(s, "<propstat>"))
	assert.Contains(t, s, "200 OK")
	assert.Contains(t, s, "404 Not Found")
	assert.Contains(t, s, "<quota-used-bytes />")
}

func TestRenderMultiStatusPropNameListsEmptyElements(t *testing.T) {
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Resource{
		Path: DavPath{Kind: KindRoot}, Name: "root", IsCollection: true, Size: -1,
		Modified: modified, ETag: `"abc"`,
	}
	pf := PropFind{Kind: PropFindPropName}
	body := RenderMultiStatus([]Resource{r}, pf)
	s := string(body)
	assert.Contains(t, s, "<getlastmodified />")
	assert.Contains(t, s, "<getetag />")
	assert.NotContains(t, s, "<getlastmodified>")
}

func TestHrefForAddsTrailingSlashOnlyForCollections(t *testing.T) {
	collection := Resource{Path: DavPath{Kind: KindDandisetIndex}, IsCollection: true}
	assert.Equal(t, "/dandisets/", hrefFor(collection))

	item := Resource{Path: DavPath{
		Kind:       KindDandiResource,
		DandisetID: mustDandisetID(t, "000001"),
		Version:    dandi.DraftVersion(),
		AssetPath:  mustPurePath(t, "sub-01/file.nwb"),
	}, IsCollection: false}
	assert.Equal(t, "/dandisets/000001/draft/sub-01/file.nwb", hrefFor(item))
}
