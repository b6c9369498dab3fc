package webdav

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePropFindEmptyBodyIsAllProp(t *testing.T) {
	pf, err := ParsePropFind(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultPropFind, pf)
}

func TestParsePropFindPropName(t *testing.T) {
	pf, err := ParsePropFind(strings.NewReader(`<propfind xmlns="DAV:"><propname/></propfind>`))
	require.NoError(t, err)
	assert.Equal(t, PropFindPropName, pf.Kind)
}

func TestParsePropFindAllPropWithInclude(t *testing.T) {
	pf, err := ParsePropFind(strings.NewReader(`<propfind xmlns="DAV:"><allprop/><include><quota-used-bytes/></include></propfind>`))
	require.NoError(t, err)
	assert.Equal(t, PropFindAllProp, pf.Kind)
	require.Len(t, pf.Include, 1)
	assert.Equal(t, "quota-used-bytes", pf.Include[0].Name)
}

func TestParsePropFindProp(t *testing.T) {
	pf, err := ParsePropFind(strings.NewReader(`<propfind xmlns="DAV:"><prop><displayname/><getcontentlength/></prop></propfind>`))
	require.NoError(t, err)
	assert.Equal(t, PropFindProp, pf.Kind)
	require.Len(t, pf.Props, 2)
	assert.Equal(t, "displayname", pf.Props[0].Name)
	assert.Equal(t, "getcontentlength", pf.Props[1].Name)
}

func TestParsePropFindIncludeWithoutAllpropIsError(t *testing.T) {
	_, err := ParsePropFind(strings.NewReader(`<propfind xmlns="DAV:"><include><displayname/></include></propfind>`))
	assert.IsType(t, &IncludeSansAllpropError{}, err)
}

func TestParsePropFindIncludeBeforeAllpropIsAccepted(t *testing.T) {
	pf, err := ParsePropFind(strings.NewReader(`<propfind xmlns="DAV:"><include><quota-used-bytes/></include><allprop/></propfind>`))
	require.NoError(t, err)
	assert.Equal(t, PropFindAllProp, pf.Kind)
	require.Len(t, pf.Include, 1)
	assert.Equal(t, "quota-used-bytes", pf.Include[0].Name)
}

func TestParsePropFindEmptyPropfindElementIsError(t *testing.T) {
	_, err := ParsePropFind(strings.NewReader(`<propfind xmlns="DAV:"></propfind>`))
	assert.IsType(t, &EmptyPropFindError{}, err)
}

func TestParsePropFindUnexpectedRootTagIsError(t *testing.T) {
	_, err := ParsePropFind(strings.NewReader(`<foo xmlns="DAV:"/>`))
	assert.IsType(t, &UnexpectedTagError{}, err)
}

func TestParsePropFindUnexpectedChildOfPropertyIsError(t *testing.T) {
	_, err := ParsePropFind(strings.NewReader(`<propfind xmlns="DAV:"><prop><displayname><nested/></displayname></prop></propfind>`))
	assert.IsType(t, &UnexpectedTagError{}, err)
}

func TestParsePropFindDuplicateAllpropIsError(t *testing.T) {
	_, err := ParsePropFind(strings.NewReader(`<propfind xmlns="DAV:"><allprop/><allprop/></propfind>`))
	assert.IsType(t, &UnexpectedTagError{}, err)
}

func TestParsePropFindMalformedXMLIsError(t *testing.T) {
	_, err := ParsePropFind(strings.NewReader(`<propfind xmlns="DAV:"><prop>`))
	assert.Error(t, err)
}

// TestParsePropFindRoundTrip exercises the accepted-body round-trip
// property: reparsing a canonical re-emission of an accepted request
// yields the same semantic PropFind value.
func TestParsePropFindRoundTrip(t *testing.T) {
	cases := []string{
		`<propfind xmlns="DAV:"><propname/></propfind>`,
		`<propfind xmlns="DAV:"><allprop/></propfind>`,
		`<propfind xmlns="DAV:"><prop><displayname/><resourcetype/></prop></propfind>`,
	}
	for _, body := range cases {
		pf, err := ParsePropFind(strings.NewReader(body))
		require.NoError(t, err, body)
		canonical := canonicalPropFindXML(pf)
		again, err := ParsePropFind(strings.NewReader(canonical))
		require.NoError(t, err, canonical)
		assert.Equal(t, pf, again, body)
	}
}

func canonicalPropFindXML(pf PropFind) string {
	var b strings.Builder
	b.WriteString(`<propfind xmlns="DAV:">`)
	switch pf.Kind {
	case PropFindPropName:
		b.WriteString("<propname/>")
	case PropFindAllProp:
		b.WriteString("<allprop/>")
		if len(pf.Include) > 0 {
			b.WriteString("<include>")
			for _, p := range pf.Include {
				b.WriteString("<" + p.Name + "/>")
			}
			b.WriteString("</include>")
		}
	case PropFindProp:
		b.WriteString("<prop>")
		for _, p := range pf.Props {
			b.WriteString("<" + p.Name + "/>")
		}
		b.WriteString("</prop>")
	}
	b.WriteString("</propfind>")
	return b.String()
}
