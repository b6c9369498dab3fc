package webdav

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

const davNS = "DAV:"

// PropertyName identifies an XML element by namespace and local name.
type PropertyName struct {
	Namespace string
	Name      string
}

func (p PropertyName) isStandard() bool {
	if p.Namespace != davNS {
		return false
	}
	switch p.Name {
	case "creationdate", "displayname", "getcontentlength", "getcontenttype", "getetag", "getlastmodified", "resourcetype":
		return true
	default:
		return false
	}
}

// PropFindKind discriminates the three request shapes a PROPFIND body can
// take.
type PropFindKind int

const (
	PropFindPropName PropFindKind = iota
	PropFindAllProp
	PropFindProp
)

// PropFind is a parsed PROPFIND request body.
type PropFind struct {
	Kind    PropFindKind
	Include []PropertyName // only meaningful when Kind == PropFindAllProp
	Props   []PropertyName // only meaningful when Kind == PropFindProp
}

// DefaultPropFind is what an empty request body means: an allprop request
// with no includes.
var DefaultPropFind = PropFind{Kind: PropFindAllProp}

// Parse errors, named after the condition that made the request body
// unacceptable as a PROPFIND document.
type (
	// UnexpectedTagError reports an XML element that cannot appear inside
	// container.
	UnexpectedTagError struct {
		Container string
		Tag       string
	}
	// PrematureEndError reports a document that ends before the element
	// named by Tag is closed.
	PrematureEndError struct{ Tag string }
	// EmptyPropFindError reports a <propfind> element with no recognized
	// child.
	EmptyPropFindError struct{}
	// IncludeSansAllpropError reports an <include> element in a <propfind>
	// that has no <allprop>.
	IncludeSansAllpropError struct{}
	// TooManyEndsError reports an end tag with no corresponding start tag
	// on the parser's stack.
	TooManyEndsError struct{}
)

func (e *UnexpectedTagError) Error() string {
	return fmt.Sprintf("webdav: unexpected tag %q inside %q", e.Tag, e.Container)
}
func (e *PrematureEndError) Error() string    { return fmt.Sprintf("webdav: premature end of %q", e.Tag) }
func (e *EmptyPropFindError) Error() string   { return "webdav: propfind element has no recognized child" }
func (e *IncludeSansAllpropError) Error() string {
	return "webdav: include is only valid alongside allprop"
}
func (e *TooManyEndsError) Error() string { return "webdav: unbalanced end tag" }

// parserState is the push-down automaton's stack alphabet: Root → PropFind →
// {PropName | AllProp | Include | Prop} → Property.
type parserState int

const (
	stateRoot parserState = iota
	statePropFind
	statePropName
	stateAllProp
	stateInclude
	stateProp
	stateProperty
)

// ParsePropFind parses r as a PROPFIND request body. An empty body (no
// tokens at all) yields DefaultPropFind.
func ParsePropFind(r io.Reader) (PropFind, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return PropFind{}, fmt.Errorf("webdav: failed to read PROPFIND body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return DefaultPropFind, nil
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	stack := []parserState{stateRoot}
	result := PropFind{}
	sawAllProp, sawInclude, sawProp, sawPropName := false, false, false, false

	top := func() parserState { return stack[len(stack)-1] }
	push := func(s parserState) { stack = append(stack, s) }
	pop := func() error {
		if len(stack) <= 1 {
			return &TooManyEndsError{}
		}
		stack = stack[:len(stack)-1]
		return nil
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return PropFind{}, fmt.Errorf("webdav: malformed PROPFIND XML: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := PropertyName{Namespace: t.Name.Space, Name: t.Name.Local}
			switch top() {
			case stateRoot:
				if name.Namespace != davNS || name.Name != "propfind" {
					return PropFind{}, &UnexpectedTagError{Container: "", Tag: name.Name}
				}
				push(statePropFind)
			case statePropFind:
				switch {
				case name.Namespace == davNS && name.Name == "propname":
					sawPropName = true
					result.Kind = PropFindPropName
					push(statePropName)
				case name.Namespace == davNS && name.Name == "allprop":
					if sawAllProp {
						return PropFind{}, &UnexpectedTagError{Container: "propfind", Tag: name.Name}
					}
					sawAllProp = true
					result.Kind = PropFindAllProp
					push(stateAllProp)
				case name.Namespace == davNS && name.Name == "include":
					if sawInclude {
						return PropFind{}, &UnexpectedTagError{Container: "propfind", Tag: name.Name}
					}
					sawInclude = true
					push(stateInclude)
				case name.Namespace == davNS && name.Name == "prop":
					sawProp = true
					result.Kind = PropFindProp
					push(stateProp)
				default:
					return PropFind{}, &UnexpectedTagError{Container: "propfind", Tag: name.Name}
				}
			case stateInclude:
				result.Include = append(result.Include, name)
				push(stateProperty)
			case stateProp:
				result.Props = append(result.Props, name)
				push(stateProperty)
			case statePropName, stateAllProp, stateProperty:
				return PropFind{}, &UnexpectedTagError{Container: "property", Tag: name.Name}
			}
		case xml.EndElement:
			if err := pop(); err != nil {
				return PropFind{}, err
			}
		}
	}
	if len(stack) != 1 {
		return PropFind{}, &PrematureEndError{Tag: "propfind"}
	}
	if sawInclude && !sawAllProp {
		return PropFind{}, &IncludeSansAllpropError{}
	}
	if !sawPropName && !sawAllProp && !sawProp {
		return PropFind{}, &EmptyPropFindError{}
	}
	return result, nil
}
