package core

// xml.go decodes tag exports of the form:
//
//	<Tags>
//	  <Tag name="Tank1" type="AtomicTag">
//	    <Property name="opcItemPath">ns=1;s=Tank1</Property>
//	    <CompoundProperty name="alarms">
//	      <PropertySet>
//	        <Property name="priority">3</Property>
//	      </PropertySet>
//	    </CompoundProperty>
//	  </Tag>
//	</Tags>
//
// Every Tag element is converted, wherever it sits in the tree, in document
// order. Unknown elements are skipped.

import (
	"encoding/xml"
	"errors"
	"io"

	"golang.org/x/net/html/charset"
)

const (
	elemTag              = "Tag"
	elemProperty         = "Property"
	elemCompoundProperty = "CompoundProperty"
	elemPropertySet      = "PropertySet"
	attrName             = "name"
	attrType             = "type"
)

// xmlNode is a minimal element tree node. textStart and textEnd index the
// tree's shared text buffer; they are only filled for Property elements and
// their descendants.
type xmlNode struct {
	name      string
	attrs     map[string]string
	children  []*xmlNode
	textStart int
	textEnd   int
}

func (n *xmlNode) attr(name string) string {
	return n.attrs[name]
}

// xmlTree holds the decoded elements and the character data collected inside
// Property elements. Each chunk is stored once, so nested Property elements
// share it instead of copying.
type xmlTree struct {
	root *xmlNode
	text []byte
}

// textContent returns the character data of n and its descendants, like DOM
// textContent. Only valid for Property elements.
func (t *xmlTree) textContent(n *xmlNode) string {
	return string(t.text[n.textStart:n.textEnd])
}

// ParseXML converts a tag export document into normalized tag records.
// Any parse failure is returned as ErrMalformedDocument.
func ParseXML(r io.Reader) ([]TagRecord, error) {
	tree, err := decodeXMLTree(r)
	if err != nil {
		return nil, malformed(FormatXML, err)
	}

	var records []TagRecord
	walkXML(tree.root, func(n *xmlNode) {
		if n.name != elemTag {
			return
		}
		if rec, ok := Normalize(buildXMLTag(tree, n)); ok {
			records = append(records, rec)
		}
	})

	if records == nil {
		records = []TagRecord{}
	}
	return records, nil
}

// buildXMLTag fills a builder from a Tag element and its direct children.
func buildXMLTag(tree *xmlTree, tag *xmlNode) *TagBuilder {
	b := NewTagBuilder()
	b.Set(propName, StringValue(tag.attr(attrName)))
	b.Set(propTagType, StringValue(tag.attr(attrType)))

	for _, child := range tag.children {
		switch {
		case child.name == elemProperty:
			if key := child.attr(attrName); key != "" {
				b.Set(key, CoerceJSON(tree.textContent(child)))
			}
		case child.name == elemCompoundProperty && child.attr(attrName) == propAlarms:
			for _, set := range child.children {
				if set.name != elemPropertySet {
					continue
				}
				alarm := b.AddAlarm()
				for _, prop := range set.children {
					if prop.name != elemProperty {
						continue
					}
					if key := prop.attr(attrName); key != "" {
						alarm[key] = CoerceJSON(tree.textContent(prop))
					}
				}
			}
		}
	}

	return b
}

// decodeXMLTree reads a whole document into an element tree.
// The document must have exactly one root element.
func decodeXMLTree(r io.Reader) (*xmlTree, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		tree      xmlTree
		stack     []*xmlNode
		openProps int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{
				name:      t.Name.Local,
				attrs:     make(map[string]string, len(t.Attr)),
				textStart: len(tree.text),
			}
			for _, a := range t.Attr {
				n.attrs[a.Name.Local] = a.Value
			}
			if n.name == elemProperty {
				openProps++
			}
			if len(stack) == 0 {
				if tree.root != nil {
					return nil, errors.New("junk after document element")
				}
				tree.root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			n := stack[len(stack)-1]
			n.textEnd = len(tree.text)
			if n.name == elemProperty {
				openProps--
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if openProps > 0 {
				tree.text = append(tree.text, t...)
			}
		}
	}

	if len(stack) > 0 {
		return nil, errors.New("unexpected EOF: unclosed element <" + stack[len(stack)-1].name + ">")
	}
	if tree.root == nil {
		return nil, errors.New("no root element")
	}
	return &tree, nil
}

// walkXML visits n and its descendants in document order.
func walkXML(n *xmlNode, visit func(*xmlNode)) {
	visit(n)
	for _, child := range n.children {
		walkXML(child, visit)
	}
}
