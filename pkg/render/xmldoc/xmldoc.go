// Package xmldoc renders decomposed entity graphs as XML import documents.
//
// A document wraps one InsertUpdate block per entity in a schema element:
//
//	<schema>
//	  <InsertUpdate target="User">
//	    <row>
//	      <property name="email">x@y.z</property>
//	    </row>
//	  </InsertUpdate>
//	  <InsertUpdate target="Article">
//	    <row>
//	      <property name="id">1</property>
//	      <property name="author">article/author#email:x@y.z</property>
//	    </row>
//	  </InsertUpdate>
//	</schema>
//
// List properties hold one value element per item. Blocks appear in the
// order given, which [decompose.Decompose] arranges so that references
// point backwards.
//
// Templates are filled by replacing a body placeholder with the rendered
// children; all attribute and text content is escaped.
package xmldoc

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/matzehuels/xmlbridge/pkg/decompose"
	"github.com/matzehuels/xmlbridge/pkg/entity"
	"github.com/matzehuels/xmlbridge/pkg/errors"
)

// Extension is the file extension of rendered documents.
const Extension = ".xml"

// BodyToken is the placeholder each template replaces with its children.
const BodyToken = "{{body}}"

const (
	schemaTpl       = `<?xml version="1.0" encoding="UTF-8"?>` + "\n<schema>\n" + BodyToken + "</schema>\n"
	insertUpdateTpl = `  <InsertUpdate target="{{target}}">` + "\n" + BodyToken + "  </InsertUpdate>\n"
	rowTpl          = "    <row>\n" + BodyToken + "    </row>\n"
	propertyTpl     = `      <property name="{{name}}">` + BodyToken + "</property>\n"
	valueTpl        = "        <value>" + BodyToken + "</value>\n"
)

// fill substitutes body into tpl. Attribute placeholders precede the body
// in every template, so they are set after filling and a body that happens
// to contain placeholder text is left alone.
func fill(tpl, body string) string {
	return strings.Replace(tpl, BodyToken, body, 1)
}

func setAttr(block, placeholder, value string) string {
	return strings.Replace(block, placeholder, escape(value), 1)
}

// Render renders nodes in the given order.
func Render(nodes []*decompose.Node) ([]byte, error) {
	var body strings.Builder
	for _, n := range nodes {
		block, err := renderNode(n)
		if err != nil {
			return nil, err
		}
		body.WriteString(block)
	}
	return []byte(fill(schemaTpl, body.String())), nil
}

// RenderResult renders a decomposition result.
func RenderResult(res *decompose.Result) ([]byte, error) {
	return Render(res.Nodes)
}

func renderNode(n *decompose.Node) (string, error) {
	var props strings.Builder
	for _, key := range n.Data.Keys() {
		v, _ := n.Data.Get(key)
		p, err := renderProperty(key, v)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s block %s", n.Type, n.Path)
		}
		props.WriteString(p)
	}
	block := fill(insertUpdateTpl, fill(rowTpl, props.String()))
	return setAttr(block, "{{target}}", n.Type), nil
}

func renderProperty(name string, v any) (string, error) {
	if l, ok := v.(*entity.List); ok {
		var values strings.Builder
		values.WriteString("\n")
		for _, it := range l.Items {
			s, err := text(name, it)
			if err != nil {
				return "", err
			}
			values.WriteString(fill(valueTpl, s))
		}
		values.WriteString("      ")
		return setAttr(fill(propertyTpl, values.String()), "{{name}}", name), nil
	}
	s, err := text(name, v)
	if err != nil {
		return "", err
	}
	return setAttr(fill(propertyTpl, s), "{{name}}", name), nil
}

// text renders a resolved value as escaped character data.
func text(name string, v any) (string, error) {
	s, ok := entity.FormatScalar(v)
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidFormat, "property %q holds unresolved %T", name, v)
	}
	return escape(s), nil
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
