package render

import (
	"bytes"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/langexport/internal/foundation/errors"
)

// SetHTMLLang sets the lang attribute of the document's <html> element.
func SetHTMLLang(page []byte, lang string) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to parse HTML").Build()
	}

	root := findElement(doc, "html")
	if root == nil {
		return page, nil
	}
	if getAttr(root, "lang") == lang {
		return page, nil
	}
	setAttr(root, "lang", lang)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to render HTML").Build()
	}
	return buf.Bytes(), nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
