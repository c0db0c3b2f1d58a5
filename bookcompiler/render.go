package bookcompiler

import (
	"strings"

	"golang.org/x/net/html"
)

func (sc *StorybookCompiler) renderNode(n *html.Node) error {
	switch n.Type {
	case html.TextNode:
		if text := sc.cleanText(n.Data); strings.TrimSpace(text) != "" {
			sc.pdf.Write(6, text)
		}
	case html.ElementNode:
		switch n.Data {
		case "h1":
			sc.pdf.Ln(10)
			sc.pdf.SetFont(sc.titleFont, "B", 18)
			sc.renderChildren(n)
			sc.pdf.SetFont(sc.textFont, "", 13)
			sc.pdf.Ln(10)
			return nil
		case "h2", "h3", "h4":
			sc.pdf.Ln(8)
			sc.pdf.SetFont(sc.titleFont, "B", 14)
			sc.renderChildren(n)
			sc.pdf.SetFont(sc.textFont, "", 13)
			sc.pdf.Ln(8)
			return nil
		case "p":
			sc.pdf.SetFont(sc.textFont, "", 13)
			sc.renderChildren(n)
			sc.pdf.Ln(10)
			return nil
		case "strong", "b":
			sc.pdf.SetFont(sc.textFont, "B", 13)
			sc.renderChildren(n)
			sc.pdf.SetFont(sc.textFont, "", 13)
			return nil
		case "em", "i":
			sc.pdf.SetFont(sc.textFont, "I", 13)
			sc.renderChildren(n)
			sc.pdf.SetFont(sc.textFont, "", 13)
			return nil
		case "ul", "ol":
			sc.pdf.Ln(4)
			sc.renderChildren(n)
			sc.pdf.Ln(4)
			return nil
		case "li":
			sc.pdf.Write(6, "- ")
			sc.renderChildren(n)
			sc.pdf.Ln(6)
			return nil
		}
	}

	return sc.renderChildren(n)
}

func (sc *StorybookCompiler) renderChildren(n *html.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := sc.renderNode(c); err != nil {
			return err
		}
	}
	return nil
}
