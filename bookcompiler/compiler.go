// Package bookcompiler turns a finished bedtime story into a printable
// PDF storybook: a title page, the poster when one was generated, and one
// chapter per scene rendered from the story's markdown.
package bookcompiler

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"

	bedtime "github.com/opd-ai/bedtime/src"
)

// StorybookCompiler renders one story into one PDF document.
type StorybookCompiler struct {
	pdf         *gofpdf.Fpdf
	titleFont   string
	textFont    string
	pageNumbers bool
}

// NewStorybookCompiler creates a compiler with the stock storybook look.
func NewStorybookCompiler() *StorybookCompiler {
	return &StorybookCompiler{
		titleFont:   "Arial",
		textFont:    "Times",
		pageNumbers: true,
	}
}

// Compile renders the session's story. The poster is optional; pass nil
// to skip the illustration page.
func (sc *StorybookCompiler) Compile(session *bedtime.Session, poster []byte) error {
	if !session.Active() {
		return bedtime.ErrNoActiveStory
	}

	sc.pdf = gofpdf.New("P", "mm", "A4", "")
	sc.pdf.SetMargins(20, 20, 20)

	if sc.pageNumbers {
		sc.pdf.SetFooterFunc(func() {
			sc.pdf.SetY(-15)
			sc.pdf.SetFont(sc.titleFont, "I", 8)
			sc.pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", sc.pdf.PageNo()),
				"", 0, "C", false, 0, "")
		})
	}

	sc.titlePage(session)

	if len(poster) > 0 {
		sc.posterPage(poster)
	}

	for i, scene := range session.Scenes {
		if err := sc.scenePage(i+1, scene); err != nil {
			return fmt.Errorf("rendering scene %d: %w", i+1, err)
		}
	}

	if session.Complete() {
		sc.pdf.Ln(15)
		sc.pdf.SetFont(sc.titleFont, "B", 16)
		sc.pdf.CellFormat(0, 10, "The End!", "", 0, "C", false, 0, "")
	}

	return sc.pdf.Error()
}

// WriteTo streams the compiled PDF. Compile must have been called first.
func (sc *StorybookCompiler) WriteTo(w io.Writer) error {
	if sc.pdf == nil {
		return fmt.Errorf("nothing compiled yet")
	}
	return sc.pdf.Output(w)
}

// SaveTo writes the compiled PDF to a file.
func (sc *StorybookCompiler) SaveTo(path string) error {
	if sc.pdf == nil {
		return fmt.Errorf("nothing compiled yet")
	}
	return sc.pdf.OutputFileAndClose(path)
}

func (sc *StorybookCompiler) titlePage(session *bedtime.Session) {
	sc.pdf.AddPage()
	sc.pdf.SetY(80)
	sc.pdf.SetFont(sc.titleFont, "B", 28)
	sc.pdf.MultiCell(0, 12, sc.cleanText(session.Idea), "", "C", false)
	sc.pdf.Ln(10)
	sc.pdf.SetFont(sc.titleFont, "I", 14)
	sc.pdf.CellFormat(0, 10, sc.cleanText(session.Category), "", 0, "C", false, 0, "")
}

func (sc *StorybookCompiler) posterPage(poster []byte) {
	sc.pdf.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	sc.pdf.RegisterImageOptionsReader("poster", opts, bytes.NewReader(poster))
	// Centered square illustration, full content width.
	sc.pdf.ImageOptions("poster", 20, 40, 170, 170, false, opts, 0, "")
}

func (sc *StorybookCompiler) scenePage(sceneNo int, scene string) error {
	sc.pdf.AddPage()
	sc.pdf.SetFont(sc.titleFont, "B", 20)
	sc.pdf.Cell(0, 10, fmt.Sprintf("Scene %d", sceneNo))
	sc.pdf.Ln(16)

	htmlBytes := blackfriday.Run([]byte(scene))
	doc, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return fmt.Errorf("parsing html: %w", err)
	}
	return sc.renderNode(doc)
}

var nonLatin = regexp.MustCompile(`[^\x20-\x7E]+`)

// cleanText keeps PDF output inside the core font's character set: smart
// punctuation is normalized and emoji are dropped.
func (sc *StorybookCompiler) cleanText(text string) string {
	text = strings.ReplaceAll(text, "“", `"`)
	text = strings.ReplaceAll(text, "”", `"`)
	text = strings.ReplaceAll(text, "‘", "'")
	text = strings.ReplaceAll(text, "’", "'")
	text = strings.ReplaceAll(text, "…", "...")
	text = strings.ReplaceAll(text, "—", "-")
	text = strings.ReplaceAll(text, "–", "-")
	return nonLatin.ReplaceAllString(text, "")
}
