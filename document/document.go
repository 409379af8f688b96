package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	wl "github.com/abadojack/whatlanggo"
	pdf "github.com/dslipak/pdf"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Formats recognised by Extract.
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"
	FormatText = "text"
)

var (
	// ErrContextExtraction means a document was fetched but yielded no text.
	ErrContextExtraction = errors.New("no text could be extracted from document")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

var (
	cidV0Re   = regexp.MustCompile(`(Qm[1-9A-HJ-NP-Za-km-z]{44,})`)
	cidPathRe = regexp.MustCompile(`/ipfs/([A-Za-z0-9]+)`)
	blankRe   = regexp.MustCompile(`[ \t\f\v]+`)
)

// Document is the extracted text of an attached file.
type Document struct {
	CID      string
	Filename string
	Format   string
	Language string
	Text     string
}

// ExtractCID finds an IPFS content id in free text. It returns "" when the
// text carries none.
func ExtractCID(text string) string {
	if m := cidV0Re.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := cidPathRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// Extract reads PDF, HTML or plain text bytes. The text is NFKC normalised
// with blank lines dropped. An empty result is ErrContextExtraction.
func Extract(data []byte) (*Document, error) {
	var (
		text   string
		format string
		err    error
	)
	switch {
	case bytes.HasPrefix(bytes.TrimLeft(data, " \r\n\t"), []byte("%PDF-")):
		format = FormatPDF
		text, err = pdfText(data)
		if err != nil {
			return nil, fmt.Errorf("read pdf failed, err: %w", err)
		}
	case strings.HasPrefix(http.DetectContentType(data), "text/html"):
		format = FormatHTML
		text, err = htmlText(data)
		if err != nil {
			return nil, fmt.Errorf("parse html failed, err: %w", err)
		}
	case utf8.Valid(data):
		format = FormatText
		text = string(data)
	default:
		return nil, ErrUnsupportedFormat
	}

	text = clean(text)
	if text == "" {
		return nil, ErrContextExtraction
	}
	return &Document{Format: format, Language: language(text), Text: text}, nil
}

func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func htmlText(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, skip bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				skip = true
			}
		}
		if n.Type == html.TextNode && !skip {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(doc, false)
	return b.String(), nil
}

func clean(text string) string {
	text = strings.ToValidUTF8(text, "")
	text = norm.NFKC.String(text)
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(blankRe.ReplaceAllString(l, " "))
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func language(text string) string {
	info := wl.Detect(text)
	if info.Confidence <= 0 {
		return ""
	}
	return strings.ToLower(wl.LangToString(info.Lang))
}

// ReadLimited reads at most max bytes of r; larger bodies are an error.
func ReadLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("document larger than %d bytes", max)
	}
	return data, nil
}
