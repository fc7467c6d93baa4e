package gmail

import (
	"bytes"
	"encoding/base64"
	"mime"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/htmlindex"
	"google.golang.org/api/gmail/v1"
)

const (
	// MaxHTMLChars caps the cleaned HTML kept for audit.
	MaxHTMLChars = 20000
	// EmptyBody is used when nothing could be decoded.
	EmptyBody = "(empty)"
)

// Content is the decoded, extraction-ready view of a message.
type Content struct {
	Subject    string
	Sender     string
	Text       string
	HTML       string
	ReceivedAt time.Time
}

// ExtractContent walks the MIME tree of msg and returns headers and body.
// Text is never empty.
func ExtractContent(msg *gmail.Message) *Content {
	c := &Content{}
	if msg == nil {
		c.Text = EmptyBody
		return c
	}
	if msg.InternalDate > 0 {
		c.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	} else {
		c.ReceivedAt = time.Now().UTC()
	}
	if msg.Payload == nil {
		c.Text = fallbackText(msg.Snippet)
		return c
	}

	c.Subject = getHeader(msg.Payload.Headers, "Subject")
	c.Sender = getHeader(msg.Payload.Headers, "From")

	var plain, rawHTML []string
	var walk func(part *gmail.MessagePart)
	walk = func(part *gmail.MessagePart) {
		if part == nil {
			return
		}
		if part.Filename == "" && part.Body != nil && part.Body.Data != "" {
			mediaType, charset := partType(part)
			switch mediaType {
			case "text/plain":
				if s, ok := decodePart(part.Body.Data, charset); ok {
					plain = append(plain, s)
				}
			case "text/html":
				if s, ok := decodePart(part.Body.Data, charset); ok {
					rawHTML = append(rawHTML, s)
				}
			}
		}
		for _, p := range part.Parts {
			walk(p)
		}
	}
	walk(msg.Payload)

	text := strings.TrimSpace(strings.Join(plain, "\n"))
	if len(rawHTML) > 0 {
		joined := strings.Join(rawHTML, "\n")
		htmlText, cleaned := CleanHTML(joined)
		c.HTML = cleaned
		if text == "" || utf8.RuneCountInString(htmlText) > utf8.RuneCountInString(text) {
			text = htmlText
		}
	}

	if text == "" && msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		if s, ok := decodePart(msg.Payload.Body.Data, ""); ok {
			text = strings.TrimSpace(s)
		}
	}

	c.Text = fallbackText(text)
	return c
}

// CleanHTML drops script, style and head content and returns the visible
// text plus the cleaned markup truncated to MaxHTMLChars runes.
func CleanHTML(raw string) (text, cleaned string) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return collapseWhitespace(raw), truncateRunes(raw, MaxHTMLChars)
	}
	prune(doc)

	var tb strings.Builder
	visibleText(doc, &tb)
	text = collapseWhitespace(tb.String())

	var hb bytes.Buffer
	root := findBody(doc)
	if root == nil {
		root = doc
	}
	for ch := root.FirstChild; ch != nil; ch = ch.NextSibling {
		if err := html.Render(&hb, ch); err != nil {
			break
		}
	}
	cleaned = truncateRunes(strings.TrimSpace(hb.String()), MaxHTMLChars)
	return text, cleaned
}

// Helper functions

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

func partType(part *gmail.MessagePart) (string, string) {
	mediaType := strings.ToLower(part.MimeType)
	charset := ""
	if ct := getHeader(part.Headers, "Content-Type"); ct != "" {
		if mt, params, err := mime.ParseMediaType(ct); err == nil {
			if mediaType == "" {
				mediaType = mt
			}
			charset = params["charset"]
		}
	}
	return mediaType, charset
}

func decodePart(data, charset string) (string, bool) {
	raw, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return "", false
		}
	}
	if charset != "" && !strings.EqualFold(charset, "utf-8") && !strings.EqualFold(charset, "us-ascii") {
		if enc, err := htmlindex.Get(charset); err == nil {
			if decoded, err := enc.NewDecoder().Bytes(raw); err == nil {
				raw = decoded
			}
		}
	}
	return strings.ToValidUTF8(string(raw), ""), true
}

var prunedAtoms = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Head:     true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Meta:     true,
	atom.Link:     true,
}

func prune(n *html.Node) {
	for ch := n.FirstChild; ch != nil; {
		next := ch.NextSibling
		if ch.Type == html.CommentNode || (ch.Type == html.ElementNode && prunedAtoms[ch.DataAtom]) {
			n.RemoveChild(ch)
		} else {
			prune(ch)
		}
		ch = next
	}
}

var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Tr: true,
	atom.Table: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Ul: true, atom.Ol: true,
	atom.Blockquote: true, atom.Hr: true, atom.Td: true,
}

func visibleText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	block := n.Type == html.ElementNode && blockAtoms[n.DataAtom]
	if block {
		b.WriteByte('\n')
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		visibleText(ch, b)
	}
	if block {
		b.WriteByte('\n')
	}
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if b := findBody(ch); b != nil {
			return b
		}
	}
	return nil
}

// collapseWhitespace squeezes runs of spaces within lines and drops blank lines.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

func fallbackText(s string) string {
	if strings.TrimSpace(s) == "" {
		return EmptyBody
	}
	return s
}
