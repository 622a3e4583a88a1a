package inbox

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/rotisserie/eris"
)

const maxPartBytes = 20 << 20

// Parsed is the part of a notification email the pipeline cares about.
type Parsed struct {
	MessageID string
	Subject   string
	Date      time.Time
	Plain     string
	HTML      string
}

// ParseMessage decodes an RFC822 message and keeps the largest text/plain
// and text/html parts. Transfer encodings and charsets are decoded.
func ParseMessage(raw []byte, fallbackSubject string) (Parsed, error) {
	out := Parsed{Subject: strings.TrimSpace(fallbackSubject)}
	if len(raw) == 0 {
		return out, nil
	}

	e, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return out, eris.Wrap(err, "mime: read message")
	}

	h := mail.Header{Header: e.Header}
	if id, err := h.MessageID(); err == nil {
		out.MessageID = id
	}
	if s, err := h.Subject(); err == nil && strings.TrimSpace(s) != "" {
		out.Subject = strings.TrimSpace(s)
	}
	if d, err := h.Date(); err == nil {
		out.Date = d
	}

	err = e.Walk(func(_ []int, part *message.Entity, err error) error {
		if err != nil {
			// skip unreadable parts, keep walking
			return nil
		}
		mediaType, _, _ := part.Header.ContentType()
		mediaType = strings.ToLower(mediaType)
		if strings.HasPrefix(mediaType, "multipart/") {
			return nil
		}
		if disp, _, _ := part.Header.ContentDisposition(); disp == "attachment" {
			return nil
		}

		b, rerr := io.ReadAll(io.LimitReader(part.Body, maxPartBytes))
		if rerr != nil {
			return nil
		}
		switch {
		case mediaType == "text/html":
			if len(b) > len(out.HTML) {
				out.HTML = string(b)
			}
		case mediaType == "text/plain" || mediaType == "":
			if len(b) > len(out.Plain) {
				out.Plain = string(b)
			}
		}
		return nil
	})
	if err != nil {
		return out, eris.Wrap(err, "mime: walk parts")
	}
	return out, nil
}

func containsAnyCI(s string, any []string) bool {
	ls := strings.ToLower(s)
	for _, a := range any {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if strings.Contains(ls, strings.ToLower(a)) {
			return true
		}
	}
	return false
}
