package mail

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrMessageEmpty is returned when neither a text nor an HTML body is set.
var ErrMessageEmpty = errors.New("message has no body")

// envelopeAddress extracts the bare address from a header value such as
// `"Name" <user@host>` or `user@host`.
func envelopeAddress(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", ErrSMTPNoSender
	}

	addr, err := mail.ParseAddress(v)
	if err != nil {
		return "", err
	}

	return addr.Address, nil
}

func newMessageID(from string) string {
	domain := "localhost"
	if _, d, ok := strings.Cut(from, "@"); ok && d != "" {
		domain = d
	}

	return "<" + uuid.NewString() + "@" + domain + ">"
}

// FormatAddress renders a display name and address as a header value.
// An empty name yields the bare address.
func FormatAddress(name, address string) string {
	if strings.TrimSpace(name) == "" {
		return address
	}

	return (&mail.Address{Name: name, Address: address}).String()
}

func buildMessage(msg Message, messageID string, now time.Time) ([]byte, error) {
	if msg.TextBody == "" && msg.HTMLBody == "" {
		return nil, ErrMessageEmpty
	}

	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}

	header("From", msg.From)
	header("To", strings.Join(msg.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", messageID)
	header("MIME-Version", "1.0")

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		mw := multipart.NewWriter(&buf)
		header("Content-Type", `multipart/alternative; boundary="`+mw.Boundary()+`"`)
		buf.WriteString("\r\n")

		if err := writePart(mw, "text/plain", msg.TextBody); err != nil {
			return nil, err
		}
		if err := writePart(mw, "text/html", msg.HTMLBody); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
	case msg.HTMLBody != "":
		if err := writeSingle(&buf, header, "text/html", msg.HTMLBody); err != nil {
			return nil, err
		}
	default:
		if err := writeSingle(&buf, header, "text/plain", msg.TextBody); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func writeSingle(buf *bytes.Buffer, header func(k, v string), contentType, body string) error {
	header("Content-Type", contentType+"; charset=utf-8")
	header("Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	return writeQP(buf, body)
}

func writePart(mw *multipart.Writer, contentType, body string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", contentType+"; charset=utf-8")
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	w, err := mw.CreatePart(h)
	if err != nil {
		return err
	}

	var part bytes.Buffer
	if err := writeQP(&part, body); err != nil {
		return err
	}
	_, err = w.Write(part.Bytes())

	return err
}

func writeQP(buf *bytes.Buffer, body string) error {
	qp := quotedprintable.NewWriter(buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}

	return qp.Close()
}
