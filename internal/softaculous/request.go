package softaculous

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"
)

// Param is one key/value pair of an ordered parameter list.
type Param struct {
	Key   string
	Value string
}

// Params keeps parameters in insertion order; Softaculous reads some forms
// positionally so the order sent matches the order built.
type Params []Param

func (p *Params) Add(key, value string) {
	*p = append(*p, Param{Key: key, Value: value})
}

func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Encode renders the parameters as an application/x-www-form-urlencoded string.
func (p Params) Encode() string {
	var sb strings.Builder
	for i, kv := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv.Value))
	}
	return sb.String()
}

// BodyPart is a file carried in a multipart upload.
type BodyPart struct {
	FieldName string
	Filename  string
	MimeType  string
	Content   []byte
}

// ActionRequest is one Softaculous API call before it is bound to a backend.
type ActionRequest struct {
	Action string
	Query  Params
	Form   Params
	Parts  []BodyPart
	// Heavy selects the long timeout bound.
	Heavy bool
}

func (r *ActionRequest) method() string {
	if len(r.Form) > 0 || len(r.Parts) > 0 {
		return "POST"
	}
	return "GET"
}

// target returns the path plus the api=json&act=... query string.
func (r *ActionRequest) target(path string) string {
	q := Params{{Key: "api", Value: "json"}, {Key: "act", Value: r.Action}}
	q = append(q, r.Query...)
	return path + "?" + q.Encode()
}

// body renders the request payload. It is called once per attempt so each
// fallback path gets a fresh reader over the same bytes.
func (r *ActionRequest) body() (payload []byte, contentType string, err error) {
	if len(r.Parts) == 0 {
		if len(r.Form) == 0 {
			return nil, "", nil
		}
		return []byte(r.Form.Encode()), "application/x-www-form-urlencoded", nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, kv := range r.Form {
		if err := mw.WriteField(kv.Key, kv.Value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", kv.Key, err)
		}
	}
	for _, part := range r.Parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, part.FieldName, part.Filename))
		mime := part.MimeType
		if mime == "" {
			mime = "application/octet-stream"
		}
		h.Set("Content-Type", mime)
		w, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", part.FieldName, err)
		}
		if _, err := w.Write(part.Content); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", part.FieldName, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
