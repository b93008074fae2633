package softaculous

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const previewLen = 500

// DirectAdmin answers with a login banner and HTTP 200 when the session
// cookie is missing or rejected.
var notAuthenticatedMarkers = [][]byte{
	[]byte("Not logged in"),
	[]byte("Error Code: 1"),
}

// decodeResponse classifies one HTTP exchange and, on 200, decodes the body
// into a reply tree.
func decodeResponse(status int, body []byte) (any, error) {
	switch {
	case status == http.StatusUnauthorized:
		return nil, &Error{Kind: KindAuthFailed, Message: "authentication failed (401), check username/password", Status: status}
	case status == http.StatusNotFound:
		return nil, &Error{Kind: KindUnreachable, Message: "softaculous not found (404)", Status: status}
	case status != http.StatusOK:
		return nil, &Error{Kind: KindTransport, Message: fmt.Sprintf("HTTP error %d", status), Status: status}
	}

	for _, marker := range notAuthenticatedMarkers {
		if bytes.Contains(body, marker) {
			return nil, &Error{Kind: KindAuthFailed, Message: "backend reports not logged in, check username/password", Status: status}
		}
	}

	if v, ok := decodeJSON(body); ok {
		return v, nil
	}
	if v, err := unserializePHP(body); err == nil {
		if _, isMap := v.(map[string]any); isMap {
			return v, nil
		}
	}

	preview := body
	if len(preview) > previewLen {
		preview = preview[:previewLen]
	}
	return nil, &Error{Kind: KindMalformedResponse, Message: "invalid response format", Status: status, Preview: string(preview)}
}

// decodeJSON accepts only an object or an array at the top level.
func decodeJSON(body []byte) (any, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, false
	}
	return v, true
}
