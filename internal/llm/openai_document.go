package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// documentPartDoer rewrites PDF data URLs, which go-openai can only express as
// image_url parts, into the "file" content parts the chat completions API
// expects for documents. It is unnecessary once ChatMessagePart gains a file
// part type.
type documentPartDoer struct {
	inner openai.HTTPDoer
}

func (d *documentPartDoer) Do(req *http.Request) (*http.Response, error) {
	if req.Body == nil || !strings.HasSuffix(req.URL.Path, "/chat/completions") {
		return d.inner.Do(req)
	}

	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}

	rewritten, err := rewriteDocumentParts(body)
	if err != nil {
		return nil, err
	}

	req.Body = io.NopCloser(bytes.NewReader(rewritten))
	req.ContentLength = int64(len(rewritten))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(rewritten)), nil
	}
	return d.inner.Do(req)
}

const pdfDataURLPrefix = "data:" + MediaTypePDF + ";"

// rewriteDocumentParts returns body unchanged unless it carries PDF data URLs.
func rewriteDocumentParts(body []byte) ([]byte, error) {
	if !bytes.Contains(body, []byte(pdfDataURLPrefix)) {
		return body, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode chat request: %w", err)
	}

	messages, _ := payload["messages"].([]any)
	for _, m := range messages {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		parts, ok := msg["content"].([]any)
		if !ok {
			continue
		}
		for i, p := range parts {
			part, ok := p.(map[string]any)
			if !ok || part["type"] != string(openai.ChatMessagePartTypeImageURL) {
				continue
			}
			img, _ := part["image_url"].(map[string]any)
			u, _ := img["url"].(string)
			if !strings.HasPrefix(u, pdfDataURLPrefix) {
				continue
			}
			name, data := splitDocumentDataURL(u)
			parts[i] = map[string]any{
				"type": "file",
				"file": map[string]any{
					"filename":  name,
					"file_data": data,
				},
			}
		}
	}

	out, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}
	return out, nil
}

// splitDocumentDataURL extracts the name parameter and returns the data URL
// without it.
func splitDocumentDataURL(u string) (name, dataURL string) {
	name = "document.pdf"
	header, payload, ok := strings.Cut(u, ",")
	if !ok {
		return name, u
	}

	var kept []string
	for _, param := range strings.Split(header, ";") {
		if v, found := strings.CutPrefix(param, "name="); found {
			if unescaped, err := url.QueryUnescape(v); err == nil && unescaped != "" {
				name = unescaped
			}
			continue
		}
		kept = append(kept, param)
	}
	return name, strings.Join(kept, ";") + "," + payload
}
