package domain

import "time"

// MessageEnvelope is the provider-neutral view of a fetched mail message:
// just the headers and the part tree, which is all the pipeline needs.
type MessageEnvelope struct {
	ID         string    `json:"id"`
	Headers    []Header  `json:"headers"`
	Parts      []Part    `json:"parts"`
	ReceivedAt time.Time `json:"received_at"`
}

type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Part mirrors a MIME part. Multipart containers carry nested Parts;
// attachment parts carry a Filename and an AttachmentID.
type Part struct {
	Filename     string `json:"filename"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
	AttachmentID string `json:"attachment_id"`
	Parts        []Part `json:"parts,omitempty"`
}

// Header returns the value of the first header with the given name, or "".
func (m *MessageEnvelope) Header(name string) string {
	for _, h := range m.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

func (m *MessageEnvelope) Subject() string {
	return m.Header("Subject")
}

func (m *MessageEnvelope) From() string {
	return m.Header("From")
}
