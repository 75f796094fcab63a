package ziplog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/raoulx24/ziplog/internal/attach"
)

// Attachment asks the sink to add a named binary entry to the current
// archive. A logged value is either plain or an attachment request; there is
// no structural sniffing of arbitrary objects.
type Attachment struct {
	Filename    string
	Data        []byte
	Compression CompressionLevel
}

// LogAttachment makes Attachment its own provider, so
// zap.Any("file", ziplog.Attachment{...}) works directly.
func (a Attachment) LogAttachment() Attachment { return a }

// AttachmentProvider is the capability check applied at the field boundary.
// Any logged value implementing it is rewritten into the encoded scalar
// string before reaching the sink; all other values pass through untouched.
type AttachmentProvider interface {
	LogAttachment() Attachment
}

// File is a zap.Field constructor for attaching data under name with the
// default (fastest) compression.
func File(key, name string, data []byte) zap.Field {
	return FileWithCompression(key, name, data, CompressionFastest)
}

// FileWithCompression is File with an explicit compression level. A request
// with an empty name or payload is not encodable and the field is skipped.
func FileWithCompression(key, name string, data []byte, level CompressionLevel) zap.Field {
	enc, err := attach.Encode(name, level, data)
	if err != nil {
		return zap.Skip()
	}
	return zap.String(key, enc)
}

// encodeFields resolves the attachment protocol at the boundary: fields
// whose value implements AttachmentProvider become encoded string fields.
// The input slice is never mutated.
func encodeFields(fields []zapcore.Field) []zapcore.Field {
	out := fields
	copied := false
	for i, f := range fields {
		p, ok := f.Interface.(AttachmentProvider)
		if !ok {
			continue
		}
		a := p.LogAttachment()
		enc, err := attach.Encode(a.Filename, a.Compression, a.Data)
		if err != nil {
			// not encodable; leave the original value in place
			continue
		}
		if !copied {
			out = make([]zapcore.Field, len(fields))
			copy(out, fields)
			copied = true
		}
		out[i] = zap.String(f.Key, enc)
	}
	return out
}

// extractAttachment scans string-typed fields for an encoded attachment and
// returns the first decode. Malformed candidates stay ordinary text.
func extractAttachment(fields []zapcore.Field) (name string, level CompressionLevel, data []byte, found bool) {
	for _, f := range fields {
		if f.Type != zapcore.StringType {
			continue
		}
		if n, l, d, ok := attach.Decode(f.String); ok {
			return n, l, d, true
		}
	}
	return "", 0, nil, false
}
