// Package messaging carries gateway operations over HTTP, raw TCP,
// WebSocket and NATS. Each transport decodes its own framing and hands the
// call to an rpc.Dispatcher.
package messaging

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	// Binary protocol constants
	magicByte1      = 0x55 // 'U'
	magicByte2      = 0x57 // 'W'
	protocolVersion = 0x01
	headerSize      = 2 // magic bytes
	versionSize     = 1
	uuidSize        = 16 // request id
	methodLenSize   = 1
	contentLenSize  = 4

	requestPrefixSize  = headerSize + versionSize + uuidSize + methodLenSize
	responseHeaderSize = headerSize + versionSize + uuidSize + contentLenSize

	maxFrameSize = 10 * 1024 * 1024
)

var (
	ErrInvalidMagic   = errors.New("invalid magic bytes")
	ErrFrameTooLarge  = errors.New("frame exceeds maximum size")
	ErrFrameTruncated = errors.New("frame truncated")
)

// Frame is one decoded request frame.
type Frame struct {
	RequestID uuid.UUID
	Method    string
	Content   []byte
}

// FrameSize reports the length of the first complete request frame in buf.
// complete is false while more bytes are needed.
func FrameSize(buf []byte) (size int, complete bool, err error) {
	if len(buf) < requestPrefixSize {
		return 0, false, nil
	}
	if buf[0] != magicByte1 || buf[1] != magicByte2 {
		return 0, false, ErrInvalidMagic
	}
	if buf[2] != protocolVersion {
		return 0, false, fmt.Errorf("unsupported protocol version: %d", buf[2])
	}

	offset := headerSize + versionSize + uuidSize
	methodLen := int(buf[offset])
	offset += methodLenSize + methodLen
	if len(buf) < offset+contentLenSize {
		return 0, false, nil
	}

	contentLen := binary.LittleEndian.Uint32(buf[offset : offset+contentLenSize])
	offset += contentLenSize
	if contentLen > maxFrameSize {
		return 0, false, ErrFrameTooLarge
	}

	total := offset + int(contentLen)
	if len(buf) < total {
		return 0, false, nil
	}
	return total, true, nil
}

// DecodeFrame parses exactly one request frame.
func DecodeFrame(data []byte) (*Frame, error) {
	size, complete, err := FrameSize(data)
	if err != nil {
		return nil, err
	}
	if !complete || size != len(data) {
		return nil, ErrFrameTruncated
	}

	offset := headerSize + versionSize
	id, err := uuid.FromBytes(data[offset : offset+uuidSize])
	if err != nil {
		return nil, err
	}
	offset += uuidSize

	methodLen := int(data[offset])
	offset += methodLenSize
	method := string(data[offset : offset+methodLen])
	offset += methodLen + contentLenSize

	content := make([]byte, len(data)-offset)
	copy(content, data[offset:])

	return &Frame{RequestID: id, Method: method, Content: content}, nil
}

// EncodeRequest builds a request frame. Method names are limited to 255 bytes.
func EncodeRequest(id uuid.UUID, method string, content []byte) ([]byte, error) {
	if len(method) > 0xff {
		return nil, fmt.Errorf("method name too long: %d bytes", len(method))
	}

	out := make([]byte, requestPrefixSize+len(method)+contentLenSize+len(content))
	out[0] = magicByte1
	out[1] = magicByte2
	out[2] = protocolVersion
	copy(out[headerSize+versionSize:], id[:])

	offset := headerSize + versionSize + uuidSize
	out[offset] = byte(len(method))
	offset += methodLenSize
	copy(out[offset:], method)
	offset += len(method)

	binary.LittleEndian.PutUint32(out[offset:], uint32(len(content)))
	copy(out[offset+contentLenSize:], content)
	return out, nil
}

// EncodeResponse builds a response frame. Responses carry no method name.
func EncodeResponse(id uuid.UUID, content []byte) []byte {
	out := make([]byte, responseHeaderSize+len(content))
	out[0] = magicByte1
	out[1] = magicByte2
	out[2] = protocolVersion
	copy(out[headerSize+versionSize:], id[:])
	binary.LittleEndian.PutUint32(out[headerSize+versionSize+uuidSize:], uint32(len(content)))
	copy(out[responseHeaderSize:], content)
	return out
}

// DecodeResponse splits a response frame into its request id and content.
func DecodeResponse(data []byte) (uuid.UUID, []byte, error) {
	if len(data) < responseHeaderSize {
		return uuid.Nil, nil, ErrFrameTruncated
	}
	if data[0] != magicByte1 || data[1] != magicByte2 {
		return uuid.Nil, nil, ErrInvalidMagic
	}

	id, err := uuid.FromBytes(data[headerSize+versionSize : headerSize+versionSize+uuidSize])
	if err != nil {
		return uuid.Nil, nil, err
	}
	contentLen := binary.LittleEndian.Uint32(data[headerSize+versionSize+uuidSize:])
	if len(data) != responseHeaderSize+int(contentLen) {
		return uuid.Nil, nil, ErrFrameTruncated
	}
	return id, data[responseHeaderSize:], nil
}

// requestID returns the id of a possibly malformed frame, or uuid.Nil.
func requestID(data []byte) uuid.UUID {
	if len(data) < headerSize+versionSize+uuidSize {
		return uuid.Nil
	}
	id, err := uuid.FromBytes(data[headerSize+versionSize : headerSize+versionSize+uuidSize])
	if err != nil {
		return uuid.Nil
	}
	return id
}
