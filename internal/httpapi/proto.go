package httpapi

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"google.golang.org/protobuf/proto"
)

// maxRequestBody caps request bodies in either encoding. A signed
// CreateCollectionRequest with a full 200-byte description stays well
// under 2 KiB.
const maxRequestBody = 8192

const protobufContentType = "application/x-protobuf"

var protobufMediaTypes = map[string]bool{
	protobufContentType:        true,
	"application/protobuf":     true,
	"application/octet-stream": true,
}

// isProtobuf reports whether the request body is a protobuf payload.
// Media type parameters are ignored.
func isProtobuf(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && protobufMediaTypes[mt]
}

// wantsProtobuf reports whether the Accept header names a protobuf type.
// Plain octet-stream is not taken as a request for protobuf.
func wantsProtobuf(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mt != "application/octet-stream" && protobufMediaTypes[mt] {
			return true
		}
	}
	return false
}

func readProto(r *http.Request, msg proto.Message) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		return err
	}
	if len(body) > maxRequestBody {
		return fmt.Errorf("body exceeds %d bytes", maxRequestBody)
	}
	return proto.Unmarshal(body, msg)
}

func writeProto(w http.ResponseWriter, status int, msg proto.Message) {
	data, err := proto.Marshal(msg)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}
	w.Header().Set("Content-Type", protobufContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
