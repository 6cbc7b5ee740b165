package model

import (
	"fmt"
	"net"
	"strconv"
)

// StdioPath selects standard input (as an input) or standard output (as a file sink).
const StdioPath = "-"

// SinkKind identifies a sink variant.
type SinkKind string

const (
	SinkFile          SinkKind = "file"
	SinkSocket        SinkKind = "socket"
	SinkHTTP          SinkKind = "http"
	SinkElasticsearch SinkKind = "elasticsearch"
)

// SinkSpec describes a destination. It carries only the description; the live
// handle is created by the sink writer when the engine starts.
//
// The set of implementations is closed: FileSpec, SocketSpec, HTTPSpec and
// ElasticsearchSpec.
type SinkSpec interface {
	// Kind returns the variant tag.
	Kind() SinkKind

	// String returns the destination in the command-line form it was given.
	String() string

	sinkSpec()
}

// FileSpec writes blocks to a file, created or truncated at open.
type FileSpec struct {
	Path string
}

func (FileSpec) Kind() SinkKind   { return SinkFile }
func (s FileSpec) String() string { return "of=" + s.Path }
func (FileSpec) sinkSpec()        {}

// SocketSpec writes blocks as a raw byte stream over one TCP connection.
type SocketSpec struct {
	Host string
	Port int
}

func (SocketSpec) Kind() SinkKind { return SinkSocket }
func (s SocketSpec) String() string {
	return "os=" + s.Address()
}
func (SocketSpec) sinkSpec() {}

// Address returns the dialable host:port form.
func (s SocketSpec) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// HTTPSpec sends one request per block, with the block as the request body.
type HTTPSpec struct {
	Method string
	URL    string
}

func (HTTPSpec) Kind() SinkKind { return SinkHTTP }
func (s HTTPSpec) String() string {
	return fmt.Sprintf("ohttp=%s;%s", s.Method, s.URL)
}
func (HTTPSpec) sinkSpec() {}

// ElasticsearchSpec indexes one document per block.
type ElasticsearchSpec struct {
	URL   string
	Index string
}

func (ElasticsearchSpec) Kind() SinkKind { return SinkElasticsearch }
func (s ElasticsearchSpec) String() string {
	return fmt.Sprintf("oes=%s;%s", s.URL, s.Index)
}
func (ElasticsearchSpec) sinkSpec() {}
