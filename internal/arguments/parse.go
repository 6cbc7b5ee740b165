// Package arguments turns the dd-style command line into operations.
//
//	pdd run if=boot.img of=/dev/sda1 of=/dev/sdb1 \
//	  -- if=root.img of=/dev/sda2 of=/dev/sdb2 \
//	  -- if=stdout.log os=localhost:9000 redir=1
package arguments

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/GabrielNunesIT/pdd/internal/model"
)

// Separator ends one operation and starts the next.
const Separator = "--"

// Parse builds one operation per Separator-delimited group of key=value
// tokens. Every operation is validated before Parse returns.
func Parse(args []string) ([]model.Operation, error) {
	var ops []model.Operation
	b := model.NewOperationBuilder()

	for _, arg := range args {
		if arg == Separator {
			op, err := b.Build()
			if err != nil {
				return nil, fmt.Errorf("operation %d: %w", len(ops)+1, err)
			}
			ops = append(ops, op)
			b = model.NewOperationBuilder()
			continue
		}

		if err := apply(b, arg); err != nil {
			return nil, fmt.Errorf("operation %d: %w", len(ops)+1, err)
		}
	}

	// A trailing separator leaves an untouched builder behind.
	if !b.Empty() {
		op, err := b.Build()
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", len(ops)+1, err)
		}
		ops = append(ops, op)
	}

	if len(ops) == 0 {
		return nil, fmt.Errorf("no operations given")
	}

	return ops, nil
}

// apply records a single key=value token on the builder.
func apply(b *model.OperationBuilder, arg string) error {
	key, value, ok := strings.Cut(arg, "=")
	if !ok {
		return fmt.Errorf("invalid argument %q, expected key=value", arg)
	}
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	switch key {
	case "if":
		if value == "" {
			return fmt.Errorf("invalid argument %q, expected if=PATH", arg)
		}
		b.Input(value)
	case "of":
		if value == "" {
			return fmt.Errorf("invalid argument %q, expected of=PATH", arg)
		}
		b.File(value)
	case "os":
		host, port, err := parseHostPort(value)
		if err != nil {
			return fmt.Errorf("invalid argument %q, expected os=HOST:PORT: %w", arg, err)
		}
		b.Socket(host, port)
	case "ohttp":
		method, target, err := parseHTTP(value)
		if err != nil {
			return fmt.Errorf("invalid argument %q, expected ohttp=METHOD;URL: %w", arg, err)
		}
		b.HTTP(method, target)
	case "oes":
		address, index, err := parseElasticsearch(value)
		if err != nil {
			return fmt.Errorf("invalid argument %q, expected oes=URL;INDEX: %w", arg, err)
		}
		b.Elasticsearch(address, index)
	case "bs":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid block size %q", value)
		}
		b.BlockSize(n)
	case "count", "c":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid block count %q", value)
		}
		b.Count(n)
	case "redir":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid redir value %q", value)
		}
		b.Redirected(v)
	default:
		return fmt.Errorf("unexpected argument %q", arg)
	}
	return nil
}

// parseHostPort splits HOST:PORT. An empty host means localhost.
func parseHostPort(value string) (string, int, error) {
	idx := strings.LastIndex(value, ":")
	if idx < 0 {
		return "", 0, fmt.Errorf("missing port")
	}
	host := strings.TrimSuffix(strings.TrimPrefix(value[:idx], "["), "]")
	if host == "" {
		host = "localhost"
	}

	port, err := strconv.ParseUint(value[idx+1:], 10, 16)
	if err != nil || port == 0 {
		return "", 0, fmt.Errorf("invalid port %q", value[idx+1:])
	}
	return host, int(port), nil
}

// parseHTTP splits METHOD;URL.
func parseHTTP(value string) (string, string, error) {
	method, target, ok := strings.Cut(value, ";")
	if !ok {
		return "", "", fmt.Errorf("missing ';'")
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return "", "", fmt.Errorf("missing method")
	}
	if err := checkURL(target); err != nil {
		return "", "", err
	}
	return method, strings.TrimSpace(target), nil
}

// parseElasticsearch splits URL;INDEX.
func parseElasticsearch(value string) (string, string, error) {
	address, index, ok := strings.Cut(value, ";")
	if !ok {
		return "", "", fmt.Errorf("missing ';'")
	}
	if err := checkURL(address); err != nil {
		return "", "", err
	}
	index = strings.TrimSpace(index)
	if index == "" {
		return "", "", fmt.Errorf("missing index")
	}
	return strings.TrimSpace(address), index, nil
}

func checkURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}
