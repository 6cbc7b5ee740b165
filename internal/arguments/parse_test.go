package arguments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/pdd/internal/model"
)

func TestParse_SingleOperation(t *testing.T) {
	ops, err := Parse([]string{"if=boot.img", "of=/dev/sda1", "of=/dev/sdb1", "bs=4096", "count=8"})
	require.NoError(t, err)
	require.Len(t, ops, 1)

	op := ops[0]
	assert.Equal(t, "boot.img", op.Input)
	assert.Equal(t, []model.SinkSpec{
		model.FileSpec{Path: "/dev/sda1"},
		model.FileSpec{Path: "/dev/sdb1"},
	}, op.Sinks)
	assert.Equal(t, 4096, op.BlockSize)
	assert.Equal(t, 8, op.BlockCount)
	assert.False(t, op.Redirected)
}

func TestParse_MultipleOperations(t *testing.T) {
	args := []string{
		"if=boot.img", "of=/dev/sda1",
		"--",
		"if=root.img", "of=/dev/sda2", "c=3",
		"--",
		"if=stdout.log", "os=localhost:9000", "redir=1",
	}

	ops, err := Parse(args)
	require.NoError(t, err)
	require.Len(t, ops, 3)

	assert.Equal(t, "boot.img", ops[0].Input)
	assert.Equal(t, model.DefaultBlockSize, ops[0].BlockSize)

	assert.Equal(t, "root.img", ops[1].Input)
	assert.Equal(t, 3, ops[1].BlockCount)

	assert.Equal(t, "stdout.log", ops[2].Input)
	assert.True(t, ops[2].Redirected)
	assert.Equal(t, []model.SinkSpec{model.SocketSpec{Host: "localhost", Port: 9000}}, ops[2].Sinks)
}

func TestParse_SinkVariants(t *testing.T) {
	ops, err := Parse([]string{
		"if=in.img",
		"os=:9001",
		"os=[::1]:9002",
		"ohttp=put;http://collector:8080/blocks",
		"oes=http://localhost:9200;pdd-blocks",
	})
	require.NoError(t, err)
	require.Len(t, ops, 1)

	assert.Equal(t, []model.SinkSpec{
		model.SocketSpec{Host: "localhost", Port: 9001},
		model.SocketSpec{Host: "::1", Port: 9002},
		model.HTTPSpec{Method: "PUT", URL: "http://collector:8080/blocks"},
		model.ElasticsearchSpec{URL: "http://localhost:9200", Index: "pdd-blocks"},
	}, ops[0].Sinks)
}

func TestParse_KeysAreCaseInsensitiveAndTrimmed(t *testing.T) {
	ops, err := Parse([]string{"IF= in.img ", " Of=out.img", "BS=512"})
	require.NoError(t, err)
	require.Len(t, ops, 1)

	assert.Equal(t, "in.img", ops[0].Input)
	assert.Equal(t, []model.SinkSpec{model.FileSpec{Path: "out.img"}}, ops[0].Sinks)
	assert.Equal(t, 512, ops[0].BlockSize)
}

func TestParse_TrailingSeparator(t *testing.T) {
	ops, err := Parse([]string{"if=in.img", "of=out.img", "--"})
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no arguments", args: nil, want: "no operations given"},
		{name: "not key=value", args: []string{"if=in.img", "of=out.img", "verbose"}, want: `invalid argument "verbose"`},
		{name: "unknown key", args: []string{"if=in.img", "of=out.img", "skip=3"}, want: `unexpected argument "skip=3"`},
		{name: "missing input", args: []string{"of=out.img"}, want: "missing an input"},
		{name: "no sinks", args: []string{"if=in.img"}, want: "at least one output"},
		{name: "empty operation between separators", args: []string{"if=a", "of=b", "--", "--", "if=c", "of=d"}, want: "operation 2"},
		{name: "zero block size", args: []string{"if=a", "of=b", "bs=0"}, want: "invalid block size"},
		{name: "bad block size", args: []string{"if=a", "of=b", "bs=4k"}, want: "invalid block size"},
		{name: "negative count", args: []string{"if=a", "of=b", "count=-1"}, want: "invalid block count"},
		{name: "socket without port", args: []string{"if=a", "os=localhost"}, want: "expected os=HOST:PORT"},
		{name: "socket bad port", args: []string{"if=a", "os=localhost:70000"}, want: "invalid port"},
		{name: "http without separator", args: []string{"if=a", "ohttp=POST http://x"}, want: "expected ohttp=METHOD;URL"},
		{name: "http bad scheme", args: []string{"if=a", "ohttp=POST;ftp://x/y"}, want: "unsupported URL scheme"},
		{name: "es without index", args: []string{"if=a", "oes=http://localhost:9200;"}, want: "missing index"},
		{name: "bad redir", args: []string{"if=a", "of=b", "redir=maybe"}, want: "invalid redir value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_ErrorNamesOperation(t *testing.T) {
	_, err := Parse([]string{"if=a", "of=b", "--", "of=c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrMissingInput)
	assert.Contains(t, err.Error(), "operation 2")
}
