package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationBuilder_Defaults(t *testing.T) {
	op, err := NewOperationBuilder().
		Input("boot.img").
		File("/dev/sda1").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "boot.img", op.Input)
	assert.Equal(t, DefaultBlockSize, op.BlockSize)
	assert.Equal(t, 0, op.BlockCount)
	assert.False(t, op.Redirected)
	assert.Equal(t, []SinkSpec{FileSpec{Path: "/dev/sda1"}}, op.Sinks)
}

func TestOperationBuilder_AllSinks(t *testing.T) {
	op, err := NewOperationBuilder().
		Input("stdout.log").
		File("copy.log").
		Socket("localhost", 9000).
		HTTP("POST", "http://collector/ingest").
		Elasticsearch("http://localhost:9200", "blocks").
		BlockSize(4096).
		Count(10).
		Redirected(true).
		Build()
	require.NoError(t, err)

	require.Len(t, op.Sinks, 4)
	assert.Equal(t, SinkFile, op.Sinks[0].Kind())
	assert.Equal(t, SinkSocket, op.Sinks[1].Kind())
	assert.Equal(t, SinkHTTP, op.Sinks[2].Kind())
	assert.Equal(t, SinkElasticsearch, op.Sinks[3].Kind())
	assert.Equal(t, 4096, op.BlockSize)
	assert.Equal(t, 10, op.BlockCount)
	assert.True(t, op.Redirected)

	assert.Equal(t,
		"if=stdout.log of=copy.log os=localhost:9000 ohttp=POST;http://collector/ingest oes=http://localhost:9200;blocks bs=4096 count=10 redir=1",
		op.String())
}

func TestOperationBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		builder *OperationBuilder
		want    error
	}{
		{
			name:    "missing input",
			builder: NewOperationBuilder().File("out.img"),
			want:    ErrMissingInput,
		},
		{
			name:    "no sinks",
			builder: NewOperationBuilder().Input("in.img"),
			want:    ErrNoSinks,
		},
		{
			name:    "zero block size",
			builder: NewOperationBuilder().Input("in.img").File("out.img").BlockSize(0),
			want:    ErrInvalidBlockSize,
		},
		{
			name:    "negative count",
			builder: NewOperationBuilder().Input("in.img").File("out.img").Count(-1),
			want:    ErrInvalidBlockCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOperationBuilder_Empty(t *testing.T) {
	b := NewOperationBuilder()
	assert.True(t, b.Empty())

	b.BlockSize(512)
	assert.False(t, b.Empty())
}

func TestOperationBuilder_BuildCopiesSinks(t *testing.T) {
	b := NewOperationBuilder().Input("in").File("a")
	op, err := b.Build()
	require.NoError(t, err)

	b.File("b")
	assert.Len(t, op.Sinks, 1)
}

func TestSocketSpec_Address(t *testing.T) {
	assert.Equal(t, "localhost:9000", SocketSpec{Host: "localhost", Port: 9000}.Address())
	assert.Equal(t, "[::1]:9000", SocketSpec{Host: "::1", Port: 9000}.Address())
}
