package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Just text", "Just text"},
		{"tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"entities", "Tom &amp; Jerry &lt;3", "Tom & Jerry <3"},
		{"guest section", "<p>今回のテーマ</p><p>ゲスト：山田さん</p>", "今回のテーマ"},
		{"guest only", "ゲスト：山田さん", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanDescription(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	out, cut := Truncate("海外キャリア", 2, "...")
	assert.True(t, cut)
	assert.Equal(t, "海外...", out)

	out, cut = Truncate("short", 10, "...")
	assert.False(t, cut)
	assert.Equal(t, "short", out)
}
