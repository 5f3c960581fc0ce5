package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripFences(t *testing.T) {
	doc := "<!DOCTYPE html>\n<html></html>"

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare", in: doc, want: doc},
		{name: "fenced", in: "```html\n" + doc + "\n```", want: doc},
		{name: "fenced no language", in: "```\n" + doc + "\n```", want: doc},
		{name: "surrounding whitespace", in: "\n```html\n" + doc + "\n```\n", want: doc},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripFences(tc.in))
		})
	}
}
