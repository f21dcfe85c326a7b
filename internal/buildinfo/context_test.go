package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ctx       *Context
		version   string
		buildDate string
	}{
		{name: "nil context", ctx: nil, version: UnknownValue, buildDate: UnknownValue},
		{name: "empty values", ctx: NewContext("", ""), version: UnknownValue, buildDate: UnknownValue},
		{name: "injected", ctx: NewContext("v0.3.1", "2026-03-01"), version: "v0.3.1", buildDate: "2026-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.version, tt.ctx.GetVersion())
			assert.Equal(t, tt.buildDate, tt.ctx.GetBuildDate())
		})
	}
}

func TestContextString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "v0.3.1 (built 2026-03-01)", NewContext("v0.3.1", "2026-03-01").String())
	var missing *Context
	assert.Equal(t, "unknown (built unknown)", missing.String())
}
