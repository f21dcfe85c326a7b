package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/drivesense/internal/buildinfo"
	"github.com/tphakala/drivesense/internal/conf"
)

func dump(t *testing.T, args ...string) map[string]any {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := RootCommand(conf.Defaults(), buildinfo.NewContext("test", ""))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append(args, "config", "dump"))
	require.NoError(t, root.Execute())

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &doc))
	return doc
}

func TestDetectorFlagSelectsRecommendedTiming(t *testing.T) {
	doc := dump(t, "--detector", "threshold")

	detector := doc["detector"].(map[string]any)
	assert.Equal(t, "threshold", detector["type"])
	trig := doc["trigger"].(map[string]any)
	assert.Equal(t, "10s", trig["debounce"])
	assert.Equal(t, "1s", trig["throttle"])
}

func TestSensitivityFlagAppliesPreset(t *testing.T) {
	doc := dump(t, "--sensitivity", "high")

	assert.Equal(t, "high", doc["sensitivity"])
	assert.Equal(t, "1.5s", doc["trigger"].(map[string]any)["debounce"])
	assert.InDelta(t, 1.5, doc["resolver"].(map[string]any)["vehiclespeed"], 1e-9)
}

func TestInvalidFlagValueFails(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := RootCommand(conf.Defaults(), buildinfo.NewContext("test", ""))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--sensitivity", "extreme", "config", "dump"})
	assert.Error(t, root.Execute())
}

func TestVersionFlag(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	root := RootCommand(conf.Defaults(), buildinfo.NewContext("v0.3.1", "2026-03-01"))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "v0.3.1 (built 2026-03-01)")
}
