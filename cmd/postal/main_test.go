package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputs(t *testing.T) {
	got, err := inputs([]string{"Rope", "Walk"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Rope Walk"}, got)

	got, err = inputs(nil, strings.NewReader("Main St\n\n  Bedford  \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Main St", "Bedford"}, got)
}

func TestCommands(t *testing.T) {
	flags = globalFlags{json: true, lang: "en"}
	setColor(false)
	t.Cleanup(func() { flags = globalFlags{} })

	var out bytes.Buffer
	cmd := createParseCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"St Johns Centre, Rope Walk, Bedford, Bedfordshire, MK42 0XE, United Kingdom"})
	require.NoError(t, cmd.Execute())
	var components map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &components))
	assert.Equal(t, "mk42 0xe", components["postcode"])

	out.Reset()
	cmd = createDedupeCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"123 Main St", "123 Main Street"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"exact_duplicate"`)

	out.Reset()
	cmd = createExpandCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--canonical", "123 Main St. #2f"})
	require.NoError(t, cmd.Execute())
	var expanded struct {
		Expansions []string `json:"expansions"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &expanded))
	assert.Equal(t, []string{"123 main street number 2f"}, expanded.Expansions)
}

func TestParseCmd_OneLanguage(t *testing.T) {
	flags = globalFlags{json: true, lang: "en,fr"}
	setColor(false)
	t.Cleanup(func() { flags = globalFlags{} })

	cmd := createParseCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"Rope Walk, Bedford"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one language")
}
