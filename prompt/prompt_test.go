package prompt

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func scripted(answers ...string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(strings.Join(answers, "\n")+"\n"), &out), &out
}

func TestPrompter_Ask(t *testing.T) {
	p, out := scripted("wrong", "still wrong", "very wrong", "correct")

	got, err := p.Ask("Initial Question", "Please answer correctly", func(s string) bool {
		return s == "correct"
	})
	require.NoError(t, err)
	require.Equal(t, "correct", got)
	require.Equal(t,
		"Initial Question: "+strings.Repeat("Please answer correctly: ", 3),
		out.String())
}

func TestPrompter_AskEOF(t *testing.T) {
	p := New(strings.NewReader(""), io.Discard)

	_, err := p.Ask("Question", "Again", NonEmpty)
	require.Error(t, err)
	require.True(t, errors.Is(err, io.EOF))
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name       string
		def        string
		answers    []string
		want       []bool
		wantPrompt string
	}{
		{
			name:       "yes default",
			def:        "y",
			answers:    []string{"y", "n", ""},
			want:       []bool{true, false, true},
			wantPrompt: "A question [Y/n]: ",
		},
		{
			name:       "no default",
			def:        "n",
			answers:    []string{"y", "n", ""},
			want:       []bool{true, false, false},
			wantPrompt: "A question [y/N]: ",
		},
		{
			name:       "empty default asks again",
			def:        "",
			answers:    []string{"y", "n", "", "n"},
			want:       []bool{true, false, false},
			wantPrompt: "A question [y/n]: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := scripted(tt.answers...)
			for _, want := range tt.want {
				got, err := p.Confirm("A question", tt.def)
				require.NoError(t, err)
				require.Equal(t, want, got)
			}
			require.True(t, strings.HasPrefix(out.String(), tt.wantPrompt))
			if tt.def == "" {
				require.Contains(t, out.String(), `Please type either "y" or "n": `)
			}
		})
	}
}

func TestPrompter_CheckConfirm(t *testing.T) {
	p, _ := scripted("y")
	require.NoError(t, p.CheckConfirm("Question?"))

	p, _ = scripted("n")
	require.ErrorIs(t, p.CheckConfirm("Question?"), ErrDeclined)
}

func TestIsDir(t *testing.T) {
	require.True(t, IsDir(t.TempDir()))
	require.False(t, IsDir("/definitely/not/here"))
	require.False(t, IsDir(""))
}
