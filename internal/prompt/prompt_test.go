package prompt

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testTerminal(input string) (*Terminal, *bytes.Buffer) {
	var out bytes.Buffer
	return &Terminal{in: bufio.NewReader(strings.NewReader(input)), out: &out}, &out
}

func TestInputReturnsTypedValue(t *testing.T) {
	t.Parallel()

	term, out := testTerminal("fr_FR.UTF-8\n")
	got, err := term.Input("System locale", "en_US.UTF-8")
	require.NoError(t, err)
	require.Equal(t, "fr_FR.UTF-8", got)
	require.Contains(t, out.String(), "[en_US.UTF-8]")
}

func TestInputEmptyKeepsDefault(t *testing.T) {
	t.Parallel()

	term, _ := testTerminal("\n")
	got, err := term.Input("Hostname", "slit-system")
	require.NoError(t, err)
	require.Equal(t, "slit-system", got)
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		current bool
		want    bool
	}{
		{"yes", "y\n", false, true},
		{"full yes", "yes\n", false, true},
		{"no", "n\n", true, false},
		{"default true kept", "\n", true, true},
		{"default false kept", "\n", false, false},
		{"garbage is no", "maybe\n", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			term, _ := testTerminal(tt.input)
			got, err := term.Confirm("Passwordless sudo", tt.current)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBcryptHashVerifies(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("hunter2")))
	require.Error(t, bcrypt.CompareHashAndPassword(hash, []byte("hunter3")))
}
