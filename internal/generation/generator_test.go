package generation

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnswerWithoutContextsSkipsModel(t *testing.T) {
	// No client is wired up; the call must not reach it.
	g := NewGenerator(nil, "", testLogger())

	answer, err := g.Answer(context.Background(), "any question", nil)
	require.NoError(t, err)
	assert.Equal(t, InsufficientContextAnswer, answer)
}

func TestTruncateCutsOnRuneBoundary(t *testing.T) {
	g := NewGenerator(nil, "", testLogger())
	g.maxTokens = 1 // 4-byte budget

	out := g.truncate(strings.Repeat("药", 10))
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, "药", out)

	assert.Equal(t, "abcd", g.truncate("abcdef"))
	assert.Equal(t, "ab", g.truncate("ab"))
}
