package mentions

import (
	"testing"

	"colloquy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	t.Parallel()
	r := NewResolver(5)

	t.Run("basic extraction", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"alice", "bob"}, r.Extract("hey @alice and @bob, thoughts?"))
	})

	t.Run("case folded and deduplicated", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"alice"}, r.Extract("@Alice @alice @ALICE"))
	})

	t.Run("order of first appearance", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"zoe", "adam"}, r.Extract("@zoe then @adam then @zoe again"))
	})

	t.Run("capped at maximum", func(t *testing.T) {
		t.Parallel()
		tokens := r.Extract("@a @b @c @d @e @f @g")
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, tokens)
	})

	t.Run("no mentions", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, r.Extract("an email like a@b.example is not a mention start"))
	})
}

func TestResolve(t *testing.T) {
	t.Parallel()
	r := NewResolver(5)

	candidates := []models.User{
		{ID: 1, DisplayName: "Jane Doe"},
		{ID: 2, DisplayName: "bob"},
		{ID: 3, DisplayName: "Carol Ann Smith"},
	}

	t.Run("display names matched case-insensitively without spaces", func(t *testing.T) {
		t.Parallel()
		resolved := r.Resolve("cc @janedoe and @CarolAnnSmith", candidates, nil)
		require.Len(t, resolved, 2)
		assert.Equal(t, uint(1), resolved[0].UserID)
		assert.Equal(t, "Jane Doe", resolved[0].DisplayName)
		assert.Equal(t, uint(3), resolved[1].UserID)
	})

	t.Run("unmatched tokens dropped silently", func(t *testing.T) {
		t.Parallel()
		resolved := r.Resolve("@janedoe @nobodyhome", candidates, nil)
		require.Len(t, resolved, 1)
		assert.Equal(t, uint(1), resolved[0].UserID)
	})

	t.Run("self mention excluded", func(t *testing.T) {
		t.Parallel()
		self := uint(2)
		resolved := r.Resolve("thanks @bob and @janedoe", candidates, &self)
		require.Len(t, resolved, 1)
		assert.Equal(t, uint(1), resolved[0].UserID)
	})

	t.Run("no tokens yields nil", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, r.Resolve("plain content", candidates, nil))
	})
}

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "janedoe", NormalizeName("Jane Doe"))
	assert.Equal(t, "janedoe", NormalizeName("  jane   doe "))
	assert.Equal(t, "bob", NormalizeName("bob"))
	assert.Equal(t, "", NormalizeName("   "))
}
