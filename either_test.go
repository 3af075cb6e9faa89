package flume

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEither(t *testing.T) {
	a := singletons(1, 2, 3)
	b := FromChunks(Singleton("x"), Singleton("y"))

	res, err := MergeEither(a, b).ToSlice(context.Background())
	require.NoError(t, err)
	require.Len(t, res, 5)

	var lefts []int
	var rights []string
	for _, e := range res {
		if e.IsRight {
			rights = append(rights, e.Right)
		} else {
			lefts = append(lefts, e.Left)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, lefts, "left side keeps its order")
	assert.Equal(t, []string{"x", "y"}, rights, "right side keeps its order")
}

func TestMerge(t *testing.T) {
	res, err := Merge(singletons(1, 3, 5), singletons(2, 4)).ToSlice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, sorted(res))

	pos := make(map[int]int, len(res))
	for i, v := range res {
		pos[v] = i
	}
	assert.Less(t, pos[1], pos[3])
	assert.Less(t, pos[3], pos[5])
	assert.Less(t, pos[2], pos[4])
}

func TestRace(t *testing.T) {
	slow := Eval(func(ctx context.Context) (int, error) {
		select {
		case <-time.After(50 * time.Millisecond):
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})
	fast := Emit("fast")

	res, err := Race(slow, fast).ToSlice(context.Background())
	require.NoError(t, err)
	require.Len(t, res, 1, "race yields exactly one element")
	assert.True(t, res[0].IsRight, "the immediate side wins")
	assert.Equal(t, "fast", res[0].Right)
}

func TestEitherConstructors(t *testing.T) {
	l := LeftOf[int, string](4)
	assert.False(t, l.IsRight)
	assert.Equal(t, 4, l.Left)

	r := RightOf[int]("s")
	assert.True(t, r.IsRight)
	assert.Equal(t, "s", r.Right)
}
