package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	ID  string
	Seq int
}

func newItemView() *View[item] {
	return NewView(
		func(i item) string { return i.ID },
		func(a, b item) bool { return a.Seq > b.Seq },
	)
}

func TestView_UpsertIsLastWriteWins(t *testing.T) {
	v := newItemView()
	v.Upsert(item{ID: "a", Seq: 1})
	v.Upsert(item{ID: "b", Seq: 2})
	v.Upsert(item{ID: "a", Seq: 3})

	assert.Equal(t, []item{{ID: "a", Seq: 3}, {ID: "b", Seq: 2}}, v.Items())
	assert.Equal(t, 2, v.Len())
}

func TestView_DeleteReportsPresence(t *testing.T) {
	v := newItemView()
	v.Upsert(item{ID: "a", Seq: 1})

	assert.True(t, v.Delete("a"))
	assert.False(t, v.Delete("a"))
	assert.False(t, v.Has("a"))
}

func TestView_TiesOrderedByKey(t *testing.T) {
	v := newItemView()
	v.Replace([]item{{ID: "c", Seq: 1}, {ID: "a", Seq: 1}, {ID: "b", Seq: 1}})

	got := v.Items()
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestView_CloseMakesApplyNoop(t *testing.T) {
	v := newItemView()
	v.Upsert(item{ID: "a", Seq: 1})
	v.Close()

	assert.True(t, v.Closed())
	assert.False(t, v.Upsert(item{ID: "b", Seq: 2}))
	assert.False(t, v.Delete("a"))
	assert.False(t, v.Replace(nil))
	assert.Equal(t, []item{{ID: "a", Seq: 1}}, v.Items())
}
