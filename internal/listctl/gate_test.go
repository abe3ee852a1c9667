package listctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate(t *testing.T) {
	var g Gate
	assert.False(t, g.IsOpen())
	_, ok := g.Pending()
	assert.False(t, ok)

	ids := []string{"a1"}
	g.Open(ConfirmationRequest{Mode: ModeSingle, IDs: ids, Label: "Cessna"})
	ids[0] = "mutated"

	req, ok := g.Pending()
	assert.True(t, ok)
	assert.Equal(t, []string{"a1"}, req.IDs)

	req.IDs[0] = "mutated"
	again, _ := g.Pending()
	assert.Equal(t, []string{"a1"}, again.IDs)

	g.Close()
	assert.False(t, g.IsOpen())
}

func TestConfirmationRequest_Title(t *testing.T) {
	tests := []struct {
		name string
		req  ConfirmationRequest
		want string
	}{
		{"single with label", ConfirmationRequest{Mode: ModeSingle, IDs: []string{"a1"}, Label: "Cessna 172"}, `Delete "Cessna 172"?`},
		{"single without label", ConfirmationRequest{Mode: ModeSingle, IDs: []string{"a1"}}, "Delete this item?"},
		{"bulk one", ConfirmationRequest{Mode: ModeBulk, IDs: []string{"a1"}}, "Delete 1 selected item?"},
		{"bulk many", ConfirmationRequest{Mode: ModeBulk, IDs: []string{"a1", "a2", "a3"}}, "Delete 3 selected items?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Title())
		})
	}
}

func TestNoticeQueue(t *testing.T) {
	q := NewNoticeQueue(2)
	q.Notify(Notice{Level: LevelInfo, Message: "one"})
	q.Notify(Notice{Level: LevelInfo, Message: "two"})
	q.Notify(Notice{Level: LevelError, Message: "three"})
	assert.Equal(t, 2, q.Len())

	got := q.Drain()
	assert.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Message)
	assert.Equal(t, "three", got[1].Message)
	assert.False(t, got[0].At.IsZero())
	assert.Empty(t, q.Drain())
}
