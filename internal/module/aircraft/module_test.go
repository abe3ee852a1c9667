package aircraft

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jetdesk/jetadmin/internal/domain"
	"github.com/jetdesk/jetadmin/internal/listctl"
)

type fleet struct {
	mu        sync.Mutex
	docs      []domain.Aircraft
	lists     int
	creates   []string
	updates   []string
	updateErr error
}

func (f *fleet) List(context.Context, domain.ListFilter) ([]domain.Aircraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return append([]domain.Aircraft(nil), f.docs...), nil
}

func (f *fleet) GetByID(_ context.Context, id string) (domain.Aircraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.docs {
		if a.DocumentID() == id {
			return a, nil
		}
	}
	return domain.Aircraft{}, domain.ErrNotFound
}

func (f *fleet) Create(_ context.Context, body domain.Body) (domain.Aircraft, error) {
	r, err := body.Reader()
	if err != nil {
		return domain.Aircraft{}, err
	}
	raw, _ := io.ReadAll(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, string(raw))
	return domain.Aircraft{}, nil
}

func (f *fleet) Update(_ context.Context, id string, body domain.Body) (domain.Aircraft, error) {
	r, err := body.Reader()
	if err != nil {
		return domain.Aircraft{}, err
	}
	raw, _ := io.ReadAll(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, id+" "+string(raw))
	return domain.Aircraft{}, f.updateErr
}

func (f *fleet) Delete(context.Context, string) error { return nil }

func (f *fleet) BulkDelete(context.Context, []string) (domain.BulkResult, error) {
	return domain.BulkResult{}, nil
}

func TestSetStatus_PatchesOnlyTarget(t *testing.T) {
	gw := &fleet{docs: []domain.Aircraft{
		{Identity: domain.Identity{MongoID: "A1"}, Title: "Phenom 300", Status: domain.StatusForSale, Price: domain.NewNumber(9e6)},
		{Identity: domain.Identity{MongoID: "A2"}, Title: "Hawker 900", Status: domain.StatusForSale},
	}}
	ctl := listctl.New[domain.Aircraft](gw, listctl.Options[domain.Aircraft]{Noun: "aircraft", Plural: "aircraft"})
	require.NoError(t, ctl.Refresh(context.Background()))
	before := ctl.Snapshot().Items

	st, err := SetStatus(context.Background(), gw, ctl, "A1", "sold")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSold, st)
	assert.Equal(t, []string{`A1 {"status":"sold"}`}, gw.updates)
	assert.Equal(t, 1, gw.lists, "status change must not refresh")

	after := ctl.Snapshot().Items
	want := before[0]
	want.Status = domain.StatusSold
	assert.Equal(t, want, after[0])
	assert.Equal(t, before[1], after[1])
}

func TestSetStatus_Failures(t *testing.T) {
	gw := &fleet{docs: []domain.Aircraft{{Identity: domain.Identity{MongoID: "A1"}, Status: domain.StatusForSale}}}
	ctl := listctl.New[domain.Aircraft](gw, listctl.Options[domain.Aircraft]{})
	require.NoError(t, ctl.Refresh(context.Background()))

	_, err := SetStatus(context.Background(), gw, ctl, "A1", "grounded")
	assert.ErrorIs(t, err, ErrUnknownStatus)
	assert.Empty(t, gw.updates)

	gw.updateErr = domain.NewAppError(domain.CodeNetwork, "backend unreachable", nil)
	_, err = SetStatus(context.Background(), gw, ctl, "A1", "sold")
	assert.True(t, domain.IsNetwork(err))
	assert.Equal(t, domain.StatusForSale, ctl.Snapshot().Items[0].Status)
}
