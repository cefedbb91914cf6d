package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/presencebot/internal/domain"
)

func TestDecideComponentActionRejectsNonOwner(t *testing.T) {
	r := NewRegistry(time.Minute)
	p := r.New("owner", domain.PeriodDay)

	decision := decideComponentAction(p, "intruder", "next", nil)
	assert.Equal(t, msgWrongUser, decision.reject)
	assert.False(t, decision.ok)

	// The press never reaches the registry.
	got, ok := r.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, 0, got.Page)
	assert.Equal(t, domain.PeriodDay, got.Period)
}

func TestDecideComponentActionPaging(t *testing.T) {
	p := Paginator{ID: "x", OwnerID: "owner", Period: domain.PeriodDay, Page: 1}

	next := decideComponentAction(p, "owner", "next", nil)
	require.True(t, next.ok)
	assert.Empty(t, next.reject)
	assert.Equal(t, 2, next.page)
	assert.Equal(t, domain.PeriodDay, next.period)

	prev := decideComponentAction(p, "owner", "prev", nil)
	require.True(t, prev.ok)
	assert.Equal(t, 0, prev.page)

	p.Page = 0
	floor := decideComponentAction(p, "owner", "prev", nil)
	require.True(t, floor.ok)
	assert.Equal(t, 0, floor.page)
}

func TestDecideComponentActionPeriodSelect(t *testing.T) {
	p := Paginator{ID: "x", OwnerID: "owner", Period: domain.PeriodDay, Page: 3}

	decision := decideComponentAction(p, "owner", "period", []string{string(domain.PeriodWeek)})
	require.True(t, decision.ok)
	assert.Equal(t, domain.PeriodWeek, decision.period)
	assert.Equal(t, 0, decision.page)

	// Bogus select values keep the current state.
	decision = decideComponentAction(p, "owner", "period", []string{"fortnight"})
	require.True(t, decision.ok)
	assert.Equal(t, domain.PeriodDay, decision.period)
	assert.Equal(t, 3, decision.page)
}

func TestDecideComponentActionUnknownAction(t *testing.T) {
	p := Paginator{ID: "x", OwnerID: "owner", Period: domain.PeriodDay}
	decision := decideComponentAction(p, "owner", "teleport", nil)
	assert.False(t, decision.ok)
	assert.Empty(t, decision.reject)
}

func TestComponentPageCommitsOnlyAfterSuccessfulQuery(t *testing.T) {
	r := NewRegistry(time.Minute)
	p := r.New("owner", domain.PeriodDay)

	decision := decideComponentAction(p, "owner", "next", nil)
	require.True(t, decision.ok)
	assert.Equal(t, 1, decision.page)

	// When the activity query fails the handler stops before Set, so the
	// stored paginator still points at the original page.
	got, ok := r.Get(p.ID)
	require.True(t, ok)
	assert.Equal(t, 0, got.Page)

	// After a successful query the clamped page is committed.
	pages := pageCount(7, 10)
	page := decision.page
	if page >= pages {
		page = pages - 1
	}
	got, ok = r.Set(p.ID, page, decision.period)
	require.True(t, ok)
	assert.Equal(t, 0, got.Page)
}
