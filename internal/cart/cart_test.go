package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/iliyamo/smart-cafe/internal/localstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures every View handed to the refresher.
type recorder struct{ views []View }

func (r *recorder) Refresh(v View) { r.views = append(r.views, v) }

func (r *recorder) last() View { return r.views[len(r.views)-1] }

func setupEngine(t *testing.T) (*Engine, *localstate.Memory, *recorder) {
	t.Helper()
	store := localstate.NewMemory()
	rec := &recorder{}
	return New(store, rec), store, rec
}

func TestAddItem_DistinctIDs(t *testing.T) {
	e, _, _ := setupEngine(t)
	ctx := context.Background()

	quantities := map[string]int{"a": 1, "b": 3, "c": 2}
	want := 0
	for id, q := range quantities {
		_, err := e.AddItem(ctx, LineItem{ID: id, Name: "item " + id, Price: "1", Quantity: q})
		require.NoError(t, err)
		want += q
	}

	items, err := e.Items(ctx)
	require.NoError(t, err)
	assert.Len(t, items, len(quantities))

	n, err := e.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, n)
}

func TestAddItem_SameIDMerges(t *testing.T) {
	e, _, _ := setupEngine(t)
	ctx := context.Background()

	x := LineItem{ID: "x", Name: "Zinger Burger", Price: "350", Quantity: 1}
	_, err := e.AddItem(ctx, x)
	require.NoError(t, err)
	items, err := e.AddItem(ctx, x)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddItem_DefaultQuantity(t *testing.T) {
	e, _, _ := setupEngine(t)
	items, err := e.AddItem(context.Background(), LineItem{ID: "1", Name: "Cappuccino", Price: "250"})
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestAddItem_Invalid(t *testing.T) {
	e, store, rec := setupEngine(t)
	ctx := context.Background()

	cases := []LineItem{
		{Name: "no id", Price: "1"},
		{ID: "1", Price: "1"},
		{ID: "1", Name: "no price"},
	}
	for _, c := range cases {
		_, err := e.AddItem(ctx, c)
		assert.ErrorIs(t, err, ErrInvalidItem)
	}
	assert.Equal(t, 0, store.Len(), "nothing persisted")
	assert.Empty(t, rec.views, "no refresh on rejected input")
}

func TestUpdateQuantity_ZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()

	e1, _, _ := setupEngine(t)
	e2, _, _ := setupEngine(t)
	for _, e := range []*Engine{e1, e2} {
		_, err := e.AddItem(ctx, LineItem{ID: "a", Name: "A", Price: "1"})
		require.NoError(t, err)
		_, err = e.AddItem(ctx, LineItem{ID: "b", Name: "B", Price: "2"})
		require.NoError(t, err)
	}

	viaUpdate, err := e1.UpdateQuantity(ctx, "a", 0)
	require.NoError(t, err)
	viaRemove, err := e2.RemoveItem(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, viaRemove, viaUpdate)
}

func TestUpdateQuantity_AbsoluteSet(t *testing.T) {
	e, _, _ := setupEngine(t)
	ctx := context.Background()
	_, err := e.AddItem(ctx, LineItem{ID: "a", Name: "A", Price: "1", Quantity: 4})
	require.NoError(t, err)

	items, err := e.UpdateQuantity(ctx, "a", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, items[0].Quantity)

	items, err = e.UpdateQuantity(ctx, "missing", 9)
	require.NoError(t, err)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddItem_RejectsBadNumericPrice(t *testing.T) {
	e, _, rec := setupEngine(t)
	ctx := context.Background()

	for _, price := range []Price{"-5", "-0.01", "1e20", "Inf", "NaN"} {
		_, err := e.AddItem(ctx, LineItem{ID: "a", Name: "A", Price: price})
		assert.ErrorIs(t, err, ErrInvalidItem, "price %q", price)
	}
	n, err := e.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, rec.views)
}

func TestAddItem_MergeSaturates(t *testing.T) {
	e, _, _ := setupEngine(t)
	ctx := context.Background()

	_, err := e.AddItem(ctx, LineItem{ID: "a", Name: "A", Price: "1", Quantity: math.MaxInt})
	require.NoError(t, err)
	items, err := e.AddItem(ctx, LineItem{ID: "a", Name: "A", Price: "1", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, items[0].Quantity)

	_, err = e.AddItem(ctx, LineItem{ID: "b", Name: "B", Price: "1"})
	require.NoError(t, err)
	n, err := e.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, math.MaxInt, n)
}

func TestTotal_Saturates(t *testing.T) {
	cases := map[string]string{
		"product": `[{"id":"1","name":"a","price":"90000000000000000","quantity":2}]`,
		"sum":     `[{"id":"1","name":"a","price":"90000000000000000"},{"id":"2","name":"b","price":"90000000000000000"}]`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			e, store, _ := setupEngine(t)
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, localstate.KeyCart, doc))

			total, err := e.Total(ctx)
			require.NoError(t, err)
			assert.Equal(t, Money(math.MaxInt64), total)
			assert.Equal(t, "92233720368547758.07", total.String())
		})
	}
}

func TestRemoveAndUpdate_TrimID(t *testing.T) {
	e, store, _ := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, localstate.KeyCart,
		`[{"id":" a ","name":"A","price":"1","quantity":1},{"id":"b","name":"B","price":"1","quantity":1}]`))

	items, err := e.UpdateQuantity(ctx, "a", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, items[0].Quantity)

	items, err = e.RemoveItem(ctx, " b\t")
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = e.UpdateQuantity(ctx, "  a", 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateQuantity_AbsentStillRefreshes(t *testing.T) {
	e, store, rec := setupEngine(t)
	ctx := context.Background()
	_, err := e.AddItem(ctx, LineItem{ID: "a", Name: "A", Price: "1"})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, localstate.KeyCart, `[{"id":"a","name":"A","price":"1"}]`))

	_, err = e.UpdateQuantity(ctx, "zzz", 3)
	require.NoError(t, err)
	require.Len(t, rec.views, 2)
	assert.Equal(t, 1, rec.last().Count)

	raw, _, _ := store.Get(ctx, localstate.KeyCart)
	assert.Contains(t, raw, `"quantity":1`, "absent id still persists the normalized rows")
}

func TestRemoveItem_AbsentIsNoop(t *testing.T) {
	e, _, _ := setupEngine(t)
	ctx := context.Background()
	before, err := e.AddItem(ctx, LineItem{ID: "a", Name: "A", Price: "1"})
	require.NoError(t, err)
	snapshot := append([]LineItem(nil), before...)

	after, err := e.RemoveItem(ctx, "zzz")
	require.NoError(t, err)
	assert.Equal(t, snapshot, after)
}

func TestTotal_MixedPriceEncodings(t *testing.T) {
	e, store, _ := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, localstate.KeyCart,
		`[{"id":"1","name":"a","price":"10.50","quantity":2},{"id":"2","name":"b","price":5,"quantity":1}]`))

	total, err := e.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, Money(2600), total)
	assert.Equal(t, "26.00", total.String())
}

func TestTotal_NonNumericPriceCountsAsZero(t *testing.T) {
	e, store, _ := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, localstate.KeyCart,
		`[{"id":"1","name":"a","price":"abc","quantity":2},{"id":"2","name":"b","quantity":3},{"id":"3","name":"c","price":1.25}]`))

	total, err := e.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1.25", total.String())

	n, err := e.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n, "a row without quantity counts as one")
}

func TestClear(t *testing.T) {
	e, _, rec := setupEngine(t)
	ctx := context.Background()
	_, err := e.AddItem(ctx, LineItem{ID: "a", Name: "A", Price: "1", Quantity: 5})
	require.NoError(t, err)

	require.NoError(t, e.Clear(ctx))

	n, err := e.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	st, err := e.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, st)
	assert.True(t, rec.last().Empty)
}

func TestStateTransitions(t *testing.T) {
	e, _, _ := setupEngine(t)
	ctx := context.Background()

	st, err := e.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, st)

	_, err = e.AddItem(ctx, LineItem{ID: "a", Name: "A", Price: "1"})
	require.NoError(t, err)
	st, _ = e.State(ctx)
	assert.Equal(t, StateNonEmpty, st)

	_, err = e.UpdateQuantity(ctx, "a", -1)
	require.NoError(t, err)
	st, _ = e.State(ctx)
	assert.Equal(t, StateEmpty, st)
	assert.Equal(t, "empty", st.String())
}

func TestRefresher_CalledOnEveryMutation(t *testing.T) {
	e, _, rec := setupEngine(t)
	ctx := context.Background()

	_, _ = e.AddItem(ctx, LineItem{ID: "a", Name: "A", Price: "2.50", Quantity: 2})
	_, _ = e.AddItem(ctx, LineItem{ID: "b", Name: "B", Price: "1"})
	_, _ = e.UpdateQuantity(ctx, "b", 3)
	_, _ = e.RemoveItem(ctx, "a")
	_ = e.Clear(ctx)

	require.Len(t, rec.views, 5)
	assert.Equal(t, 3, rec.views[1].Count)
	assert.Equal(t, "6.00", rec.views[1].Total.String())
	assert.Equal(t, "3.00", rec.views[3].Total.String())
	assert.True(t, rec.views[4].Empty)
}

func TestPersistsThroughStore(t *testing.T) {
	store := localstate.NewMemory()
	ctx := context.Background()
	_, err := New(store, nil).AddItem(ctx, LineItem{ID: "a", Name: "A", Price: "3"})
	require.NoError(t, err)

	// a second engine over the same store sees the row, like a page reload
	items, err := New(store, nil).Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	raw, _, _ := store.Get(ctx, localstate.KeyCart)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "a", decoded[0]["id"])
}

type failingStore struct{ *localstate.Memory }

var errDisk = errors.New("disk full")

func (f *failingStore) Set(context.Context, string, string) error { return errDisk }

func TestStoreFailureIsReturned(t *testing.T) {
	rec := &recorder{}
	e := New(&failingStore{Memory: localstate.NewMemory()}, rec)

	_, err := e.AddItem(context.Background(), LineItem{ID: "a", Name: "A", Price: "1"})
	assert.ErrorIs(t, err, errDisk)
	assert.Empty(t, rec.views)
}

func TestCorruptCartDocument(t *testing.T) {
	e, store, _ := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, localstate.KeyCart, "{oops"))

	_, err := e.Items(ctx)
	assert.ErrorContains(t, err, "decode cart")
}

func TestTableRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := TableRenderer{Out: &buf, ShowTable: true}

	require.NoError(t, r.Render(project(nil)))
	assert.Contains(t, buf.String(), "cart: 0 item(s)")
	assert.Contains(t, buf.String(), EmptyMessage)

	buf.Reset()
	require.NoError(t, r.Render(project([]LineItem{{ID: "7", Name: "Chicken Biryani", Price: "500", Quantity: 2}})))
	out := buf.String()
	assert.Contains(t, out, "cart: 2 item(s)")
	assert.Contains(t, out, "Chicken Biryani")
	assert.Contains(t, out, "Total: Rs. 1000.00")

	buf.Reset()
	badgeOnly := TableRenderer{Out: &buf}
	require.NoError(t, badgeOnly.Render(project(nil)))
	assert.NotContains(t, buf.String(), EmptyMessage)
}
