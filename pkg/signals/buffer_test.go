// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package signals

import (
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var categories = []Category{Discord, Sentiment, Base}

func TestCategoryLimits(t *testing.T) {
	assert.Equal(t, 8, Discord.Capacity)
	assert.Equal(t, time.Hour, Discord.Window)
	assert.Equal(t, 50, Sentiment.Capacity)
	assert.Equal(t, 30*time.Minute, Sentiment.Window)
	assert.Equal(t, 6, Base.Capacity)
	assert.Equal(t, 2*time.Hour, Base.Window)
}

func TestPushRetainsMostRecentCapacity(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)

	for _, c := range categories {
		t.Run(c.Name, func(t *testing.T) {
			feed := NewFeed(c)
			total := c.Capacity*2 + 3
			for i := 0; i < total; i++ {
				feed.Push(map[string]any{"seq": i}, start.Add(time.Duration(i)*time.Millisecond))
				require.LessOrEqual(t, feed.buf.Len(), c.Capacity)
			}

			got := feed.List(start.Add(time.Second))
			require.Len(t, got, c.Capacity)
			for i, sig := range got {
				assert.Equal(t, total-c.Capacity+i, sig.Fields["seq"])
			}
		})
	}
}

func TestListExcludesSignalsOutsideWindow(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)

	for _, c := range categories {
		t.Run(c.Name, func(t *testing.T) {
			feed := NewFeed(c)
			feed.Push(map[string]any{"id": "old"}, start)
			feed.Push(map[string]any{"id": "edge"}, start.Add(time.Minute))
			feed.Push(map[string]any{"id": "fresh"}, start.Add(c.Window))

			// Exactly at the window boundary the edge signal is still retained.
			got := feed.List(start.Add(time.Minute + c.Window))
			ids := make([]any, 0, len(got))
			for _, sig := range got {
				ids = append(ids, sig.Fields["id"])
			}
			assert.Equal(t, []any{"edge", "fresh"}, ids)

			got = feed.List(start.Add(time.Minute + c.Window + time.Millisecond))
			require.Len(t, got, 1)
			assert.Equal(t, "fresh", got[0].Fields["id"])
		})
	}
}

func TestPruneReportsDropped(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	b := NewBuffer(4, time.Minute)
	b.Push(map[string]any{}, start)
	b.Push(map[string]any{}, start.Add(30*time.Second))

	assert.Zero(t, b.Prune(start.Add(time.Minute)))
	assert.Equal(t, 1, b.Prune(start.Add(time.Minute+time.Second)))
	assert.Equal(t, 1, b.Len())
}

func TestPushStampsAndCopies(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	b := NewBuffer(2, time.Hour)
	in := map[string]any{"content": "gm"}

	sig := b.Push(in, now)
	in["content"] = "mutated"

	assert.Equal(t, "gm", sig.Fields["content"])
	assert.Equal(t, now.UnixMilli(), sig.Fields[TimestampField])
	_, stamped := in[TimestampField]
	assert.False(t, stamped, "caller's map must not be modified")
}

func TestSentimentDecoratesAuthor(t *testing.T) {
	feed := NewFeed(Sentiment)
	sig := feed.Push(map[string]any{"token": "BONK"}, time.Now())

	author, ok := sig.Fields["author"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "boncatBT", author["name"])
	assert.Equal(t, "BONK", sig.Fields["token"])
}

func TestSignalMarshalJSON(t *testing.T) {
	sig := NewBuffer(1, time.Hour).Push(map[string]any{"a": "b"}, time.UnixMilli(42))

	raw, err := sonic.Marshal(sig)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, sonic.Unmarshal(raw, &decoded))
	assert.Equal(t, "b", decoded["a"])
	assert.EqualValues(t, 42, decoded[TimestampField])
}

func TestDecodeObject(t *testing.T) {
	fields, err := DecodeObject([]byte(`{"content":"hello","score":3}`))
	require.NoError(t, err)
	assert.Equal(t, "hello", fields["content"])

	for _, raw := range []string{`[1,2]`, `"text"`, `null`, `{broken`} {
		_, err := DecodeObject([]byte(raw))
		assert.ErrorIs(t, err, ErrNotObject, raw)
	}
}

func TestConcurrentPushesNeverExceedCapacity(t *testing.T) {
	b := NewBuffer(5, time.Hour)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b.Push(map[string]any{"i": i}, now)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, b.Len())
}
