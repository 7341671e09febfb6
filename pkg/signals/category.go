// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package signals

import "time"

// Category describes one signal feed.
type Category struct {
	// Name is the stable identifier used in logs and metrics.
	Name string
	// Label is the human-readable noun used in API messages.
	Label string
	// Stored overrides the push acknowledgement; empty derives it from Label.
	Stored   string
	Capacity int
	Window   time.Duration
	// Decorate, when set, adds fixed fields to every pushed payload.
	Decorate func(fields map[string]any)
}

var (
	// Discord holds relayed Discord alerts.
	Discord = Category{
		Name:     "discord",
		Label:    "Discord signal",
		Stored:   "Signal stored successfully",
		Capacity: 8,
		Window:   time.Hour,
	}
	// Sentiment holds token sentiment posts, attributed to a fixed author.
	Sentiment = Category{
		Name:     "sentiment",
		Label:    "token sentiment signal",
		Capacity: 50,
		Window:   30 * time.Minute,
		Decorate: func(fields map[string]any) {
			fields["author"] = map[string]any{
				"name":     "boncatBT",
				"icon_url": "https://pbs.twimg.com/profile_images/1906453491888898048/J9itYmnr_400x400.jpg",
			}
		},
	}
	// Base holds base-chain signals.
	Base = Category{Name: "base", Label: "base signal", Capacity: 6, Window: 2 * time.Hour}
)

// Feed couples a category with its buffer.
type Feed struct {
	Category
	buf *Buffer
}

// NewFeed allocates the buffer for c.
func NewFeed(c Category) *Feed {
	return &Feed{Category: c, buf: NewBuffer(c.Capacity, c.Window)}
}

// Push decorates and stores fields.
func (f *Feed) Push(fields map[string]any, now time.Time) Signal {
	if f.Decorate != nil {
		decorated := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			decorated[k] = v
		}
		f.Decorate(decorated)
		fields = decorated
	}
	return f.buf.Push(fields, now)
}

// List returns the signals still inside the window at now.
func (f *Feed) List(now time.Time) []Signal {
	return f.buf.List(now)
}
