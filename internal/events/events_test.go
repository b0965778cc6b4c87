package events

import "testing"

func TestPublishFansOutInRegistrationOrder(t *testing.T) {
	var bus Bus
	var order []string
	bus.Subscribe(func(e Event) { order = append(order, "first:"+string(e.Kind)) })
	bus.Subscribe(func(e Event) { order = append(order, "second:"+string(e.Kind)) })

	bus.Publish(Event{Kind: KindCacheHit, URL: "https://example.com"})

	want := []string{"first:" + string(KindCacheHit), "second:" + string(KindCacheHit)}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("got %v, want %v", order, want)
			break
		}
	}
}

func TestSubscribeIgnoresNilSubscriber(t *testing.T) {
	var bus Bus
	bus.Subscribe(nil)
	bus.Publish(Event{Kind: KindCacheMiss}) // must not panic
}

func TestZeroValueBusPublishIsANoop(t *testing.T) {
	var bus Bus
	bus.Publish(Event{Kind: KindDownloadStart}) // no subscribers, must not panic
}

func TestNilBusPublishIsANoop(t *testing.T) {
	var bus *Bus
	bus.Publish(Event{Kind: KindDownloadStart}) // nil receiver, must not panic
}

func TestCacheHitAndCacheMissConvenienceWrappers(t *testing.T) {
	var bus Bus
	var got []Event
	bus.Subscribe(func(e Event) { got = append(got, e) })

	bus.CacheHit("https://example.com/a")
	bus.CacheMiss("https://example.com/b")

	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Kind != KindCacheHit || got[0].URL != "https://example.com/a" {
		t.Errorf("got %+v", got[0])
	}
	if got[1].Kind != KindCacheMiss || got[1].URL != "https://example.com/b" {
		t.Errorf("got %+v", got[1])
	}
}
