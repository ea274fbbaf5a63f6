package natsutil

import (
	"testing"

	"github.com/nats-io/nats.go"
)

func TestHeaderCarrierRoundTrip(t *testing.T) {
	msg := &nats.Msg{Subject: "scene.created"}
	c := (*natsHeaderCarrier)(msg)

	if c.Get("traceparent") != "" {
		t.Fatal("empty carrier should return empty value")
	}
	c.Set("traceparent", "00-abc-def-01")
	if got := c.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("got %q", got)
	}

	keys := c.Keys()
	if len(keys) != 1 || keys[0] != "Traceparent" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestHeaderCarrierNilHeader(t *testing.T) {
	c := (*natsHeaderCarrier)(&nats.Msg{})
	if c.Keys() != nil {
		t.Fatal("nil header should yield nil keys")
	}
}
