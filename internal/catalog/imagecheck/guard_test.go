package imagecheck

import (
	"context"
	"errors"
	"net/http"
	"net/netip"
	"testing"
	"time"
)

func TestBlockedAddr(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1":        true,
		"10.1.2.3":         true,
		"172.16.0.1":       true,
		"192.168.1.10":     true,
		"169.254.169.254":  true,
		"0.0.0.0":          true,
		"224.0.0.1":        true,
		"::1":              true,
		"fe80::1":          true,
		"fd00::1":          true,
		"::ffff:127.0.0.1": true,
		"93.184.216.34":    false,
		"8.8.8.8":          false,
		"2606:4700::1111":  false,
	}
	for raw, want := range cases {
		if got := blockedAddr(netip.MustParseAddr(raw)); got != want {
			t.Fatalf("blockedAddr(%s) = %v, want %v", raw, got, want)
		}
	}
}

func TestPublicOnlyControl(t *testing.T) {
	if err := publicOnly("tcp4", "169.254.169.254:80", nil); !errors.Is(err, ErrBlockedAddress) {
		t.Fatalf("metadata address: err = %v", err)
	}
	if err := publicOnly("tcp4", "93.184.216.34:443", nil); err != nil {
		t.Fatalf("public address: err = %v", err)
	}
}

func TestCheckRefusesPrivateHosts(t *testing.T) {
	srv := imageServer(t)
	guarded := New(&http.Client{Transport: NewTransport(false)}, Config{Timeout: time.Second}, nil, nil)

	if _, problems := guarded.Check(context.Background(), srv.URL+"/small.png"); len(problems) != 1 || problems[0] != MsgUnreachable {
		t.Fatalf("loopback image: problems = %v", problems)
	}

	open := New(&http.Client{Transport: NewTransport(true)}, Config{Timeout: time.Second}, nil, nil)
	if _, problems := open.Check(context.Background(), srv.URL+"/small.png"); len(problems) != 0 {
		t.Fatalf("allowPrivate should reach the loopback server, got %v", problems)
	}
}
