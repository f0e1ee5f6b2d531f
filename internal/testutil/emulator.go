package testutil

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"
)

// Firestore emulator coordinates shared by the profile store tests.
const (
	FirestoreEmulatorHost = "127.0.0.1:7130"
	ProjectID             = "demo-test-project"
)

const dialTimeout = 100 * time.Millisecond

// reachable reports whether a TCP listener answers at host.
func reachable(host string) bool {
	if host == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// SkipIfFirestoreUnavailable skips the test if the Firestore emulator is not running.
func SkipIfFirestoreUnavailable(t *testing.T) {
	t.Helper()
	if !reachable(FirestoreEmulatorHost) {
		t.Skip("Firestore emulator not available")
	}
}

// SetupEmulator points the Firestore client at the emulator for the duration of t.
func SetupEmulator(t *testing.T) {
	t.Helper()
	t.Setenv("FIRESTORE_EMULATOR_HOST", FirestoreEmulatorHost)
}

// ClearFirestore drops every document in the emulator's default database.
func ClearFirestore(t *testing.T) {
	t.Helper()
	endpoint := fmt.Sprintf("http://%s/emulator/v1/projects/%s/databases/(default)/documents",
		FirestoreEmulatorHost, ProjectID)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, endpoint, nil)
	if err != nil {
		t.Fatalf("build clear request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("clear Firestore emulator: %v", err)
	}
	_ = resp.Body.Close()
}
