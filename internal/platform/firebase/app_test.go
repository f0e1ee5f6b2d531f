package firebase

import (
	"testing"
)

func TestClientsCloseReturnsNilWhenFirestoreNil(t *testing.T) {
	c := &Clients{}
	if err := c.Close(); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestBucketName(t *testing.T) {
	c := &Clients{bucket: "photos.appspot.com"}
	if got := c.BucketName(); got != "photos.appspot.com" {
		t.Fatalf("expected bucket name, got %q", got)
	}
}
