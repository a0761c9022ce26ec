package services

import (
	"io"
	"os"
	"strings"
	"testing"
)

func TestProofStoreOpenRelease(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewProofService(dir)
	if err != nil {
		t.Fatalf("NewProofService returned %v", err)
	}

	ref, err := svc.Store("receipt.jpg", "image/jpeg", strings.NewReader("fake-jpeg-bytes"))
	if err != nil {
		t.Fatalf("Store returned %v", err)
	}
	if ref.Name != "receipt.jpg" || ref.MIMEType != "image/jpeg" {
		t.Errorf("ref = %+v", ref)
	}
	if !strings.HasSuffix(ref.StoredName, ".jpg") {
		t.Errorf("stored name %q should keep the extension", ref.StoredName)
	}

	rc, err := svc.Open(ref)
	if err != nil {
		t.Fatalf("Open returned %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "fake-jpeg-bytes" {
		t.Errorf("stored bytes = %q", data)
	}

	if err := svc.Release(ref); err != nil {
		t.Fatalf("Release returned %v", err)
	}
	if _, err := svc.Open(ref); !os.IsNotExist(err) {
		t.Errorf("Open after Release err = %v, want not-exist", err)
	}

	// Releasing again is tolerated so teardown paths stay idempotent.
	if err := svc.Release(ref); err != nil {
		t.Errorf("second Release returned %v", err)
	}
}

func TestProofStoreDropsSuspiciousExtensions(t *testing.T) {
	svc, err := NewProofService(t.TempDir())
	if err != nil {
		t.Fatalf("NewProofService returned %v", err)
	}

	cases := []string{"evil.j$g", "noext", "long.extension-name", `weird.j\pg`}
	for _, name := range cases {
		ref, err := svc.Store(name, "image/png", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("Store(%q) returned %v", name, err)
		}
		if strings.Contains(ref.StoredName, ".") {
			t.Errorf("Store(%q) kept extension in %q", name, ref.StoredName)
		}
		svc.Release(ref)
	}
}
