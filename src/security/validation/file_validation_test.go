package validation

import (
	"bytes"
	"os"
	"testing"

	"github.com/username/liquidador/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestValidateClientContentType(t *testing.T) {
	cases := []struct {
		contentType string
		wantErr     bool
	}{
		{"image/jpeg", false},
		{"image/png", false},
		{"image/heic", false}, // any image/* is acceptable
		{"application/pdf", false},
		{"IMAGE/PNG; charset=binary", false},
		{"text/csv", true},
		{"application/octet-stream", true},
		{"", true},
	}
	for _, c := range cases {
		err := ValidateClientContentType(c.contentType)
		if (err != nil) != c.wantErr {
			t.Errorf("ValidateClientContentType(%q) err = %v, wantErr %v", c.contentType, err, c.wantErr)
		}
	}
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	png := bytes.NewReader([]byte("\x89PNG\r\n\x1a\npayload"))
	detected, err := ValidateFileContentByMagicBytes(png)
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	if detected != "image/png" {
		t.Errorf("detected = %q", detected)
	}
	// Reader must be rewound for the caller.
	if pos, _ := png.Seek(0, 1); pos != 0 {
		t.Errorf("reader not rewound, pos = %d", pos)
	}

	pdf := bytes.NewReader([]byte("%PDF-1.4 payload"))
	if detected, err := ValidateFileContentByMagicBytes(pdf); err != nil {
		t.Errorf("pdf rejected: %v (detected %q)", err, detected)
	}

	txt := bytes.NewReader([]byte("plain text not a proof"))
	if _, err := ValidateFileContentByMagicBytes(txt); err == nil {
		t.Error("plain text accepted as proof")
	}
}
