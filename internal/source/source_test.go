package source

import (
    "bytes"
    "context"
    "errors"
    "os"
    "path/filepath"
    "testing"
)

// minimal but sniffable PDF header
var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func TestCheckPDF(t *testing.T) {
    if err := CheckPDF(pdfBytes, 0); err != nil {
        t.Fatalf("expected valid pdf, got %v", err)
    }
    if err := CheckPDF([]byte("hello world"), 0); !errors.Is(err, ErrNotAPDF) {
        t.Fatalf("expected ErrNotAPDF, got %v", err)
    }
    err := CheckPDF(pdfBytes, 4)
    var tooBig *FileTooLargeError
    if !errors.As(err, &tooBig) {
        t.Fatalf("expected FileTooLargeError, got %v", err)
    }
    if tooBig.Max != 4 {
        t.Errorf("max = %d, want 4", tooBig.Max)
    }
}

func TestResolverReadsLocalFiles(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "doc.pdf")
    if err := os.WriteFile(path, pdfBytes, 0o644); err != nil {
        t.Fatal(err)
    }

    r := &Resolver{}
    for _, ref := range []string{path, "file://" + path, path + "#page=2"} {
        got, err := r.Read(context.Background(), ref)
        if err != nil {
            t.Fatalf("Read(%q) failed: %v", ref, err)
        }
        if !bytes.Equal(got, pdfBytes) {
            t.Errorf("Read(%q) returned wrong bytes", ref)
        }
    }

    if _, err := r.Read(context.Background(), filepath.Join(dir, "missing.pdf")); err == nil {
        t.Error("expected error for missing file")
    }
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
    enc, err := EncryptGCM(pdfBytes, "hunter2")
    if err != nil {
        t.Fatal(err)
    }
    if bytes.Equal(enc, pdfBytes) {
        t.Fatal("encryption produced plaintext")
    }
    dec, err := MaybeDecrypt(enc, "hunter2")
    if err != nil {
        t.Fatal(err)
    }
    if !bytes.Equal(dec, pdfBytes) {
        t.Error("round trip mismatch")
    }

    // Plaintext passes through untouched.
    passthrough, err := MaybeDecrypt(pdfBytes, "hunter2")
    if err != nil || !bytes.Equal(passthrough, pdfBytes) {
        t.Errorf("plaintext passthrough failed: %v", err)
    }

    // Wrong password fails closed.
    if _, err := MaybeDecrypt(enc, "wrong"); err == nil {
        t.Error("expected decryption failure with wrong password")
    }
}

func TestResolverDecryptsStoredSources(t *testing.T) {
    dir := t.TempDir()
    enc, err := EncryptGCM(pdfBytes, "pw")
    if err != nil {
        t.Fatal(err)
    }
    path := filepath.Join(dir, "enc.pdf")
    if err := os.WriteFile(path, enc, 0o644); err != nil {
        t.Fatal(err)
    }
    r := &Resolver{Password: "pw"}
    got, err := r.Read(context.Background(), path)
    if err != nil {
        t.Fatal(err)
    }
    if !bytes.Equal(got, pdfBytes) {
        t.Error("resolver did not decrypt stored source")
    }
}
