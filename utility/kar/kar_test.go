// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devblok/koruvox/utility/kar"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()

	for name, content := range files {
		if err := builder.Add(name, strings.NewReader(content)); err != nil {
			t.Fatal(err)
		}
	}

	var buf bytes.Buffer
	if _, err := builder.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	data := buildArchive(t, map[string]string{"test": testString1, "test2": testString2})

	ar, err := kar.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	f, err := ar.Open("test")
	if err != nil {
		t.Fatal(err)
	}

	result, err := io.ReadAll(f)
	if err != nil {
		t.Error(err)
	}
	if string(result) != testString1 {
		t.Error("test string does not match up")
	}
	if f.Size() != int64(len(testString1)) {
		t.Errorf("wrong size %d", f.Size())
	}
}

func TestCreateAndReadAll(t *testing.T) {
	data := buildArchive(t, map[string]string{"test": testString1, "test2": testString2})

	ar, err := kar.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	for name, expected := range map[string]string{"test": testString1, "test2": testString2} {
		f, err := ar.ReadAll(name)
		if err != nil {
			t.Error(err)
		}
		if string(f) != expected {
			t.Errorf("%s: test string does not match up", name)
		}
	}

	names := ar.Names()
	if len(names) != 2 || names[0] != "test" || names[1] != "test2" {
		t.Errorf("unexpected names %v", names)
	}
	if h := ar.Header(); h.Author != "devblok" || h.Version != 1 {
		t.Errorf("unexpected header %+v", h)
	}
}

func TestMissingFile(t *testing.T) {
	data := buildArchive(t, map[string]string{"test": testString1})

	ar, err := kar.Open(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ar.Open("nope"); err != kar.ErrNotExist {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	if _, err := ar.ReadAll("nope"); err != kar.ErrNotExist {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestConcurrentRead(t *testing.T) {
	files := map[string]string{
		"a": strings.Repeat("alpha", 200),
		"b": strings.Repeat("beta", 300),
		"c": testString2,
	}
	ar, err := kar.Open(bytes.NewReader(buildArchive(t, files)))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for name, expected := range files {
			wg.Add(1)
			go func(name, expected string) {
				defer wg.Done()
				got, err := ar.ReadAll(name)
				if err != nil {
					t.Error(err)
					return
				}
				if string(got) != expected {
					t.Errorf("%s: content mismatch", name)
				}
			}(name, expected)
		}
	}
	wg.Wait()
}

func TestReaderAt(t *testing.T) {
	ar, err := kar.Open(bytes.NewReader(buildArchive(t, map[string]string{"test": testString2})))
	if err != nil {
		t.Fatal(err)
	}
	r, err := kar.NewReaderAt(ar, "test")
	if err != nil {
		t.Fatal(err)
	}

	p := make([]byte, 5)
	n, err := r.ReadAt(p, 10)
	if err != nil {
		t.Error(err)
	}
	if n != 5 || string(p) != testString2[10:15] {
		t.Errorf("got %q", p[:n])
	}

	if _, err := r.ReadAt(p, r.Size()); err != io.EOF {
		t.Errorf("expected EOF past the end, got %v", err)
	}

	if _, err := kar.NewReaderAt(ar, "nope"); err != kar.ErrNotExist {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestOpenCorrupted(t *testing.T) {
	cases := map[string][]byte{
		"empty":     {},
		"bad magic": append([]byte("TAR\x00"), make([]byte, 32)...),
		"truncated": buildArchive(t, map[string]string{"test": testString1})[:24],
	}
	for name, data := range cases {
		if _, err := kar.Open(bytes.NewReader(data)); err != kar.ErrFileFormat {
			t.Errorf("%s: expected ErrFileFormat, got %v", name, err)
		}
	}
}
