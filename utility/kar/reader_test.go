// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/devblok/koruvox/utility/kar"
)

func readFileAndCompare(f *kar.Reader, expected string, t *testing.T) error {
	result := make([]byte, len(expected))
	n, err := f.Read(result)
	if err != nil {
		t.Error(err)
	}
	if n < len(expected) {
		return errors.New("incorrect number of bytes read")
	}
	if string(result) != expected {
		return errors.New("test string does not match up")
	}
	return nil
}

func writeTestArchive(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "opentest.kar")
	data := buildArchive(t, map[string]string{
		"test/test1.txt": "this is a test",
		"test/test2.txt": "this is another test",
	})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen(t *testing.T) {
	r, err := os.Open(writeTestArchive(t))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ar, err := kar.Open(r)
	if err != nil {
		t.Fatal(err)
	}

	if f, err := ar.Open("test/test1.txt"); err != nil {
		t.Error(err)
	} else if err := readFileAndCompare(f, "this is a test", t); err != nil {
		t.Error(err)
	}
}

func TestOpenFile(t *testing.T) {
	ar, err := kar.OpenFile(writeTestArchive(t))
	if err != nil {
		t.Fatal(err)
	}
	defer ar.Close()

	if f, err := ar.ReadAll("test/test1.txt"); err != nil {
		t.Error(err)
	} else if string(f) != "this is a test" {
		t.Error(errors.New("result is not expected value"))
	}

	if f, err := ar.ReadAll("test/test2.txt"); err != nil {
		t.Error(err)
	} else if string(f) != "this is another test" {
		t.Error(errors.New("result is not expected value"))
	}
}

func TestOpenFileNotArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(path, []byte("definitely not a kar archive file"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := kar.OpenFile(path); err != kar.ErrFileFormat {
		t.Errorf("expected ErrFileFormat, got %v", err)
	}
}
