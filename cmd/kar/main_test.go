// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devblok/koruvox/utility/kar"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestCompressListExtract(t *testing.T) {
	logger, _ := test.NewNullLogger()
	src := t.TempDir()
	files := map[string]string{
		"shaders/octree.vert.spv": "vertex",
		"shaders/octree.frag.spv": "fragment",
		"readme.txt":              strings.Repeat("koru ", 100),
	}
	for name, content := range files {
		path := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	archive := filepath.Join(t.TempDir(), "assets.kar")
	header := kar.Header{Author: "devblok", Version: 3, DateCreated: 0}
	if err := compressFiles(src, archive, header, logger); err != nil {
		t.Fatal(err)
	}
	if err := compressFiles(src, archive, header, logger); err == nil {
		t.Error("existing archive must not be overwritten")
	}

	var out bytes.Buffer
	if err := listFiles(archive, &out); err != nil {
		t.Fatal(err)
	}
	listing := out.String()
	for _, want := range []string{"author: devblok", "version: 3", "readme.txt", "shaders/octree.frag.spv"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing misses %q:\n%s", want, listing)
		}
	}

	dst := t.TempDir()
	if err := extractFiles(archive, dst, logger); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		data, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(name)))
		if err != nil {
			t.Error(err)
			continue
		}
		if string(data) != content {
			t.Errorf("%s: content mismatch", name)
		}
	}
}

func TestCompressSingleFile(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "world.oct")
	if err := os.WriteFile(path, []byte("Inexor Octree"), 0644); err != nil {
		t.Fatal(err)
	}
	archive := filepath.Join(t.TempDir(), "world.kar")
	if err := compressFiles(path, archive, kar.Header{Author: "devblok"}, logger); err != nil {
		t.Fatal(err)
	}

	ar, err := kar.OpenFile(archive)
	if err != nil {
		t.Fatal(err)
	}
	defer ar.Close()
	names := ar.Names()
	if len(names) != 1 || names[0] != "world.oct" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestExtractRefusesEscape(t *testing.T) {
	logger, _ := test.NewNullLogger()
	builder, err := kar.NewBuilder(kar.Header{Author: "mallory"})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()
	if err := builder.Add("../escape.txt", strings.NewReader("nope")); err != nil {
		t.Fatal(err)
	}
	archive := filepath.Join(t.TempDir(), "bad.kar")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := builder.WriteTo(f); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dst := filepath.Join(t.TempDir(), "out")
	if err := extractFiles(archive, dst, logger); err == nil {
		t.Error("extracting outside the destination must fail")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dst), "escape.txt")); !os.IsNotExist(err) {
		t.Error("file escaped the destination")
	}
}
