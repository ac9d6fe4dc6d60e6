// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/devblok/koruvox/utility/kar"
	"github.com/sirupsen/logrus"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil {
		currentUserName = u.Username
	}
}

var (
	currentUserName string

	author   = flag.String("author", "", "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the archive given")
	compress = flag.String("c", "", "Compress the given file/folder")
	list     = flag.String("l", "", "List the contents of the archive given")
	dstFile  = flag.String("f", "out.kar", "Destination file, or directory when extracting")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()

	logger := logrus.New()
	if *silent {
		logger.SetLevel(logrus.WarnLevel)
	}

	ops := 0
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}
	if ops > 1 {
		logger.Fatal(errors.New("only one operation at a time"))
	}

	var err error
	switch {
	case *compress != "":
		name := *author
		if name == "" {
			name = currentUserName
		}
		err = compressFiles(*compress, *dstFile, kar.Header{
			Author:      name,
			DateCreated: time.Now().Unix(),
			Version:     *version,
		}, logger)
	case *extract != "":
		err = extractFiles(*extract, *dstFile, logger)
	case *list != "":
		err = listFiles(*list, os.Stdout)
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		logger.Fatal(err)
	}
}

func compressFiles(src, dst string, header kar.Header, logger logrus.FieldLogger) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	if err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	}); err != nil {
		return err
	}

	karBuilder, err := kar.NewBuilder(header)
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	base := src
	if info, err := os.Stat(src); err == nil && !info.IsDir() {
		base = filepath.Dir(src)
	}
	for _, ftc := range filesToCompress {
		name, err := filepath.Rel(base, ftc)
		if err != nil {
			return err
		}
		if err := addFile(karBuilder, filepath.ToSlash(name), ftc); err != nil {
			return err
		}
		logger.WithField("file", name).Debug("added")
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	written, err := karBuilder.WriteTo(out)
	if err != nil {
		out.Close()
		return err
	}
	logger.WithFields(logrus.Fields{
		"files":   len(filesToCompress),
		"bytes":   written,
		"archive": dst,
	}).Info("archive written")
	return out.Close()
}

func addFile(b *kar.Builder, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return b.Add(name, f)
}

func extractFiles(src, dst string, logger logrus.FieldLogger) error {
	ar, err := kar.OpenFile(src)
	if err != nil {
		return err
	}
	defer ar.Close()

	for _, name := range ar.Names() {
		target := filepath.Join(dst, filepath.FromSlash(name))
		rel, err := filepath.Rel(dst, target)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%s: refusing to extract outside %s", name, dst)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := extractFile(ar, name, target); err != nil {
			return err
		}
		logger.WithField("file", name).Debug("extracted")
	}
	logger.WithFields(logrus.Fields{"files": len(ar.Names()), "dir": dst}).Info("archive extracted")
	return nil
}

func extractFile(ar *kar.Archive, name, target string) error {
	r, err := ar.Open(name)
	if err != nil {
		return err
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listFiles(src string, out io.Writer) error {
	ar, err := kar.OpenFile(src)
	if err != nil {
		return err
	}
	defer ar.Close()

	header := ar.Header()
	fmt.Fprintf(out, "author: %s\nversion: %d\ncreated: %s\n\n",
		header.Author, header.Version, time.Unix(header.DateCreated, 0).UTC().Format(time.RFC3339))

	index := header.Index
	sort.Slice(index, func(i, j int) bool { return index[i].Name < index[j].Name })
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tCOMPRESSED")
	for _, e := range index {
		fmt.Fprintf(w, "%s\t%d\t%d\n", e.Name, e.Size, e.CompressedSize)
	}
	return w.Flush()
}
