// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"os"

	"github.com/devblok/koruvox/core"
	"github.com/gotk3/gotk3/gtk"
	log "github.com/sirupsen/logrus"
)

func main() {
	gtk.Init(&os.Args)

	inspector, err := NewInspector(core.DefaultConfiguration().World, log.StandardLogger())
	if err != nil {
		log.Fatal(err)
	}
	app, err := buildInterface(inspector)
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(app.Run(os.Args))
}
