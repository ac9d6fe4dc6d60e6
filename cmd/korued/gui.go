// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"strconv"

	"github.com/gobuffalo/packr"
	"github.com/gotk3/gotk3/glib"
	"github.com/gotk3/gotk3/gtk"
	log "github.com/sirupsen/logrus"
)

// StaticResources holds the glade definition of the interface.
var StaticResources packr.Box

func init() {
	StaticResources = packr.NewBox("./resources")
}

// view is the set of widgets the inspector updates.
type view struct {
	window     *gtk.Window
	chooser    *gtk.FileChooserButton
	generator  *gtk.ComboBoxText
	seed       *gtk.SpinButton
	regenerate *gtk.Button
	save       *gtk.Button
	status     *gtk.Label
	counts     map[string]*gtk.Label
}

var countLabels = []string{"emptyLabel", "solidLabel", "normalLabel", "octantLabel", "depthLabel", "trianglesLabel"}

func getObject(builder *gtk.Builder, name string) (glib.IObject, error) {
	obj, err := builder.GetObject(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return obj, nil
}

func loadView(builder *gtk.Builder) (*view, error) {
	v := &view{counts: make(map[string]*gtk.Label)}
	widgets := map[string]interface{}{
		"mainWindow":       &v.window,
		"fileChooser":      &v.chooser,
		"generatorCombo":   &v.generator,
		"seedSpin":         &v.seed,
		"regenerateButton": &v.regenerate,
		"saveButton":       &v.save,
		"statusLabel":      &v.status,
	}
	for name, target := range widgets {
		obj, err := getObject(builder, name)
		if err != nil {
			return nil, err
		}
		ok := false
		switch t := target.(type) {
		case **gtk.Window:
			*t, ok = obj.(*gtk.Window)
		case **gtk.FileChooserButton:
			*t, ok = obj.(*gtk.FileChooserButton)
		case **gtk.ComboBoxText:
			*t, ok = obj.(*gtk.ComboBoxText)
		case **gtk.SpinButton:
			*t, ok = obj.(*gtk.SpinButton)
		case **gtk.Button:
			*t, ok = obj.(*gtk.Button)
		case **gtk.Label:
			*t, ok = obj.(*gtk.Label)
		}
		if !ok {
			return nil, fmt.Errorf("%s: unexpected widget type %T", name, obj)
		}
	}
	for _, name := range countLabels {
		obj, err := getObject(builder, name)
		if err != nil {
			return nil, err
		}
		label, ok := obj.(*gtk.Label)
		if !ok {
			return nil, fmt.Errorf("%s: unexpected widget type %T", name, obj)
		}
		v.counts[name] = label
	}
	return v, nil
}

func (v *view) show(s Summary) {
	values := map[string]int{
		"emptyLabel":     s.Empty,
		"solidLabel":     s.Solid,
		"normalLabel":    s.Normal,
		"octantLabel":    s.Octant,
		"depthLabel":     s.Depth,
		"trianglesLabel": s.Triangles,
	}
	for name, value := range values {
		v.counts[name].SetText(strconv.Itoa(value))
	}
	v.seed.SetValue(float64(s.Seed))
	v.status.SetText(s.Source)
}

func (v *view) fail(err error) {
	log.Error(err)
	v.status.SetText(err.Error())
}

func (v *view) connect(inspector *Inspector) {
	v.chooser.Connect("file-set", func() {
		path := v.chooser.GetFilename()
		summary, err := inspector.Open(path)
		v.show(summary)
		if err != nil {
			v.fail(err)
		}
	})
	v.regenerate.Connect("clicked", func() {
		summary, err := inspector.Regenerate(v.generator.GetActiveText(), int64(v.seed.GetValueAsInt()))
		v.show(summary)
		if err != nil {
			v.fail(err)
		}
	})
	v.save.Connect("clicked", func() {
		dialog, err := gtk.FileChooserDialogNewWith2Buttons("Save octree", v.window, gtk.FILE_CHOOSER_ACTION_SAVE,
			"Cancel", gtk.RESPONSE_CANCEL, "Save", gtk.RESPONSE_ACCEPT)
		if err != nil {
			v.fail(err)
			return
		}
		defer dialog.Destroy()
		dialog.SetDoOverwriteConfirmation(true)
		if gtk.ResponseType(dialog.Run()) != gtk.RESPONSE_ACCEPT {
			return
		}
		path := dialog.GetFilename()
		if err := inspector.Save(path); err != nil {
			v.fail(err)
			return
		}
		v.status.SetText("saved " + path)
	})
}

func buildInterface(inspector *Inspector) (*gtk.Application, error) {
	app, err := gtk.ApplicationNew("org.koru3d.korued", glib.APPLICATION_FLAGS_NONE)
	if err != nil {
		return nil, err
	}

	app.Connect("startup", func() {
		log.Info("Application starting")
	})

	app.Connect("activate", func() {
		log.Info("Application activating")

		resource, err := StaticResources.FindString("korued.glade")
		if err != nil {
			log.Fatal(err)
		}

		builder, err := gtk.BuilderNew()
		if err != nil {
			log.Fatal(err)
		}
		if err := builder.AddFromString(resource); err != nil {
			log.Fatal(err)
		}

		v, err := loadView(builder)
		if err != nil {
			log.Fatal(err)
		}
		v.connect(inspector)
		v.show(inspector.Summary())

		v.window.SetDefaultSize(600, 480)
		v.window.ShowAll()
		app.AddWindow(v.window)
	})

	app.Connect("shutdown", func() {
		log.Info("Application shutting down")
	})
	return app, nil
}
