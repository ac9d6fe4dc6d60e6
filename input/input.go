// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package input

// Input bundles every input device.
type Input struct {
	KeyboardMouse
	Gamepad Gamepad
}

// New returns input with nothing pressed.
func New() *Input {
	return &Input{}
}
