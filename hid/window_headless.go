//go:build headless

package hid

import (
	"context"
	"errors"
)

// Window is unavailable in headless builds; use Terminal instead.
type Window struct{}

var _ Source = &Window{}

func NewWindow(title string, width, height int) *Window { return &Window{} }

func (*Window) SetStatus(string) {}

func (*Window) Run(context.Context, func(Event)) error {
	return errors.New("no window support in headless builds")
}
