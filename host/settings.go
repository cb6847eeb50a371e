// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

var (
	errInvalidSettingType = errors.New("invalid type")
	errSettingRange       = errors.New("value out of range")
)

// Settings are described by struct tags: 'doc' is the help text, 'show'
// the display format of the value and 'min' the smallest value accepted
// by a count.
type settings struct {
	HexMode         bool   `doc:"hexadecimal input mode"`
	ShowCycles      bool   `doc:"show the cycle count with the current instruction"`
	MemDumpBytes    int    `doc:"default number of memory bytes to dump" min:"1"`
	DisasmLines     int    `doc:"default number of lines to disassemble" min:"1"`
	MaxStepLines    int    `doc:"max lines to disassemble when stepping" min:"0"`
	NextDisasmAddr  uint32 `doc:"address of next disassembly" show:"%08X"`
	NextMemDumpAddr uint32 `doc:"address of next memory dump" show:"%08X"`
}

func newSettings() *settings {
	return &settings{
		ShowCycles:   true,
		MemDumpBytes: 64,
		DisasmLines:  10,
		MaxStepLines: 20,
	}
}

type setting struct {
	name   string
	index  int
	typ    reflect.Type
	doc    string
	show   string
	min    int64
	hasMin bool
}

var (
	settingTree = prefixtree.New[*setting]()
	settingList []setting
)

func init() {
	t := reflect.TypeOf(settings{})
	settingList = make([]setting, t.NumField())
	for i := range settingList {
		f := t.Field(i)
		s := &settingList[i]
		*s = setting{name: f.Name, index: i, typ: f.Type, show: "%v"}
		s.doc = f.Tag.Get("doc")
		if show, ok := f.Tag.Lookup("show"); ok {
			s.show = show
		}
		if m, ok := f.Tag.Lookup("min"); ok {
			s.min, _ = strconv.ParseInt(m, 10, 64)
			s.hasMin = true
		}
		settingTree.Add(strings.ToLower(f.Name), s)
	}
}

func (s *setting) assign(dst reflect.Value, value any) error {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Uint32 && s.typ.Kind() == reflect.Int {
		// Expressions are 32-bit, so "-1" arrives as FFFFFFFF.
		v = reflect.ValueOf(int(int32(v.Uint())))
	}
	if (v.Kind() == reflect.Bool) != (s.typ.Kind() == reflect.Bool) || !v.Type().ConvertibleTo(s.typ) {
		return errInvalidSettingType
	}
	v = v.Convert(s.typ)
	if s.hasMin && v.CanInt() && v.Int() < s.min {
		return fmt.Errorf("%s: %w (minimum %d)", s.name, errSettingRange, s.min)
	}
	dst.Set(v)
	return nil
}

// Display lists the settings and their values, one per line.
func (s *settings) Display(w io.Writer) {
	v := reflect.ValueOf(s).Elem()
	for i := range settingList {
		f := &settingList[i]
		line := fmt.Sprintf("    %-16s "+f.show, f.name, v.Field(f.index).Interface())
		fmt.Fprintf(w, "%-30s (%s)\n", line, f.doc)
	}
}

// Kind returns the kind of the setting identified by a unique prefix of
// its name, or reflect.Invalid.
func (s *settings) Kind(key string) reflect.Kind {
	f, err := settingTree.FindValue(strings.ToLower(key))
	if err != nil {
		return reflect.Invalid
	}
	return f.typ.Kind()
}

// Set changes the setting identified by a unique prefix of its name.
func (s *settings) Set(key string, value any) error {
	f, err := settingTree.FindValue(strings.ToLower(key))
	if err != nil {
		return err
	}
	return f.assign(reflect.ValueOf(s).Elem().Field(f.index), value)
}
