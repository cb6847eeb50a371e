// Copyright 2026 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/beevik/gekko/host"
	"github.com/beevik/gekko/internal/log"
	"github.com/beevik/gekko/timing"
	"github.com/beevik/term"
)

var (
	debug    bool
	entry    string
	load     string
	hooks    string
	slice    int
	logLevel string
)

func init() {
	flag.BoolVar(&debug, "debug", false, "start the interactive debugger")
	flag.StringVar(&load, "load", "", "raw big-endian program image to load")
	flag.StringVar(&entry, "entry", "0x3100", "address of the program image and its first instruction")
	flag.StringVar(&hooks, "hooks", "", "Lua script that installs function hooks")
	flag.IntVar(&slice, "slice", timing.DefaultSlice, "CPU cycles per timing slice")
	flag.StringVar(&logLevel, "v", "info", "log level (debug, info, notice, warn, error)")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: gekko [options] [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	level, ok := log.ParseLevel(logLevel)
	if !ok {
		exitOnError(fmt.Errorf("unknown log level '%s'", logLevel))
	}
	log.SetLevel(level)

	addr, err := strconv.ParseUint(entry, 0, 32)
	if err != nil {
		exitOnError(fmt.Errorf("invalid entry address '%s'", entry))
	}

	h := host.New(host.Config{Slice: slice})
	defer h.Close()
	h.SetPC(uint32(addr))

	if load != "" {
		if err := h.LoadImage(load, uint32(addr)); err != nil {
			exitOnError(err)
		}
	}
	if hooks != "" {
		if err := h.LoadHooks(hooks); err != nil {
			exitOnError(err)
		}
	}

	// Break on Ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(h, c)

	// Without the debugger, run the loaded image until it stops.
	if !debug && load != "" {
		if err := h.Run(); err != nil {
			exitOnError(err)
		}
		return
	}

	// Run commands contained in command-line files.
	for _, filename := range flag.Args() {
		file, err := os.Open(filename)
		if err != nil {
			exitOnError(err)
		}
		h.RunCommands(file, os.Stdout, false)
		file.Close()
	}

	// Run commands interactively.
	h.RunCommands(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
